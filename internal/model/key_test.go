package model

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"C5", "c5"},
		{"  C5  ", "c5"},
		{"Maintenance Box", "maintenance box"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if !SameName("C5", " c5 ") {
		t.Error("expected 'C5' and ' c5 ' to match")
	}
	if SameName("C5", "C6") {
		t.Error("expected 'C5' and 'C6' not to match")
	}
}

func TestTotalQuantity(t *testing.T) {
	k := &Key{Holders: []Holder{
		{Type: HolderLockbox, Name: "Box", Quantity: 2},
		{Type: HolderPerson, Name: "Alice", Quantity: 3},
	}}
	if got := k.TotalQuantity(); got != 5 {
		t.Errorf("expected total 5, got %d", got)
	}

	empty := &Key{}
	if got := empty.TotalQuantity(); got != 0 {
		t.Errorf("expected total 0 for no holders, got %d", got)
	}
}
