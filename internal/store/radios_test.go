package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ztrcek/hisnik/internal/db"
	"github.com/ztrcek/hisnik/internal/model"
)

func TestSignOutAndSignInRadio(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	rad, err := CreateRadio(ctx, database, "Unit 7", "R-07", "SN-1234")
	if err != nil {
		t.Fatalf("CreateRadio: %v", err)
	}
	if rad.Status != model.RadioAvailable {
		t.Errorf("expected new radio to be available, got %q", rad.Status)
	}

	assignment, err := SignOutRadio(ctx, database, rad.ID, "Alice", []string{model.AccessorySurveillanceKit})
	if err != nil {
		t.Fatalf("SignOutRadio: %v", err)
	}
	if assignment.PersonName != "Alice" {
		t.Errorf("expected assignment to Alice, got %q", assignment.PersonName)
	}
	if assignment.ReturnedAt != nil {
		t.Error("expected open assignment")
	}

	rad, _ = GetRadio(ctx, database, rad.ID)
	if rad.Status != model.RadioAssigned || rad.AssignedTo != "Alice" {
		t.Errorf("expected radio assigned to Alice, got status=%q assigned_to=%q", rad.Status, rad.AssignedTo)
	}

	// Already assigned, so a second sign-out is rejected.
	_, err = SignOutRadio(ctx, database, rad.ID, "Bob", nil)
	if !errors.Is(err, model.ErrRadioAssigned) {
		t.Errorf("expected ErrRadioAssigned, got %v", err)
	}

	rad, err = SignInRadio(ctx, database, rad.ID)
	if err != nil {
		t.Fatalf("SignInRadio: %v", err)
	}
	if rad.Status != model.RadioAvailable || rad.AssignedTo != "" {
		t.Errorf("expected radio back in pool, got status=%q assigned_to=%q", rad.Status, rad.AssignedTo)
	}

	// The history record is closed.
	assignment, _ = GetAssignment(ctx, database, assignment.ID)
	if assignment.ReturnedAt == nil {
		t.Error("expected assignment to be closed after sign-in")
	}

	// Already available, so a second sign-in is rejected.
	_, err = SignInRadio(ctx, database, rad.ID)
	if !errors.Is(err, model.ErrRadioAvailable) {
		t.Errorf("expected ErrRadioAvailable, got %v", err)
	}
}

func TestSignInRadioWithoutOpenAssignment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	rad, _ := CreateRadio(ctx, database, "Unit 7", "", "")
	assignment, _ := SignOutRadio(ctx, database, rad.ID, "Alice", nil)

	// Simulate a bookkeeping gap: the history record is gone but the
	// radio is still marked assigned.
	if _, err := database.ExecContext(ctx, `DELETE FROM radio_assignments WHERE id = ?`, assignment.ID); err != nil {
		t.Fatalf("deleting assignment: %v", err)
	}

	rad, err := SignInRadio(ctx, database, rad.ID)
	if err != nil {
		t.Fatalf("SignInRadio: %v", err)
	}
	if rad.Status != model.RadioAvailable {
		t.Errorf("expected radio available despite missing assignment, got %q", rad.Status)
	}
}

func TestSignOutRadioAccessories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	rad, _ := CreateRadio(ctx, database, "Unit 7", "", "")

	var verr *model.ValidationError
	_, err := SignOutRadio(ctx, database, rad.ID, "Alice", []string{model.AccessoryEarpiece})
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for earpiece without kit, got %v", err)
	}

	// Rejected sign-out leaves the radio available.
	rad, _ = GetRadio(ctx, database, rad.ID)
	if rad.Status != model.RadioAvailable {
		t.Errorf("expected radio still available, got %q", rad.Status)
	}

	assignment, err := SignOutRadio(ctx, database, rad.ID, "Alice",
		[]string{model.AccessorySurveillanceKit, model.AccessoryEarpiece})
	if err != nil {
		t.Fatalf("SignOutRadio: %v", err)
	}
	if len(assignment.Accessories) != 2 {
		t.Errorf("expected 2 accessories, got %v", assignment.Accessories)
	}
}

func TestSignOutUnknownRadio(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := SignOutRadio(ctx, database, 42, "Alice", nil)
	if !errors.Is(err, model.ErrRadioNotFound) {
		t.Errorf("expected ErrRadioNotFound, got %v", err)
	}
}

func TestAddReplacementParts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	rad, _ := CreateRadio(ctx, database, "Unit 7", "", "")
	assignment, _ := SignOutRadio(ctx, database, rad.ID, "Alice", nil)

	if err := AddReplacementParts(ctx, database, assignment.ID, []string{"antenna", "battery"}); err != nil {
		t.Fatalf("AddReplacementParts: %v", err)
	}

	assignment, _ = GetAssignment(ctx, database, assignment.ID)
	if len(assignment.ReplacementParts) != 2 {
		t.Fatalf("expected 2 replacement parts, got %d", len(assignment.ReplacementParts))
	}
	if assignment.ReplacementParts[0].Part != "antenna" {
		t.Errorf("expected first part 'antenna', got %q", assignment.ReplacementParts[0].Part)
	}

	if err := AddReplacementParts(ctx, database, 999, []string{"antenna"}); !errors.Is(err, model.ErrAssignmentNotFound) {
		t.Errorf("expected ErrAssignmentNotFound, got %v", err)
	}

	var verr *model.ValidationError
	if err := AddReplacementParts(ctx, database, assignment.ID, nil); !errors.As(err, &verr) {
		t.Errorf("expected validation error for empty parts, got %v", err)
	}
}

func TestDeleteRadio(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	rad, _ := CreateRadio(ctx, database, "Unit 7", "", "")
	SignOutRadio(ctx, database, rad.ID, "Alice", nil)

	// Assigned radios cannot be deleted.
	var verr *model.ValidationError
	if err := DeleteRadio(ctx, database, rad.ID); !errors.As(err, &verr) {
		t.Errorf("expected validation error deleting assigned radio, got %v", err)
	}

	SignInRadio(ctx, database, rad.ID)
	if err := DeleteRadio(ctx, database, rad.ID); err != nil {
		t.Fatalf("DeleteRadio: %v", err)
	}

	radios, _ := ListRadios(ctx, database, "")
	if len(radios) != 0 {
		t.Errorf("expected 0 radios after delete, got %d", len(radios))
	}

	// History survives the delete.
	assignments, _ := ListAssignments(ctx, database, rad.ID)
	if len(assignments) != 1 {
		t.Errorf("expected assignment history to survive, got %d entries", len(assignments))
	}
}

func TestListRadiosByStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r1, _ := CreateRadio(ctx, database, "Unit 1", "", "")
	CreateRadio(ctx, database, "Unit 2", "", "")
	SignOutRadio(ctx, database, r1.ID, "Alice", nil)

	assigned, _ := ListRadios(ctx, database, model.RadioAssigned)
	if len(assigned) != 1 || assigned[0].Callsign != "Unit 1" {
		t.Errorf("expected Unit 1 assigned, got %+v", assigned)
	}

	available, _ := ListRadios(ctx, database, model.RadioAvailable)
	if len(available) != 1 || available[0].Callsign != "Unit 2" {
		t.Errorf("expected Unit 2 available, got %+v", available)
	}
}
