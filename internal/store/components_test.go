package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ztrcek/hisnik/internal/db"
	"github.com/ztrcek/hisnik/internal/model"
	"github.com/ztrcek/hisnik/internal/schedule"
)

func TestCreateComponent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	asset, _ := CreateAsset(ctx, database, "Generator Room", "Basement", "")

	comp, err := CreateComponent(ctx, database, asset.ID, "Fire Damper", "every so often")
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}
	if comp.Frequency != schedule.Annually {
		t.Errorf("expected unrecognized frequency to default to annually, got %q", comp.Frequency)
	}
	if comp.Status != model.StatusPending {
		t.Errorf("expected new component pending, got %q", comp.Status)
	}
	if comp.AssetName != "Generator Room" {
		t.Errorf("expected asset name joined, got %q", comp.AssetName)
	}

	var verr *model.ValidationError
	if _, err := CreateComponent(ctx, database, 999, "Damper", "monthly"); !errors.As(err, &verr) {
		t.Errorf("expected validation error for unknown asset, got %v", err)
	}
}

func TestRecordInspection(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	asset, _ := CreateAsset(ctx, database, "Generator Room", "", "")
	comp, _ := CreateComponent(ctx, database, asset.ID, "Fire Damper", "monthly")

	before := time.Now().UTC()
	comp, err := RecordInspection(ctx, database, comp.ID, "yes", "all clear", "Alice")
	if err != nil {
		t.Fatalf("RecordInspection: %v", err)
	}

	if comp.Status != model.StatusPass {
		t.Errorf("expected normalized status 'pass', got %q", comp.Status)
	}
	if comp.LastChecked == nil || comp.LastChecked.Before(before.Truncate(time.Second)) {
		t.Errorf("expected last_checked set to inspection time, got %v", comp.LastChecked)
	}
	if comp.NextDue == nil {
		t.Fatal("expected next_due set")
	}
	want := schedule.NextDue(schedule.Monthly, *comp.LastChecked)
	if !comp.NextDue.Equal(want) {
		t.Errorf("expected next_due %v, got %v", want, comp.NextDue)
	}

	records, _ := ListInspections(ctx, database, comp.ID, 0)
	if len(records) != 1 {
		t.Fatalf("expected 1 inspection record, got %d", len(records))
	}
	rec := records[0]
	if rec.Inspector != "Alice" || rec.Status != model.StatusPass || rec.Notes != "all clear" {
		t.Errorf("unexpected inspection record: %+v", rec)
	}
	if rec.Frequency != schedule.Monthly {
		t.Errorf("expected frequency snapshot 'monthly', got %q", rec.Frequency)
	}
}

func TestRecordInspectionDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	asset, _ := CreateAsset(ctx, database, "Generator Room", "", "")
	comp, _ := CreateComponent(ctx, database, asset.ID, "Fire Damper", "monthly")

	comp, err := RecordInspection(ctx, database, comp.ID, "dunno", "", "  ")
	if err != nil {
		t.Fatalf("RecordInspection: %v", err)
	}
	if comp.Status != model.StatusPending {
		t.Errorf("expected unrecognized result to normalize to pending, got %q", comp.Status)
	}

	records, _ := ListInspections(ctx, database, comp.ID, 0)
	if records[0].Inspector != "Unknown" {
		t.Errorf("expected blank inspector to fall back to 'Unknown', got %q", records[0].Inspector)
	}

	_, err = RecordInspection(ctx, database, 999, "pass", "", "Alice")
	if !errors.Is(err, model.ErrComponentNotFound) {
		t.Errorf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestUpdateComponentKeepsNextDue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	asset, _ := CreateAsset(ctx, database, "Generator Room", "", "")
	comp, _ := CreateComponent(ctx, database, asset.ID, "Fire Damper", "monthly")
	comp, _ = RecordInspection(ctx, database, comp.ID, "pass", "", "Alice")
	dueBefore := *comp.NextDue

	// Frequency changes apply from the next inspection onward.
	if err := UpdateComponent(ctx, database, comp.ID, "Fire Damper", "5-years"); err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}

	comp, _ = GetComponent(ctx, database, comp.ID)
	if comp.Frequency != schedule.FiveYears {
		t.Errorf("expected frequency '5-years', got %q", comp.Frequency)
	}
	if !comp.NextDue.Equal(dueBefore) {
		t.Errorf("expected next_due unchanged at %v, got %v", dueBefore, comp.NextDue)
	}
}

func TestDeleteComponent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	asset, _ := CreateAsset(ctx, database, "Generator Room", "", "")
	comp, _ := CreateComponent(ctx, database, asset.ID, "Fire Damper", "monthly")
	RecordInspection(ctx, database, comp.ID, "pass", "", "Alice")

	if err := DeleteComponent(ctx, database, comp.ID); err != nil {
		t.Fatalf("DeleteComponent: %v", err)
	}

	got, _ := GetComponent(ctx, database, comp.ID)
	if got != nil {
		t.Error("expected component gone after delete")
	}
	records, _ := ListInspections(ctx, database, comp.ID, 0)
	if len(records) != 0 {
		t.Errorf("expected inspection history removed with component, got %d records", len(records))
	}
}

func TestClassifyComponents(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	asset, _ := CreateAsset(ctx, database, "Generator Room", "", "")

	seed := func(name string, lastChecked, nextDue *time.Time) {
		comp, err := CreateComponent(ctx, database, asset.ID, name, "monthly")
		if err != nil {
			t.Fatalf("CreateComponent %q: %v", name, err)
		}
		if _, err := database.ExecContext(ctx,
			`UPDATE components SET last_checked = ?, next_due = ? WHERE id = ?`,
			lastChecked, nextDue, comp.ID,
		); err != nil {
			t.Fatalf("seeding schedule for %q: %v", name, err)
		}
	}

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -10)
	soon := now.AddDate(0, 0, 5)
	far := now.AddDate(0, 6, 0)

	seed("Never Inspected", nil, nil)
	seed("Past Due", nil, &past)
	seed("Due Soon", &past, &soon)
	seed("Far Out", nil, &far)

	ds, err := ClassifyComponents(ctx, database, now)
	if err != nil {
		t.Fatalf("ClassifyComponents: %v", err)
	}
	if len(ds.Overdue) != 2 {
		t.Errorf("expected 2 overdue components, got %d", len(ds.Overdue))
	}
	if len(ds.Upcoming) != 1 || ds.Upcoming[0].Name != "Due Soon" {
		t.Errorf("expected 'Due Soon' upcoming, got %+v", ds.Upcoming)
	}
	if len(ds.Recent) != 1 || ds.Recent[0].Name != "Due Soon" {
		t.Errorf("expected 'Due Soon' recently checked, got %+v", ds.Recent)
	}
}
