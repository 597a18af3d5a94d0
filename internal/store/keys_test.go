package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ztrcek/hisnik/internal/db"
	"github.com/ztrcek/hisnik/internal/model"
)

func holderQuantity(holders []model.Holder, holderType, name string) int {
	for _, h := range holders {
		if h.Type == holderType && model.SameName(h.Name, name) {
			return h.Quantity
		}
	}
	return 0
}

func TestRegisterKeyStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	key, err := RegisterKeyStock(ctx, database, "C5", "Maintenance Box", 3)
	if err != nil {
		t.Fatalf("RegisterKeyStock: %v", err)
	}
	if key.Name != "C5" {
		t.Errorf("expected name 'C5', got %q", key.Name)
	}
	if got := key.TotalQuantity(); got != 3 {
		t.Errorf("expected total quantity 3, got %d", got)
	}
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Maintenance Box"); got != 3 {
		t.Errorf("expected Maintenance Box to hold 3, got %d", got)
	}
}

func TestRegisterKeyStockTopUp(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RegisterKeyStock(ctx, database, "C5", "Maintenance Box", 3)

	// Different casing and padding should top up the same key and lockbox.
	key, err := RegisterKeyStock(ctx, database, " c5 ", "maintenance box", 2)
	if err != nil {
		t.Fatalf("RegisterKeyStock: %v", err)
	}
	if got := key.TotalQuantity(); got != 5 {
		t.Errorf("expected total quantity 5 after top-up, got %d", got)
	}
	if len(key.Holders) != 1 {
		t.Errorf("expected a single merged holder row, got %d", len(key.Holders))
	}

	keys, _ := ListKeys(ctx, database)
	if len(keys) != 1 {
		t.Errorf("expected 1 key, got %d", len(keys))
	}
}

func TestRegisterKeyStockValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	var verr *model.ValidationError

	if _, err := RegisterKeyStock(ctx, database, "", "Box", 1); !errors.As(err, &verr) {
		t.Errorf("expected validation error for empty key name, got %v", err)
	}
	if _, err := RegisterKeyStock(ctx, database, "C5", "", 1); !errors.As(err, &verr) {
		t.Errorf("expected validation error for empty lockbox, got %v", err)
	}
	if _, err := RegisterKeyStock(ctx, database, "C5", "Box", 0); !errors.As(err, &verr) {
		t.Errorf("expected validation error for zero quantity, got %v", err)
	}

	keys, _ := ListKeys(ctx, database)
	if len(keys) != 0 {
		t.Errorf("expected no keys after rejected registrations, got %d", len(keys))
	}
}

func TestTransferKeyCustody(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RegisterKeyStock(ctx, database, "C5", "Maintenance Box", 3)

	// Sign out 2 copies to Alice.
	key, err := TransferKeyCustody(ctx, database, "C5", model.ActionSigningOut, "Alice", "Maintenance Box", 2, "admin")
	if err != nil {
		t.Fatalf("TransferKeyCustody: %v", err)
	}
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Maintenance Box"); got != 1 {
		t.Errorf("expected Maintenance Box to hold 1, got %d", got)
	}
	if got := holderQuantity(key.Holders, model.HolderPerson, "Alice"); got != 2 {
		t.Errorf("expected Alice to hold 2, got %d", got)
	}
	if got := key.TotalQuantity(); got != 3 {
		t.Errorf("expected total quantity to stay 3, got %d", got)
	}

	// Bob wants 2 but the box only has 1 left.
	_, err = TransferKeyCustody(ctx, database, "C5", model.ActionSigningOut, "Bob", "Maintenance Box", 2, "admin")
	var iqerr *model.InsufficientQuantityError
	if !errors.As(err, &iqerr) {
		t.Fatalf("expected insufficient quantity error, got %v", err)
	}
	if iqerr.Have != 1 || iqerr.Want != 2 {
		t.Errorf("expected have=1 want=2, got have=%d want=%d", iqerr.Have, iqerr.Want)
	}

	// The rejected transfer must not have touched custody state.
	key, _ = GetKeyByName(ctx, database, "C5")
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Maintenance Box"); got != 1 {
		t.Errorf("expected Maintenance Box unchanged at 1, got %d", got)
	}
	if got := holderQuantity(key.Holders, model.HolderPerson, "Bob"); got != 0 {
		t.Errorf("expected Bob to hold nothing, got %d", got)
	}

	// Alice returns both copies; her holder row disappears.
	key, err = TransferKeyCustody(ctx, database, "C5", model.ActionSigningIn, "Alice", "Maintenance Box", 2, "admin")
	if err != nil {
		t.Fatalf("TransferKeyCustody: %v", err)
	}
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Maintenance Box"); got != 3 {
		t.Errorf("expected Maintenance Box back at 3, got %d", got)
	}
	if len(key.Holders) != 1 {
		t.Errorf("expected Alice's drained holder row removed, got %d holders", len(key.Holders))
	}

	// Both completed transfers are in the log, newest first.
	logs, _ := ListKeyLogs(ctx, database, "C5", 0)
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].Action != model.ActionSigningIn || logs[1].Action != model.ActionSigningOut {
		t.Errorf("expected newest-first log ordering, got %q then %q", logs[0].Action, logs[1].Action)
	}
	if logs[0].SubmittedBy != "admin" {
		t.Errorf("expected submitted_by 'admin', got %q", logs[0].SubmittedBy)
	}
}

func TestTransferKeyCustodyCaseInsensitive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RegisterKeyStock(ctx, database, "C5", "Maintenance Box", 2)

	key, err := TransferKeyCustody(ctx, database, "c5", model.ActionSigningOut, "Alice", "MAINTENANCE BOX", 1, "admin")
	if err != nil {
		t.Fatalf("TransferKeyCustody: %v", err)
	}
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Maintenance Box"); got != 1 {
		t.Errorf("expected Maintenance Box to hold 1, got %d", got)
	}
}

func TestTransferKeyCustodyUnknownKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := TransferKeyCustody(ctx, database, "Nope", model.ActionSigningOut, "Alice", "Box", 1, "admin")
	if !errors.Is(err, model.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestTransferKeyCustodyInvalidAction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RegisterKeyStock(ctx, database, "C5", "Box", 1)

	var verr *model.ValidationError
	if _, err := TransferKeyCustody(ctx, database, "C5", "Borrowing", "Alice", "Box", 1, "admin"); !errors.As(err, &verr) {
		t.Errorf("expected validation error for unknown action, got %v", err)
	}
}

func TestTransferSucceedsWhenLogWriteFails(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RegisterKeyStock(ctx, database, "C5", "Box", 3)

	// Break the audit log. The custody change must still go through.
	if _, err := database.ExecContext(ctx, `DROP TABLE key_logs`); err != nil {
		t.Fatalf("dropping key_logs: %v", err)
	}

	key, err := TransferKeyCustody(ctx, database, "C5", model.ActionSigningOut, "Alice", "Box", 1, "admin")
	if err != nil {
		t.Fatalf("TransferKeyCustody: %v", err)
	}
	if got := holderQuantity(key.Holders, model.HolderPerson, "Alice"); got != 1 {
		t.Errorf("expected Alice to hold 1, got %d", got)
	}
}

func TestConsolidateLegacyKeys(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Legacy imports created one key row per physical unit, so seed
	// duplicates directly.
	seed := func(name, lockbox string, quantity int) {
		res, err := database.ExecContext(ctx, `INSERT INTO keys (name, restricted) VALUES (?, 0)`, name)
		if err != nil {
			t.Fatalf("seeding key %q: %v", name, err)
		}
		id, _ := res.LastInsertId()
		_, err = database.ExecContext(ctx,
			`INSERT INTO key_holders (key_id, holder_type, holder_name, quantity) VALUES (?, ?, ?, ?)`,
			id, model.HolderLockbox, lockbox, quantity,
		)
		if err != nil {
			t.Fatalf("seeding holder for %q: %v", name, err)
		}
	}

	seed("C5", "Maintenance Box", 1)
	seed("c5", "Maintenance Box", 1)
	seed(" C5 ", "Spare Box", 1)
	seed("B2", "Maintenance Box", 1)

	merged, err := ConsolidateLegacyKeys(ctx, database)
	if err != nil {
		t.Fatalf("ConsolidateLegacyKeys: %v", err)
	}
	if merged != 1 {
		t.Errorf("expected 1 merged group, got %d", merged)
	}

	keys, _ := ListKeys(ctx, database)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys after consolidation, got %d", len(keys))
	}

	key, _ := GetKeyByName(ctx, database, "C5")
	if key == nil {
		t.Fatal("expected consolidated C5 key")
	}
	if got := key.TotalQuantity(); got != 3 {
		t.Errorf("expected consolidated total 3, got %d", got)
	}
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Maintenance Box"); got != 2 {
		t.Errorf("expected Maintenance Box to hold 2, got %d", got)
	}
	if got := holderQuantity(key.Holders, model.HolderLockbox, "Spare Box"); got != 1 {
		t.Errorf("expected Spare Box to hold 1, got %d", got)
	}

	// Running it again finds nothing to merge.
	merged, err = ConsolidateLegacyKeys(ctx, database)
	if err != nil {
		t.Fatalf("ConsolidateLegacyKeys (second run): %v", err)
	}
	if merged != 0 {
		t.Errorf("expected idempotent second run, got %d merged groups", merged)
	}
}

func TestCreateRestrictedKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	var verr *model.ValidationError
	if _, err := CreateKey(ctx, database, "Master", true, nil); !errors.As(err, &verr) {
		t.Errorf("expected validation error for restricted key without holder, got %v", err)
	}

	key, err := CreateKey(ctx, database, "Master", true, &model.Holder{Type: model.HolderPerson, Name: "Chief"})
	if err != nil {
		t.Fatalf("CreateKey: %v", err)
	}
	if key.CurrentHolder == nil || key.CurrentHolder.Name != "Chief" {
		t.Errorf("expected current holder 'Chief', got %+v", key.CurrentHolder)
	}
}

func TestDeleteKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	key, _ := RegisterKeyStock(ctx, database, "C5", "Box", 1)
	DeleteKey(ctx, database, key.ID)

	keys, _ := ListKeys(ctx, database)
	if len(keys) != 0 {
		t.Errorf("expected 0 keys after soft delete, got %d", len(keys))
	}

	// Transfers no longer find the deleted key.
	_, err := TransferKeyCustody(ctx, database, "C5", model.ActionSigningOut, "Alice", "Box", 1, "admin")
	if !errors.Is(err, model.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound for deleted key, got %v", err)
	}
}

func TestSearchCustody(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RegisterKeyStock(ctx, database, "C5", "Maintenance Box", 3)
	TransferKeyCustody(ctx, database, "C5", model.ActionSigningOut, "Alice", "Maintenance Box", 2, "admin")

	result, err := SearchCustody(ctx, database, "alice")
	if err != nil {
		t.Fatalf("SearchCustody: %v", err)
	}
	if len(result.Assigned) != 1 || result.Assigned[0].HolderName != "Alice" {
		t.Errorf("expected Alice in assigned results, got %+v", result.Assigned)
	}
	if len(result.Logs) != 1 {
		t.Errorf("expected 1 matching log entry, got %d", len(result.Logs))
	}

	result, _ = SearchCustody(ctx, database, "maintenance")
	if len(result.Lockboxes) != 1 {
		t.Errorf("expected 1 lockbox holding, got %d", len(result.Lockboxes))
	}

	// Empty query matches nothing.
	result, _ = SearchCustody(ctx, database, "  ")
	if len(result.Assigned) != 0 || len(result.Lockboxes) != 0 || len(result.Logs) != 0 {
		t.Errorf("expected empty result for blank query, got %+v", result)
	}
}
