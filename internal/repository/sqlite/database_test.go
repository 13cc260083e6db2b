package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"aegis/backend/internal/repository"
	"aegis/backend/internal/repository/storetest"
)

func newTestLedger(t *testing.T) repository.Ledger {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.Ledger()
}

func TestLedgerSuite(t *testing.T) {
	storetest.Run(t, newTestLedger)
}

func TestReopenKeepsLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bot := storetest.MustBot(t, db.Ledger(), "alpha")
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.Ledger().Bots.GetByName(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("GetByName after reopen: %v", err)
	}
	if got.BotID != bot.BotID {
		t.Errorf("bot id = %d, want %d", got.BotID, bot.BotID)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
