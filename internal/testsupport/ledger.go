package testsupport

import (
	"testing"

	"ministory/internal/config"
	"ministory/internal/regen"
	"ministory/internal/session"
)

// MustOpenLedger opens the generation ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *regen.Ledger {
	t.Helper()

	ledger, err := regen.OpenLedger(cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("regen.OpenLedger: %v", err)
	}
	t.Cleanup(func() {
		_ = ledger.Close()
	})
	return ledger
}

// MustCreateSession creates a session for tests using the provided config.
func MustCreateSession(t testing.TB, cfg *config.Config, projectName string) *session.Session {
	t.Helper()

	sess, err := session.NewManager(cfg.Paths.SessionsDir).Create(projectName)
	if err != nil {
		t.Fatalf("session.Create: %v", err)
	}
	return sess
}
