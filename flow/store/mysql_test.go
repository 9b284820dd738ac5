package store

import (
	"os"
	"testing"
)

// TestMySQLStore runs the shared store suite against a real MySQL server.
// Set MYSQL_TEST_DSN to run, e.g.:
//
//	MYSQL_TEST_DSN="user:pass@tcp(localhost:3306)/routilux_test?parseTime=true" go test ./flow/store/
func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set; skipping MySQL integration test")
	}

	st, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore failed: %v", err)
	}
	defer func() { _ = st.Close() }()

	testStoreSuite(t, st)
}

func TestMySQLStore_InvalidDSN(t *testing.T) {
	if _, err := NewMySQLStore("not-a-dsn"); err == nil {
		t.Error("expected error for malformed DSN")
	}
}
