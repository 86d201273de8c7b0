package loot

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testCred() Credential {
	return Credential{
		Service:  "ssh",
		Host:     "10.0.0.5",
		Port:     22,
		User:     "root",
		Password: "toor",
		ModuleID: "talon.ssh.login-brute",
		FoundAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)
	v, err := Create(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer v.Close()

	cred := testCred()
	if err := v.Put(cred); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := v.Get(cred.Key())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Password != "toor" || got.User != "root" || got.Service != "ssh" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestReopenWithCorrectPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)

	v, err := Create(path, "pass1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cred := testCred()
	v.Put(cred)
	if err := v.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, "pass1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(cred.Key())
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Password != "toor" {
		t.Errorf("unexpected credential after reopen: %+v", got)
	}
}

func TestWrongPassphraseRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)

	v, _ := Create(path, "pass1")
	v.Put(testCred())
	v.Close()

	if _, err := Open(path, "wrong"); err == nil {
		t.Error("expected wrong passphrase to be rejected")
	}
}

func TestKeysSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)
	v, _ := Create(path, "p")
	defer v.Close()

	b := testCred()
	b.Host = "10.0.0.9"
	v.Put(b)
	v.Put(testCred())

	keys := v.Keys()
	if len(keys) != 2 || keys[0] > keys[1] {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestOpenFileWithoutEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), VaultFileName)

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		t.Fatalf("generating salt: %v", err)
	}
	raw, _ := json.Marshal(map[string]any{"salt": salt})
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatalf("writing vault file: %v", err)
	}

	v, err := Open(path, "p")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer v.Close()

	if err := v.Put(testCred()); err != nil {
		t.Fatalf("Put into vault opened without entries: %v", err)
	}
}

func TestHashSecret(t *testing.T) {
	h := HashSecret([]byte("toor"))
	if len(h) != len("sha256:")+8 {
		t.Errorf("unexpected hash format: %s", h)
	}
}
