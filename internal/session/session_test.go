package session

import (
	"path/filepath"
	"testing"
)

func TestParamsSetGet(t *testing.T) {
	p := NewParams()

	if _, ok := p.Get("host"); ok {
		t.Error("expected empty store to have no values")
	}

	p.Set("host", "10.0.0.5")
	v, ok := p.Get("host")
	if !ok || v != "10.0.0.5" {
		t.Errorf("Get(host) = %v, %v", v, ok)
	}

	// Overwrite
	p.Set("host", "10.0.0.6")
	v, _ = p.Get("host")
	if v != "10.0.0.6" {
		t.Errorf("expected overwrite, got %v", v)
	}
}

func TestParamsZeroValuesPresent(t *testing.T) {
	p := NewParams()
	p.Set("delay", 0)
	p.Set("verbose", false)

	if v, ok := p.Get("delay"); !ok || v != 0 {
		t.Errorf("zero int default lost: %v, %v", v, ok)
	}
	if v, ok := p.Get("verbose"); !ok || v != false {
		t.Errorf("false bool default lost: %v, %v", v, ok)
	}
}

func TestParamsEnvIsCopy(t *testing.T) {
	p := NewParams()
	p.Set("a", 1)

	env := p.Env()
	env["b"] = 2

	if _, ok := p.Get("b"); ok {
		t.Error("mutating Env() copy must not affect the store")
	}
}

func TestParamsUnsetAndNames(t *testing.T) {
	p := NewParams()
	p.Set("b", 1)
	p.Set("a", 2)
	p.Unset("missing") // no-op

	names := p.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", names)
	}

	p.Unset("a")
	if _, ok := p.Get("a"); ok {
		t.Error("expected a to be removed")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	s := NewStore()
	s.Record("talon.ssh.login-brute", map[string]any{
		"valid_pairs": []any{"root:toor"},
	})
	s.Record("talon.tcp.banner-grab", map[string]any{
		"banner": "SSH-2.0-OpenSSH_9.6",
	})

	if err := s.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded := NewStore()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if loaded.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", loaded.Len())
	}
	entry, ok := loaded.Data()["talon.tcp.banner-grab"].(map[string]any)
	if !ok || entry["banner"] != "SSH-2.0-OpenSSH_9.6" {
		t.Errorf("unexpected entry after round trip: %v", loaded.Data())
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := NewStore()
	if err := s.LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
