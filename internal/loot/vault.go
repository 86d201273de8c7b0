// Package loot implements the encrypted store for credentials recovered
// during an assessment. Entries are encrypted with AES-256-GCM under a
// master key derived from the operator passphrase via Argon2id.
package loot

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
)

const (
	VaultFileName = "talon.loot"

	argonMemory  = 64 * 1024
	argonTime    = 3
	argonThreads = 4
	argonKeyLen  = 32

	saltLen  = 32
	nonceLen = 12 // AES-256-GCM standard nonce size
)

// Credential is one recovered credential pair with its provenance.
type Credential struct {
	Service  string    `json:"service"` // ssh, ftp, http, ...
	Host     string    `json:"host"`
	Port     int       `json:"port"`
	User     string    `json:"user"`
	Password string    `json:"password"`
	ModuleID string    `json:"module_id"`
	FoundAt  time.Time `json:"found_at"`
}

// Key returns the vault key for this credential.
func (c Credential) Key() string {
	return fmt.Sprintf("%s://%s:%d/%s", c.Service, c.Host, c.Port, c.User)
}

// entry is a single encrypted record in the vault.
type entry struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// vaultFile is the on-disk representation.
type vaultFile struct {
	Salt    []byte            `json:"salt"`
	Entries map[string]*entry `json:"entries"`
}

// Vault manages encrypted credential storage.
type Vault struct {
	mu        sync.RWMutex
	masterKey []byte // 256-bit derived key, held in memory only
	salt      []byte
	entries   map[string]*entry
	path      string
	dirty     bool
}

// DeriveKey derives a 256-bit master key from a passphrase and salt using Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		argonTime,
		argonMemory,
		argonThreads,
		argonKeyLen,
	)
}

// Create initializes a new vault with a fresh salt and passphrase-derived master key.
func Create(path string, passphrase string) (*Vault, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	v := &Vault{
		masterKey: DeriveKey(passphrase, salt),
		salt:      salt,
		entries:   make(map[string]*entry),
		path:      path,
		dirty:     true,
	}

	if err := v.flush(); err != nil {
		return nil, err
	}
	return v, nil
}

// Open loads an existing vault file and unlocks it with the given passphrase.
func Open(path string, passphrase string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vault file: %w", err)
	}

	var vf vaultFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parsing vault file: %w", err)
	}

	mk := DeriveKey(passphrase, vf.Salt)

	// A hand-edited or truncated file may omit the entries object.
	if vf.Entries == nil {
		vf.Entries = make(map[string]*entry)
	}

	v := &Vault{
		masterKey: mk,
		salt:      vf.Salt,
		entries:   vf.Entries,
		path:      path,
	}

	// Validate the master key by decrypting any one entry. This catches
	// wrong passphrases early.
	for key := range vf.Entries {
		if _, err := v.Get(key); err != nil {
			for i := range mk {
				mk[i] = 0
			}
			return nil, fmt.Errorf("incorrect passphrase or corrupted vault")
		}
		break
	}

	return v, nil
}

// OpenOrCreate opens the vault at path, creating it when absent.
func OpenOrCreate(path string, passphrase string) (*Vault, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Create(path, passphrase)
	}
	return Open(path, passphrase)
}

// Put encrypts and stores a credential, replacing any prior entry for the
// same service/host/user.
func (v *Vault) Put(c Credential) error {
	plaintext, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializing credential: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	key := c.Key()

	block, err := aes.NewCipher(v.masterKey)
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	v.entries[key] = &entry{
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, []byte(key)), // key as AAD
	}
	v.dirty = true
	return nil
}

// Get decrypts and returns the credential stored under the given key.
func (v *Vault) Get(key string) (Credential, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	e, ok := v.entries[key]
	if !ok {
		return Credential{}, fmt.Errorf("loot key not found: %s", key)
	}

	block, err := aes.NewCipher(v.masterKey)
	if err != nil {
		return Credential{}, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Credential{}, fmt.Errorf("creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, e.Nonce, e.Ciphertext, []byte(key))
	if err != nil {
		return Credential{}, fmt.Errorf("decrypting loot entry: %w", err)
	}

	var c Credential
	if err := json.Unmarshal(plaintext, &c); err != nil {
		return Credential{}, fmt.Errorf("parsing loot entry: %w", err)
	}
	return c, nil
}

// Keys returns all vault key names in sorted order.
func (v *Vault) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.entries))
	for k := range v.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save persists the vault to disk.
func (v *Vault) Save() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flush()
}

func (v *Vault) flush() error {
	if v.path == "" || !v.dirty {
		return nil
	}

	vf := vaultFile{
		Salt:    v.salt,
		Entries: v.entries,
	}

	data, err := json.Marshal(vf)
	if err != nil {
		return fmt.Errorf("marshaling vault: %w", err)
	}

	if err := os.WriteFile(v.path, data, 0600); err != nil {
		return fmt.Errorf("writing vault file: %w", err)
	}

	v.dirty = false
	return nil
}

// Close zeroes the master key and flushes pending writes.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	err := v.flush()

	for i := range v.masterKey {
		v.masterKey[i] = 0
	}

	return err
}

// HashSecret returns a redaction-safe hash prefix for a secret value.
// Format: sha256:<first-8-chars-of-hex-hash>
func HashSecret(secret []byte) string {
	h := sha256.Sum256(secret)
	return "sha256:" + hex.EncodeToString(h[:])[:8]
}
