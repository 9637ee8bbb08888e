package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"filippo.io/age"
)

// ErrSecretNotFound is returned when a named secret does not exist.
var ErrSecretNotFound = fmt.Errorf("secret not found")

// Vault is a named-secret store. Values are encrypted at rest in a JSON
// file mapping name to ENC[age:...] blob.
type Vault struct {
	mu       sync.Mutex
	filePath string
	identity *age.X25519Identity
}

// OpenVault loads the identity at keyPath (creating it if missing) and
// returns a vault backed by filePath.
func OpenVault(filePath, keyPath string) (*Vault, error) {
	if _, err := GenerateIdentity(keyPath); err != nil {
		return nil, err
	}
	identity, err := LoadIdentity(keyPath)
	if err != nil {
		return nil, err
	}
	return &Vault{filePath: filePath, identity: identity}, nil
}

// Set encrypts and stores a secret under name, replacing any previous value.
func (v *Vault) Set(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	blobs, err := v.load()
	if err != nil {
		return err
	}

	blob, err := Encrypt(value, v.identity.Recipient())
	if err != nil {
		return fmt.Errorf("encrypt secret %q: %w", name, err)
	}
	blobs[name] = blob

	return v.save(blobs)
}

// Get decrypts and returns the secret stored under name.
func (v *Vault) Get(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	blobs, err := v.load()
	if err != nil {
		return "", err
	}

	blob, ok := blobs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	plain, err := Decrypt(blob, v.identity)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %q: %w", name, err)
	}
	return plain, nil
}

// Delete removes a secret. Deleting a missing name is an error.
func (v *Vault) Delete(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	blobs, err := v.load()
	if err != nil {
		return err
	}
	if _, ok := blobs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	delete(blobs, name)

	return v.save(blobs)
}

// List returns the stored secret names, sorted. Values are never exposed.
func (v *Vault) List() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	blobs, err := v.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (v *Vault) load() (map[string]string, error) {
	data, err := os.ReadFile(v.filePath)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}

	blobs := map[string]string{}
	if err := json.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}
	return blobs, nil
}

func (v *Vault) save(blobs map[string]string) error {
	data, err := json.MarshalIndent(blobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.filePath), 0o755); err != nil {
		return fmt.Errorf("create secrets directory: %w", err)
	}

	tmp := v.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write secrets file: %w", err)
	}
	if err := os.Rename(tmp, v.filePath); err != nil {
		return fmt.Errorf("replace secrets file: %w", err)
	}
	return nil
}
