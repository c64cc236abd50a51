package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	storeVersion    = 1
	saltSize        = 32
	keySize         = 32
	kdfIterations   = 100000
	passphraseFile  = ".passphrase"
	passphraseBytes = 32
)

// storeFile is the on-disk envelope. Salt is regenerated on every save, so
// the ciphertext never repeats even for identical account sets.
type storeFile struct {
	Version  int       `json:"version"`
	Salt     string    `json:"salt"`
	Payload  string    `json:"payload"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore implements CredentialStore on a single AES-GCM sealed
// file. The key is derived per save from a passphrase (DCEXPORT_PASSPHRASE,
// or a generated file next to the store) and a fresh salt.
type EncryptedFileStore struct {
	path       string
	passphrase []byte
	mu         sync.RWMutex
}

// NewEncryptedFileStore creates a new encrypted file-based credential store
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := resolvePassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{path: filePath, passphrase: passphrase}, nil
}

// Store saves a credential to the encrypted file
func (e *EncryptedFileStore) Store(account *Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if account == nil || account.Label == "" {
		return ErrInvalidCredentials
	}

	accounts, err := e.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	if accounts == nil {
		accounts = make(map[string]Account)
	}

	accounts[account.Label] = *account
	return e.save(accounts)
}

// Retrieve gets a credential from the encrypted file
func (e *EncryptedFileStore) Retrieve(label string) (*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if label == "" {
		return nil, ErrInvalidCredentials
	}

	accounts, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	account, ok := accounts[label]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns all stored credentials
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*Account{}, nil
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	out := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		acc := account
		out = append(out, &acc)
	}
	return out, nil
}

// Delete removes a credential from the encrypted file
func (e *EncryptedFileStore) Delete(label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if label == "" {
		return ErrInvalidCredentials
	}

	accounts, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to load data: %w", err)
	}

	if _, ok := accounts[label]; !ok {
		return ErrCredentialsNotFound
	}
	delete(accounts, label)

	// Last credential gone: remove the store rather than keep an empty file
	if len(accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.save(accounts)
}

// Exists checks if a credential exists
func (e *EncryptedFileStore) Exists(label string) bool {
	account, err := e.Retrieve(label)
	return err == nil && account != nil
}

func (e *EncryptedFileStore) load() (map[string]Account, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var envelope storeFile
	if err := json.Unmarshal(content, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(envelope.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	plaintext, err := open(sealed, e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	var accounts map[string]Account
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

func (e *EncryptedFileStore) save(accounts map[string]Account) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	sealed, err := seal(plaintext, e.deriveKey(salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	envelope := storeFile{
		Version:  storeVersion,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Payload:  base64.StdEncoding.EncodeToString(sealed),
		Modified: time.Now(),
	}

	content, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	// Write-then-rename keeps a crash from corrupting the store
	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedFileStore) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(e.passphrase, salt, kdfIterations, keySize, sha256.New)
}

// resolvePassphrase prefers the environment, then a previously generated
// passphrase file, and finally generates and persists a fresh one.
func resolvePassphrase() ([]byte, error) {
	if pass := os.Getenv("DCEXPORT_PASSPHRASE"); pass != "" {
		return []byte(pass), nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(configDir, passphraseFile)

	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return content, nil
	}

	raw := make([]byte, passphraseBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := []byte(base64.URLEncoding.EncodeToString(raw))

	if err := os.WriteFile(path, passphrase, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

// seal encrypts plaintext with AES-GCM, prefixing the nonce
func seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open reverses seal
func open(sealed, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("sealed payload too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
