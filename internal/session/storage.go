package session

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

// ErrWrongPassphrase is returned when an encrypted session cannot be opened.
var ErrWrongPassphrase = errors.New("session file cannot be decrypted with this passphrase")

// MemoryStorage keeps the token in memory only.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStorage returns storage that starts with token (may be "").
func NewMemoryStorage(token string) *MemoryStorage {
	return &MemoryStorage{token: token}
}

func (m *MemoryStorage) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear() error {
	return m.Save("")
}

// fileRecord is the on-disk session document.
type fileRecord struct {
	Token   string    `json:"token,omitempty"`
	Sealed  string    `json:"sealed,omitempty"`
	Salt    string    `json:"salt,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStorage keeps the token in a JSON file readable only by the user.
// With a passphrase the token is sealed with AES-GCM under a PBKDF2 key.
type FileStorage struct {
	path       string
	passphrase string
}

// NewFileStorage stores the token in plain JSON at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// NewEncryptedFileStorage stores the token sealed with passphrase.
func NewEncryptedFileStorage(path, passphrase string) *FileStorage {
	return &FileStorage{path: path, passphrase: passphrase}
}

// Path returns the session file location.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("parse session file: %w", err)
	}

	if rec.Sealed == "" {
		return rec.Token, nil
	}
	if f.passphrase == "" {
		return "", ErrWrongPassphrase
	}
	return open(rec, f.passphrase)
}

func (f *FileStorage) Save(token string) error {
	rec := fileRecord{SavedAt: time.Now().UTC()}
	if f.passphrase == "" {
		rec.Token = token
	} else {
		sealed, err := seal(token, f.passphrase)
		if err != nil {
			return err
		}
		rec = sealed
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

const (
	saltSize   = 16
	iterations = 100000
	keySize    = 32
)

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(token, passphrase string) (fileRecord, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fileRecord{}, err
	}
	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return fileRecord{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fileRecord{}, err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(token), nil)
	return fileRecord{
		Sealed:  base64.StdEncoding.EncodeToString(ciphertext),
		Salt:    base64.StdEncoding.EncodeToString(salt),
		SavedAt: time.Now().UTC(),
	}, nil
}

func open(rec fileRecord, passphrase string) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(rec.Sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed token: %w", err)
	}
	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrWrongPassphrase
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrWrongPassphrase
	}
	return string(plain), nil
}
