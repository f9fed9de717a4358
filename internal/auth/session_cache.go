package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// PersistedSession is the identity state written to disk between runs. The ID
// token itself is short-lived and never persisted; the refresh token is
// enough to restore a session.
type PersistedSession struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// SessionCache stores the persisted session.
type SessionCache interface {
	// Load returns the stored session, or nil when none exists.
	Load() (*PersistedSession, error)

	// Save stores the session.
	Save(session *PersistedSession) error

	// Clear removes any stored session.
	Clear() error
}

// FileSessionCache keeps the session encrypted on disk so the CLI stays
// signed in across invocations.
type FileSessionCache struct {
	cacheFile  string
	encryptKey []byte
	mu         sync.Mutex
}

// NewFileSessionCache creates a session cache under the given directory.
func NewFileSessionCache(dir string) (*FileSessionCache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &FileSessionCache{
		cacheFile:  filepath.Join(dir, ".session"),
		encryptKey: deriveEncryptionKey(),
	}, nil
}

// Load returns the stored session, or nil when none exists.
func (c *FileSessionCache) Load() (*PersistedSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	decrypted, err := c.decrypt(data)
	if err != nil {
		// An unreadable session file (e.g. written on another machine)
		// is treated as signed out rather than a hard failure.
		return nil, nil
	}

	var session PersistedSession
	if err := json.Unmarshal(decrypted, &session); err != nil {
		return nil, nil
	}
	if session.RefreshToken == "" {
		return nil, nil
	}
	return &session, nil
}

// Save stores the session with restricted file permissions.
func (c *FileSessionCache) Save(session *PersistedSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	encrypted, err := c.encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	if err := os.WriteFile(c.cacheFile, encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (c *FileSessionCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.cacheFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (c *FileSessionCache) encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.encryptKey)
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

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (c *FileSessionCache) decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(c.encryptKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// deriveEncryptionKey derives a machine-specific key so the session file is
// not portable between machines or users.
func deriveEncryptionKey() []byte {
	hostname, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME") // Windows
	}

	hash := sha256.Sum256([]byte(fmt.Sprintf("mokomoko-cli:%s:%s", hostname, user)))
	return hash[:]
}

// MemorySessionCache is an in-memory session cache for tests.
type MemorySessionCache struct {
	mu      sync.Mutex
	session *PersistedSession
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{}
}

func (c *MemorySessionCache) Load() (*PersistedSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	copy := *c.session
	return &copy, nil
}

func (c *MemorySessionCache) Save(session *PersistedSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy := *session
	c.session = &copy
	return nil
}

func (c *MemorySessionCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	return nil
}
