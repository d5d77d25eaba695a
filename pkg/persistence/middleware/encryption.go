package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
	"github.com/goccy/go-json"
)

// ErrNotSealed is returned when an encrypting store loads a plain session.
var ErrNotSealed = errors.New("session is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// so keys can be rotated without losing existing sessions.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals sessions with
// AES-GCM. Only the ID and run counter stay readable in the backing store.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes (AES-256), got %d", i, len(k))
		}
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

// ParseKeys decodes a comma-separated list of base64 keys, active first.
func ParseKeys(s string) (EncryptionConfig, error) {
	var cfg EncryptionConfig
	for i, part := range strings.Split(s, ",") {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(part))
		if err != nil {
			return EncryptionConfig{}, fmt.Errorf("key %d: %w", i, err)
		}
		if i == 0 {
			cfg.ActiveKey = key
		} else {
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
	}
	return cfg, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, session *domain.Session) error {
	plainText, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	envelope := &domain.Session{
		ID:        session.ID,
		Runs:      session.Runs,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Sealed:    ciphertext,
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(envelope.Sealed) == 0 {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotSealed)
	}

	plainText, err := decryptWithRotation(envelope.Sealed, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(plainText, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}
	session.Normalize()
	return &session, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
