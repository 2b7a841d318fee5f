package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"

	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/ports"
)

// EnvelopeKey is the Data key holding the encrypted payload of a stored record.
const EnvelopeKey = "__encrypted__"

// ErrInvalidKey is returned for keys that are not 32 bytes long.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new records. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt a record,
	// so keys can be rotated without rewriting stored sessions.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.TrialStore
	config EncryptionConfig
}

// NewEncryptionMiddleware encrypts the measured data of every record with AES-GCM.
// The trial template, numbering and state stamps stay readable for indexing.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, ErrInvalidKey
		}
	}
	return func(next ports.TrialStore) ports.TrialStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, rec *domain.TrialRecord) error {
	plainText, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal trial data: %w", err)
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt trial data: %w", err)
	}

	envelope := *rec
	envelope.Trial.Factors = maps.Clone(rec.Trial.Factors)
	envelope.Data = map[string]any{
		EnvelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Save(ctx, sessionID, &envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string, trialNumber int) (*domain.TrialRecord, error) {
	rec, err := m.next.Load(ctx, sessionID, trialNumber)
	if err != nil {
		return nil, err
	}

	encoded, ok := rec.Data[EnvelopeKey].(string)
	if !ok {
		return nil, errors.New("trial record is missing its encrypted data envelope")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt trial data: %w", err)
	}

	data := make(map[string]any)
	if err := json.Unmarshal(plainText, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted data: %w", err)
	}
	rec.Data = data
	return rec, nil
}

func (m *encryptionMiddleware) Trials(ctx context.Context, sessionID string) ([]int, error) {
	return m.next.Trials(ctx, sessionID)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	if l := listAll(m.next); l != nil {
		return l.List(ctx)
	}
	return nil, fmt.Errorf("wrapped store cannot list sessions")
}

func encrypt(plaintext, key []byte) ([]byte, error) {
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

func decryptWithRotation(ciphertext, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
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
