package middleware_test

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/paradigm/pkg/adapters/memory"
	"github.com/aretw0/paradigm/pkg/domain"
	"github.com/aretw0/paradigm/pkg/persistence/middleware"
	"github.com/aretw0/paradigm/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.TrialStore, cfg middleware.EncryptionConfig) ports.TrialStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(next)
}

func newRecord(number int, data map[string]any) *domain.TrialRecord {
	rec := domain.NewTrialRecord(domain.Trial{BlockName: "main", Factors: map[string]any{"target": 90}}, number)
	for k, v := range data {
		rec.Data[k] = v
	}
	return rec
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	if err := secure.Save(ctx, "s1", newRecord(0, map[string]any{"secret": "my-secret-sauce"})); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlying.Load(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if val, ok := stored.Data["secret"]; ok {
		t.Fatalf("Expected secret to be hidden, found: %v", val)
	}
	if _, ok := stored.Data[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected envelope field in stored data")
	}
	if stored.Trial.Factors["target"] != 90 {
		t.Errorf("Expected trial factors to stay readable, got %v", stored.Trial.Factors)
	}

	loaded, err := secure.Load(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Data["secret"] != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", loaded.Data["secret"])
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	if err := oldStore.Save(ctx, "s1", newRecord(0, map[string]any{"data": "old"})); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	newStore := encrypted(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Data["data"] != "old" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded.Data["data"] = "new"
	if err := newStore.Save(ctx, "s1", loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}
	if _, err := oldStore.Load(ctx, "s1", 0); err == nil {
		t.Error("Expected failure when loading new-key data with the old key only")
	}
}

func TestEncryptionMiddleware_MissingEnvelope(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	if err := underlying.Save(ctx, "s1", newRecord(0, map[string]any{"plain": true})); err != nil {
		t.Fatal(err)
	}

	secure := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secure.Load(ctx, "s1", 0); err == nil {
		t.Error("Expected plain records to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	if !errors.Is(err, middleware.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if !errors.Is(err, middleware.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey for fallback, got %v", err)
	}
}

func TestChain_Contract(t *testing.T) {
	pii, err := middleware.NewPIIMiddleware([]string{"participant"})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	ports.RunTrialStoreContract(t, middleware.Chain(memory.NewStore(), pii, enc))
}
