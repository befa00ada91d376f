package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/shared"
)

// reverseCipher is a reversible stand-in for the real credential cipher
type reverseCipher struct {
	fail bool
}

func (c reverseCipher) Encrypt(plaintext string) (string, error) {
	if c.fail {
		return "", errors.New("cipher unavailable")
	}
	return "enc:" + reverse(plaintext), nil
}

func (c reverseCipher) Decrypt(ciphertext string) (string, error) {
	return reverse(strings.TrimPrefix(ciphertext, "enc:")), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func TestStoreService_RegisterEncryptsCredentials(t *testing.T) {
	f := newFixture()
	svc := NewStoreService(f.stores, reverseCipher{}, nil)

	resp, err := svc.Register(context.Background(), f.companyID, RegisterStoreRequest{
		Name:           "Main shop",
		URL:            "Shop.Example.com/",
		ConsumerKey:    "ck_123",
		ConsumerSecret: "cs_456",
		SyncAPIKey:     "key",
		SyncAPISecret:  "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", resp.URL)
	assert.True(t, resp.HasCommerceCredentials)
	assert.True(t, resp.SyncEnabled)

	stored, err := f.stores.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "enc:321_kc", stored.ConsumerKey)
	assert.Equal(t, "enc:terces", stored.SyncAPISecret)
}

func TestStoreService_RegisterValidation(t *testing.T) {
	f := newFixture()
	svc := NewStoreService(f.stores, reverseCipher{}, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, f.companyID, RegisterStoreRequest{Name: "Shop", URL: "ftp://shop.example.com"})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_STORE_URL", domainErr.Code)

	_, err = svc.Register(ctx, f.companyID, RegisterStoreRequest{Name: "Shop", URL: "https://shop.example.com", SyncAPIKey: "only-key"})
	assert.ErrorIs(t, err, integration.ErrIncompleteCredentials)

	svcFailing := NewStoreService(f.stores, reverseCipher{fail: true}, nil)
	_, err = svcFailing.Register(ctx, f.companyID, RegisterStoreRequest{Name: "Shop", URL: "https://shop.example.com", ConsumerKey: "a", ConsumerSecret: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encrypt")
}

func TestStoreService_RotateCredentials(t *testing.T) {
	f := newFixture()
	store, _ := f.addStore(t, "Shop", "https://shop.example.com", true)
	svc := NewStoreService(f.stores, reverseCipher{}, nil)
	ctx := context.Background()

	empty := ""
	resp, err := svc.RotateCredentials(ctx, f.companyID, store.ID, RotateCredentialsRequest{
		SyncAPIKey:    &empty,
		SyncAPISecret: &empty,
	})
	require.NoError(t, err)
	assert.False(t, resp.SyncEnabled)

	key, secret := "ck", "cs"
	resp, err = svc.RotateCredentials(ctx, f.companyID, store.ID, RotateCredentialsRequest{
		ConsumerKey:    &key,
		ConsumerSecret: &secret,
	})
	require.NoError(t, err)
	assert.True(t, resp.HasCommerceCredentials)
	assert.False(t, resp.SyncEnabled)

	_, err = svc.RotateCredentials(ctx, uuid.New(), store.ID, RotateCredentialsRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStoreService_ListGetDelete(t *testing.T) {
	f := newFixture()
	a, _ := f.addStore(t, "A", "https://a.example.com", false)
	f.addStore(t, "B", "https://b.example.com", false)
	svc := NewStoreService(f.stores, reverseCipher{}, nil)
	ctx := context.Background()

	list, err := svc.List(ctx, f.companyID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	got, err := svc.Get(ctx, f.companyID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), a.ID), shared.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, f.companyID, a.ID))

	list, err = svc.List(ctx, f.companyID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
