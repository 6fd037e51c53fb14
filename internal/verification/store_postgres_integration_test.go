//go:build integration

package verification

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landq/pkg/platform/sentinel"
	"landq/pkg/testutil/containers"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	_, err := pg.DB.ExecContext(ctx, Schema)
	require.NoError(t, err)

	store := NewPostgres(pg.DB)

	requestedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Fee wide enough to overflow int64; the NUMERIC(78,0) column must carry it.
	fee, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	rec := &Request{
		TokenID:     1,
		Requester:   "0x00000000000000000000000000000000000000FE",
		Region:      "Lagos",
		Agency:      "0x00000000000000000000000000000000000000AA",
		Fee:         fee,
		MetadataURI: "ipfs://QmMeta",
		Status:      StatusPending,
		RequestedAt: requestedAt,
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, rec.Region, got.Region)
	assert.Equal(t, fee, got.Fee)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.VerifiedAt)
	assert.True(t, got.RequestedAt.Equal(requestedAt))

	// Upsert replaces in place.
	rec.Region = "Abuja"
	require.NoError(t, store.Save(ctx, rec))
	got, err = store.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Abuja", got.Region)

	// Transition to verified.
	verifiedAt := requestedAt.Add(48 * time.Hour)
	require.NoError(t, store.MarkVerified(ctx, 1, verifiedAt))
	got, err = store.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)
	require.NotNil(t, got.VerifiedAt)
	assert.True(t, got.VerifiedAt.Equal(verifiedAt))
}

func TestPostgresStoreMissing(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	_, err := pg.DB.ExecContext(ctx, Schema)
	require.NoError(t, err)

	store := NewPostgres(pg.DB)

	_, err = store.Find(ctx, 404)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.MarkVerified(ctx, 404, time.Now()), sentinel.ErrNotFound)
}
