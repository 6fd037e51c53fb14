//go:build integration

package verification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "landq/internal/platform/redis"
	"landq/pkg/testutil/containers"
)

func TestProjectionRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	proj := NewProjection(&platformredis.Client{Client: rc.Client})

	// Miss before any write.
	view, err := proj.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, view)

	want := &ParcelView{TokenID: 7, Status: "verified", AppraisedPrice: "500000000"}
	require.NoError(t, proj.Set(ctx, want))

	got, err := proj.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)

	// Invalidation drops the entry; the next read is a miss again.
	require.NoError(t, proj.Invalidate(ctx, 7))
	got, err = proj.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProjectionNilDisablesCaching(t *testing.T) {
	var proj *Projection

	view, err := proj.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, view)
	require.NoError(t, proj.Set(context.Background(), &ParcelView{TokenID: 1}))
	require.NoError(t, proj.Invalidate(context.Background(), 1))
}
