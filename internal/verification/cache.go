package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "landq/internal/platform/redis"
)

// projectionTTL bounds how long a recomputed view may serve reads before the
// ledger is consulted again even without an intervening write.
const projectionTTL = 5 * time.Minute

// Projection caches ParcelView read models in redis. It is a pure projection
// of ledger state: populated only by recompute-on-miss, dropped after every
// confirmed write, never mutated in place. A nil Projection (redis not
// configured) disables caching and every read recomputes.
type Projection struct {
	rdb *platformredis.Client
}

// NewProjection wraps the redis client; client may be nil.
func NewProjection(client *platformredis.Client) *Projection {
	if client == nil {
		return nil
	}
	return &Projection{rdb: client}
}

func projectionKey(tokenID uint64) string {
	return fmt.Sprintf("parcel:view:%d", tokenID)
}

// Get returns the cached view or nil on miss.
func (p *Projection) Get(ctx context.Context, tokenID uint64) (*ParcelView, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := p.rdb.Get(ctx, projectionKey(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("projection get: %w", err)
	}
	var view ParcelView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("projection decode: %w", err)
	}
	return &view, nil
}

// Set stores a freshly recomputed view.
func (p *Projection) Set(ctx context.Context, view *ParcelView) error {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("projection encode: %w", err)
	}
	if err := p.rdb.Set(ctx, projectionKey(view.TokenID), raw, projectionTTL).Err(); err != nil {
		return fmt.Errorf("projection set: %w", err)
	}
	return nil
}

// Invalidate drops the cached view after a confirmed write so the next read
// recomputes from the ledger.
func (p *Projection) Invalidate(ctx context.Context, tokenID uint64) error {
	if p == nil {
		return nil
	}
	if err := p.rdb.Del(ctx, projectionKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("projection invalidate: %w", err)
	}
	return nil
}
