package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bloom-portal/internal/builder"
	"bloom-portal/internal/config"

	"github.com/benbjohnson/clock"
	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
)

const draftKeyPrefix = "builder:draft:"

// draftRepository keeps drafts in Redis, or in a process-local expiring
// cache when Redis is disabled. Both stores hold the JSON encoding.
type draftRepository struct {
	redis *redis.Client
	local *gocache.Cache
	ttl   time.Duration
	clock clock.Clock
}

// NewDraftRepository creates a draft store. client may be nil.
func NewDraftRepository(client *redis.Client, cfg *config.Config, clk clock.Clock) DraftRepository {
	ttl := time.Duration(cfg.Builder.DraftTTL) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	r := &draftRepository{redis: client, ttl: ttl, clock: clk}
	if client == nil {
		r.local = gocache.New(ttl, 10*time.Minute)
	}
	return r
}

func draftKey(serviceID string) string {
	return draftKeyPrefix + serviceID
}

func (r *draftRepository) Get(ctx context.Context, serviceID string) (*builder.Draft, error) {
	var data []byte
	if r.redis == nil {
		value, ok := r.local.Get(draftKey(serviceID))
		if !ok {
			return nil, ErrDraftNotFound
		}
		data = value.([]byte)
	} else {
		val, err := r.redis.Get(ctx, draftKey(serviceID)).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil, ErrDraftNotFound
			}
			return nil, fmt.Errorf("failed to get draft %s: %w", serviceID, err)
		}
		data = val
	}

	var draft builder.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", serviceID, err)
	}
	return &draft, nil
}

// Save stamps UpdatedAt and replaces the stored draft, refreshing its TTL
func (r *draftRepository) Save(ctx context.Context, draft *builder.Draft) error {
	draft.UpdatedAt = r.clock.Now().UTC()
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", draft.ServiceID, err)
	}

	if r.redis == nil {
		r.local.Set(draftKey(draft.ServiceID), data, r.ttl)
		return nil
	}
	if err := r.redis.Set(ctx, draftKey(draft.ServiceID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", draft.ServiceID, err)
	}
	return nil
}

// Delete discards a draft; deleting a missing draft is not an error
func (r *draftRepository) Delete(ctx context.Context, serviceID string) error {
	if r.redis == nil {
		r.local.Delete(draftKey(serviceID))
		return nil
	}
	if err := r.redis.Del(ctx, draftKey(serviceID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", serviceID, err)
	}
	return nil
}
