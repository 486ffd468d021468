package repositories

import (
	"context"
	"sort"
	"sync"

	"bloom-portal/internal/database"
	"bloom-portal/internal/models"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// maxMemoryActivities bounds the in-process activity feed
const maxMemoryActivities = 500

// activityRepository stores activity in postgres, or in memory when no
// database is configured
type activityRepository struct {
	db    *database.Connection
	clock clock.Clock

	mu     sync.Mutex
	memory []*models.Activity
}

// NewActivityRepository creates a new activity repository. db may be nil.
func NewActivityRepository(db *database.Connection, clk clock.Clock) ActivityRepository {
	return &activityRepository{db: db, clock: clk}
}

// Create assigns an id and timestamp when missing and appends the entry
func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = r.clock.Now().UTC()
	}

	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		copied := *activity
		r.memory = append(r.memory, &copied)
		if len(r.memory) > maxMemoryActivities {
			r.memory = r.memory[len(r.memory)-maxMemoryActivities:]
		}
		return nil
	}

	return r.db.WithContext(ctx).Create(activity).Error
}

// ListRecent returns the newest entries first
func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		all := make([]*models.Activity, len(r.memory))
		for i, a := range r.memory {
			copied := *a
			all[len(all)-1-i] = &copied
		}
		sort.SliceStable(all, func(i, j int) bool {
			return all[i].Timestamp.After(all[j].Timestamp)
		})
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	}

	var activities []*models.Activity
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}
