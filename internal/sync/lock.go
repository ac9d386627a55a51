package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/mvidalgarcia/golfviajes-backend/pkg/errors"
)

const lockScope = "sync-version"

// LockStore is the slice of the redis client the version lock needs.
type LockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope, id string) string
}

// VersionLock keeps at most one sync attempt in flight per version. It is a
// best-effort guard; correctness rests on the durable booking-id check, the
// lock only avoids wasted duplicate work.
type VersionLock struct {
	store LockStore
	ttl   time.Duration
}

// NewVersionLock builds a version lock over the given store.
func NewVersionLock(store LockStore, ttl time.Duration) (*VersionLock, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lock store is required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &VersionLock{store: store, ttl: ttl}, nil
}

// Acquire attempts to take the per-version lock. It returns false when another
// worker already holds it.
func (l *VersionLock) Acquire(ctx context.Context, versionID uuid.UUID) (bool, error) {
	return l.store.SetNX(ctx, l.store.LockKey(lockScope, versionID.String()), time.Now().UnixNano(), l.ttl)
}

// Release drops the lock. Safe to call when the lock already expired.
func (l *VersionLock) Release(ctx context.Context, versionID uuid.UUID) error {
	return l.store.Del(ctx, l.store.LockKey(lockScope, versionID.String()))
}
