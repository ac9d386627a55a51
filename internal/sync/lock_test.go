package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLockStore struct {
	held map[string]bool
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{held: map[string]bool{}}
}

func (s *fakeLockStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *fakeLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.held, key)
	}
	return nil
}

func (s *fakeLockStore) LockKey(scope, id string) string {
	return fmt.Sprintf("gv:lock:%s:%s", scope, id)
}

func TestVersionLockMutualExclusion(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewVersionLock(store, time.Minute)
	require.NoError(t, err)

	versionID := uuid.New()
	otherID := uuid.New()

	acquired, err := lock.Acquire(context.Background(), versionID)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Same version is refused while held; other versions are independent.
	acquired, err = lock.Acquire(context.Background(), versionID)
	require.NoError(t, err)
	assert.False(t, acquired)

	acquired, err = lock.Acquire(context.Background(), otherID)
	require.NoError(t, err)
	assert.True(t, acquired)

	require.NoError(t, lock.Release(context.Background(), versionID))
	acquired, err = lock.Acquire(context.Background(), versionID)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestNewVersionLockRequiresStore(t *testing.T) {
	_, err := NewVersionLock(nil, time.Minute)
	require.Error(t, err)
}
