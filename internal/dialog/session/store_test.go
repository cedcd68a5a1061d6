package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs(ids ...string) IDGenerator {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestMemoryStore_Create(t *testing.T) {
	store := NewMemoryStore(30*time.Minute, WithIDGenerator(sequentialIDs("s-1", "s-2")))
	ctx := context.Background()

	first, err := store.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-1", first.ID)
	assert.Equal(t, models.StepWelcome, first.Step)
	assert.Equal(t, models.CategoryNone, first.Category)
	assert.Nil(t, first.Application)
	assert.False(t, first.Completed)

	second, err := store.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-2", second.ID)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_CreateSkipsTakenIDs(t *testing.T) {
	store := NewMemoryStore(0, WithIDGenerator(sequentialIDs("dup", "dup", "fresh")))
	ctx := context.Background()

	_, err := store.Create(ctx)
	require.NoError(t, err)

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", sess.ID)
}

func TestMemoryStore_DefaultIDsAreUnique(t *testing.T) {
	store := NewMemoryStore(0)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		sess, err := store.Create(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[sess.ID])
		seen[sess.ID] = true
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore(0)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	sess.Step = models.StepCompleted
	sess.Application = &models.IndividualApplication{Name: "Иван"}

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepWelcome, stored.Step)
	assert.Nil(t, stored.Application)
}

func TestMemoryStore_Update(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryStore(0, WithClock(clock))
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	sess.Step = models.StepIndividualAskName
	sess.Category = models.CategoryIndividual
	sess.Application = models.NewApplication(models.CategoryIndividual)
	require.NoError(t, store.Update(ctx, sess))

	// later mutation of the caller's copy must not leak into the store
	require.NoError(t, sess.Application.Set(models.FieldName, "Иван"))

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepIndividualAskName, stored.Step)
	assert.Empty(t, stored.Fields())
	assert.Equal(t, now, stored.UpdatedAt)
	assert.True(t, stored.CreatedAt.Before(stored.UpdatedAt))
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	store := NewMemoryStore(0)
	err := store.Update(context.Background(), models.NewSession("ghost", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

// Sessions outlive their configured timeout: expiry is not implemented.
func TestMemoryStore_TimeoutIsNotEnforced(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30*time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	now = now.Add(24 * time.Hour)

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
	assert.Equal(t, 30*time.Minute, store.Timeout())
}

func TestMemoryStore_ConcurrentUpdatesLastWriteWins(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := store.Get(ctx, sess.ID)
			if err != nil {
				return
			}
			s.ServiceType = models.ServiceType(fmt.Sprintf("writer-%d", i))
			_ = store.Update(ctx, s)
		}(i)
	}
	wg.Wait()

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Contains(t, string(stored.ServiceType), "writer-")
	assert.Equal(t, 1, store.Len())
}
