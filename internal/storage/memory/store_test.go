package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

func TestTransactionsShareTheHandle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Serializable(ctx, func(tx domain.Store) error {
		class := &domain.Class{Title: "Inside tx", StartsAt: time.Now(), Capacity: 4, Status: domain.ClassOpen}
		if err := tx.Classes().Create(ctx, class); err != nil {
			return err
		}
		// A read through the same transaction must see the write.
		_, err := tx.Classes().GetByID(ctx, class.ID)
		return err
	})
	require.NoError(t, err)
}

func TestConcurrentTransactionsAndReads(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	class := &domain.Class{Title: "Busy court", StartsAt: time.Now(), Capacity: 50, Status: domain.ClassOpen}
	require.NoError(t, store.Classes().Create(ctx, class))

	// Transactional writers and direct readers interleave; run with -race.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		userID := "user-" + string(rune('a'+i))
		go func() {
			defer wg.Done()
			err := store.Serializable(ctx, func(tx domain.Store) error {
				return tx.Enrollments().Create(ctx, &domain.Enrollment{
					UserID:  userID,
					ClassID: class.ID,
					Status:  domain.EnrollmentConfirmed,
				})
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := store.Enrollments().CountConfirmed(ctx, class.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := store.Enrollments().CountConfirmed(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}
