package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/draftroom/queue"
	"github.com/mcdev12/draftroom/go/internal/models"
)

func TestQueuePreferredStrategySelectItem(t *testing.T) {
	highADP := models.Item{ID: uuid.New(), FullName: "Queued Sleeper", ADP: 120, OverallRank: 118}
	bestADP := models.Item{ID: uuid.New(), FullName: "Consensus One", ADP: 1.2, OverallRank: 1}
	midADP := models.Item{ID: uuid.New(), FullName: "Solid Starter", ADP: 14.5, OverallRank: 15}

	newQueue := func(ids ...uuid.UUID) *queue.Queue {
		q := queue.New(10)
		for _, id := range ids {
			require.NoError(t, q.Enqueue(id))
		}
		return q
	}

	strategy := QueuePreferredStrategy{}

	t.Run("queue entry beats better ADP", func(t *testing.T) {
		got, ok := strategy.SelectItem(newQueue(highADP.ID), []models.Item{bestADP, midADP, highADP})
		require.True(t, ok)
		assert.Equal(t, highADP.ID, got)
	})

	t.Run("stale queue falls back to ADP", func(t *testing.T) {
		drafted := uuid.New()
		got, ok := strategy.SelectItem(newQueue(drafted), []models.Item{midADP, bestADP})
		require.True(t, ok)
		assert.Equal(t, bestADP.ID, got)
	})

	t.Run("nil queue uses ADP", func(t *testing.T) {
		got, ok := strategy.SelectItem(nil, []models.Item{highADP, midADP, bestADP})
		require.True(t, ok)
		assert.Equal(t, bestADP.ID, got)
	})

	t.Run("ADP tie broken by overall rank", func(t *testing.T) {
		tiedWorse := models.Item{ID: uuid.New(), ADP: 9, OverallRank: 11}
		tiedBetter := models.Item{ID: uuid.New(), ADP: 9, OverallRank: 8}
		got, ok := strategy.SelectItem(nil, []models.Item{tiedWorse, tiedBetter})
		require.True(t, ok)
		assert.Equal(t, tiedBetter.ID, got)
	})

	t.Run("empty pool selects nothing", func(t *testing.T) {
		_, ok := strategy.SelectItem(newQueue(bestADP.ID), nil)
		assert.False(t, ok)
	})
}
