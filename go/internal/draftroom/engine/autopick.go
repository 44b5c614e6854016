package engine

import (
	"github.com/google/uuid"

	"github.com/mcdev12/draftroom/go/internal/draftroom/queue"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// AutopickStrategy selects an item on behalf of a participant whose grace
// window elapsed. Implementations must be side-effect free: the engine may
// call SelectItem again with an updated pool after a rejected commit.
type AutopickStrategy interface {
	// SelectItem returns the item to draft. queued may be nil when the
	// participant never built a queue; undrafted is the currently
	// available pool. ok is false when nothing can be selected.
	SelectItem(queued *queue.Queue, undrafted []models.Item) (itemID uuid.UUID, ok bool)
}

// QueuePreferredStrategy is the production strategy: the first undrafted
// queue entry wins, otherwise the best available item by lowest ADP with
// ties broken by lowest overall rank.
type QueuePreferredStrategy struct{}

var _ AutopickStrategy = (*QueuePreferredStrategy)(nil)

func (QueuePreferredStrategy) SelectItem(queued *queue.Queue, undrafted []models.Item) (uuid.UUID, bool) {
	if len(undrafted) == 0 {
		return uuid.Nil, false
	}

	if queued != nil {
		available := make(map[uuid.UUID]bool, len(undrafted))
		for _, item := range undrafted {
			available[item.ID] = true
		}
		if id, ok := queued.FirstUndrafted(func(id uuid.UUID) bool { return !available[id] }); ok {
			return id, true
		}
	}

	best := undrafted[0]
	for _, item := range undrafted[1:] {
		if item.ADP < best.ADP || (item.ADP == best.ADP && item.OverallRank < best.OverallRank) {
			best = item
		}
	}
	return best.ID, true
}
