package automation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/svanleeuwen/hearth/internal/store"
)

// ShoppingAutomation keeps staples on the list.
type ShoppingAutomation struct {
	items     store.ShoppingRepository
	recurring store.ShoppingRecurringRepository

	now func() time.Time
}

func NewShoppingAutomation(items store.ShoppingRepository, recurring store.ShoppingRecurringRepository) *ShoppingAutomation {
	return &ShoppingAutomation{items: items, recurring: recurring, now: time.Now}
}

// RestockDueItems re-adds every active recurring item whose interval has
// elapsed, unless an unchecked item with the same name is already on the
// list. Returns how many items were added.
func (a *ShoppingAutomation) RestockDueItems(ctx context.Context) (int, error) {
	recurring, err := a.recurring.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	unchecked, err := a.items.List(ctx, false)
	if err != nil {
		return 0, err
	}

	onList := make(map[string]bool, len(unchecked))
	for _, item := range unchecked {
		onList[strings.ToLower(item.Name)] = true
	}

	now := a.now()
	added := 0
	for _, staple := range recurring {
		if !a.due(staple, now) {
			continue
		}
		if onList[strings.ToLower(staple.Name)] {
			// Still on the list; push the clock so it is not re-added the
			// moment it gets checked off.
			if err := a.recurring.MarkAdded(ctx, staple.ID, now); err != nil {
				return added, err
			}
			continue
		}
		_, err := a.items.Create(ctx, store.ShoppingItem{
			ID:       uuid.NewString(),
			Name:     staple.Name,
			Quantity: staple.Quantity,
			Category: staple.Category,
		})
		if err != nil {
			return added, err
		}
		if err := a.recurring.MarkAdded(ctx, staple.ID, now); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// ClearChecked removes every checked-off item from the list.
func (a *ShoppingAutomation) ClearChecked(ctx context.Context) error {
	return a.items.DeleteChecked(ctx)
}

func (a *ShoppingAutomation) due(staple store.ShoppingRecurringItem, now time.Time) bool {
	if staple.LastAdded == nil {
		return true
	}
	interval := time.Duration(staple.FrequencyDays) * 24 * time.Hour
	return now.Sub(*staple.LastAdded) >= interval
}
