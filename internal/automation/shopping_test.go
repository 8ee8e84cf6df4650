package automation

import (
	"context"
	"testing"
	"time"

	"github.com/svanleeuwen/hearth/internal/store"
)

func newTestShoppingAutomation(items *memShopping, recurring *memRecurring) *ShoppingAutomation {
	a := NewShoppingAutomation(items, recurring)
	a.now = fixedNow
	return a
}

func TestRestockAddsDueItems(t *testing.T) {
	lastWeek := fixedNow().AddDate(0, 0, -8)
	yesterday := fixedNow().AddDate(0, 0, -1)
	qty := "2L"

	recurring := newMemRecurring()
	recurring.items["r1"] = store.ShoppingRecurringItem{ID: "r1", Name: "Milk", Quantity: &qty, FrequencyDays: 7, LastAdded: &lastWeek, IsActive: true}
	recurring.items["r2"] = store.ShoppingRecurringItem{ID: "r2", Name: "Bread", FrequencyDays: 7, LastAdded: &yesterday, IsActive: true}
	recurring.items["r3"] = store.ShoppingRecurringItem{ID: "r3", Name: "Coffee", FrequencyDays: 14, IsActive: true}
	recurring.items["r4"] = store.ShoppingRecurringItem{ID: "r4", Name: "Old staple", FrequencyDays: 7, LastAdded: &lastWeek, IsActive: false}

	items := newMemShopping()
	a := newTestShoppingAutomation(items, recurring)

	added, err := a.RestockDueItems(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Milk (interval elapsed) and Coffee (never added) are due; Bread was
	// added yesterday and the inactive staple is skipped.
	if added != 2 {
		t.Fatalf("expected 2 items added, got %d", added)
	}

	list, _ := items.List(context.Background(), false)
	names := map[string]bool{}
	for _, item := range list {
		names[item.Name] = true
	}
	if !names["Milk"] || !names["Coffee"] || names["Bread"] {
		t.Fatalf("unexpected list: %v", names)
	}

	if got := recurring.items["r1"].LastAdded; got == nil || !got.Equal(fixedNow()) {
		t.Fatalf("expected last added bumped, got %v", got)
	}
}

func TestRestockSkipsItemsAlreadyOnList(t *testing.T) {
	recurring := newMemRecurring()
	recurring.items["r1"] = store.ShoppingRecurringItem{ID: "r1", Name: "Milk", FrequencyDays: 7, IsActive: true}

	items := newMemShopping()
	items.items["s1"] = store.ShoppingItem{ID: "s1", Name: "milk"}

	a := newTestShoppingAutomation(items, recurring)
	added, err := a.RestockDueItems(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected no duplicates, got %d added", added)
	}
	// The clock still moves so the staple is not re-added immediately
	// after checkout.
	if recurring.items["r1"].LastAdded == nil {
		t.Fatal("expected last added to be bumped for on-list staple")
	}
}

func TestRestockReaddsAfterItemChecked(t *testing.T) {
	recurring := newMemRecurring()
	recurring.items["r1"] = store.ShoppingRecurringItem{ID: "r1", Name: "Milk", FrequencyDays: 7, IsActive: true}

	items := newMemShopping()
	checkedAt := fixedNow().Add(-time.Hour)
	by := "u1"
	items.items["s1"] = store.ShoppingItem{ID: "s1", Name: "Milk", IsChecked: true, CheckedAt: &checkedAt, CheckedBy: &by}

	a := newTestShoppingAutomation(items, recurring)
	added, err := a.RestockDueItems(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 1 {
		t.Fatalf("checked-off staple should be re-added, got %d", added)
	}
}

func TestClearChecked(t *testing.T) {
	items := newMemShopping()
	items.items["s1"] = store.ShoppingItem{ID: "s1", Name: "Milk", IsChecked: true}
	items.items["s2"] = store.ShoppingItem{ID: "s2", Name: "Bread"}

	a := newTestShoppingAutomation(items, newMemRecurring())
	if err := a.ClearChecked(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := items.items["s1"]; ok {
		t.Fatal("checked item should be removed")
	}
	if _, ok := items.items["s2"]; !ok {
		t.Fatal("unchecked item must stay")
	}
}
