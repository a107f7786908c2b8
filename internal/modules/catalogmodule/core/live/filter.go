// Package live keeps catalog view state in step with the item store.
package live

import (
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

// Filter selects which items a view shows
type Filter string

// FilterAll shows every item
const FilterAll Filter = "all"

// ParseFilter accepts "all", the empty string, or any item type spelling
func ParseFilter(s string) (Filter, error) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	t, err := models.ParseItemType(s)
	if err != nil {
		return "", err
	}
	return Filter(t), nil
}

// Matches reports whether item passes the filter
func (f Filter) Matches(item *models.Item) bool {
	return f == FilterAll || f == "" || models.ItemType(f) == item.Type
}

// Apply returns the items passing the filter, order preserved
func (f Filter) Apply(items []*models.Item) []*models.Item {
	visible := make([]*models.Item, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			visible = append(visible, item)
		}
	}
	return visible
}

// CountByType tallies items per type. Every known type is present.
func CountByType(items []*models.Item) map[models.ItemType]int {
	counts := make(map[models.ItemType]int, len(models.ItemTypes))
	for _, t := range models.ItemTypes {
		counts[t] = 0
	}
	for _, item := range items {
		counts[item.Type]++
	}
	return counts
}
