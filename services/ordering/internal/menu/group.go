package menu

import "strings"

const (
	UncategorizedKey   = "uncategorized"
	UncategorizedLabel = "Other Items"
)

// Group is one category section of the menu.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Items []MenuItem `json:"items"`
}

// GroupByCategory buckets items by trimmed category in first-seen order.
// Items without a category share the uncategorized group.
func GroupByCategory(items []MenuItem) []Group {
	var groups []Group
	index := map[string]int{}

	for _, item := range items {
		key := strings.TrimSpace(item.Category)
		label := key
		if key == "" {
			key, label = UncategorizedKey, UncategorizedLabel
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Label: label})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}
