package enhancer

import (
	"cmp"
	"slices"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
)

// dispatch routes fetched items to the groups that requested them and
// settles every task of the partition.
func (e *Enhancer) dispatch(part *partition, items []gathercontent.Item, failed []gathercontent.FailedItem) {
	// An id may belong to several groups.
	groupsByID := make(map[int64][]*fetchGroup)
	for _, group := range part.groups {
		seen := make(map[int64]bool)
		for _, raw := range group.ids {
			id, err := parseItemID(raw)
			if err != nil || seen[id] {
				continue
			}
			seen[id] = true
			groupsByID[id] = append(groupsByID[id], group)
		}
	}

	itemsByGroup := make(map[*fetchGroup][]gathercontent.Item)
	for _, item := range items {
		for _, group := range groupsByID[item.ID] {
			itemsByGroup[group] = append(itemsByGroup[group], item)
		}
	}

	for _, group := range part.groups {
		resolved := itemsByGroup[group]
		if len(resolved) == 0 {
			for _, task := range group.tasks {
				task.Resolve(nil)
			}
			batchTasksTotal.WithLabelValues(outcomeNull).Add(float64(len(group.tasks)))
			continue
		}

		if len(group.ids) > 1 {
			sortByRequestedOrder(resolved, group.ids)
		}
		e.logger.Debug().
			Str("source", part.source).
			Str("group_key", group.key).
			Int("items", len(resolved)).
			Int("tasks", len(group.tasks)).
			Msg("Resolving group")
		// Each task owns its slice.
		for i, task := range group.tasks {
			if i == 0 {
				task.Resolve(resolved)
				continue
			}
			task.Resolve(slices.Clone(resolved))
		}
		batchTasksTotal.WithLabelValues(outcomeResolved).Add(float64(len(group.tasks)))
	}

	for _, f := range failed {
		e.warnFailedItem(part, groupsByID, f)
	}
	if len(failed) > 0 {
		batchFailedItemsTotal.WithLabelValues(part.source).Add(float64(len(failed)))
	}
}

// warnFailedItem logs one warning per task that referenced the item.
func (e *Enhancer) warnFailedItem(part *partition, groupsByID map[int64][]*fetchGroup, f gathercontent.FailedItem) {
	var groups []*fetchGroup
	if id, err := parseItemID(f.ID); err == nil {
		groups = groupsByID[id]
	} else {
		for _, group := range part.groups {
			if slices.Contains(group.ids, f.ID) {
				groups = append(groups, group)
			}
		}
	}

	if len(groups) == 0 {
		e.logger.Warn().
			Str("item_id", f.ID).
			Str("source", part.source).
			Str("component", part.component.Type).
			Str("reason", f.Reason).
			Msg("Failed loading GatherContent item")
		return
	}
	for _, group := range groups {
		for _, task := range group.tasks {
			e.logger.Warn().
				Str("item_id", f.ID).
				Str("source", part.source).
				Str("component", task.Component().Type).
				Str("parameter", task.Parameter().Name).
				Str("reason", f.Reason).
				Msg("Failed loading GatherContent item")
		}
	}
}

// sortByRequestedOrder reorders items to follow ids. The API answers in
// ascending id order. Items whose id was not requested sort first.
func sortByRequestedOrder(items []gathercontent.Item, ids []string) {
	position := make(map[int64]int, len(ids))
	for i, raw := range ids {
		id, err := parseItemID(raw)
		if err != nil {
			continue
		}
		if _, ok := position[id]; !ok {
			position[id] = i
		}
	}
	indexOf := func(id int64) int {
		if i, ok := position[id]; ok {
			return i
		}
		return -1
	}
	slices.SortStableFunc(items, func(a, b gathercontent.Item) int {
		return cmp.Compare(indexOf(a.ID), indexOf(b.ID))
	})
}
