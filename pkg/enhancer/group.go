package enhancer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/Sternrassler/gathercontent-resolver/pkg/registry"
)

// groupKeySeparator never appears in a valid item id.
const groupKeySeparator = "|"

// GroupKey identifies a list of item ids requested together. Ids are
// joined in the order given, so the same ids in a different order form
// a different group.
func GroupKey(ids []string) string {
	return strings.Join(ids, groupKeySeparator)
}

// fetchGroup is every task of one source sharing one GroupKey.
type fetchGroup struct {
	key   string
	ids   []string
	tasks []Task
}

// partition is every task of one source.
type partition struct {
	source    string
	client    registry.Client
	component Component
	groups    []*fetchGroup
	tasks     []Task
}

// plan is the outcome of grouping one batch.
type plan struct {
	partitions []*partition
	skipped    []Task
}

// buildPlan partitions tasks by source and groups them by GroupKey.
// Sources and groups keep first-seen order. Tasks without item ids are
// set aside. An unregistered source fails the whole batch.
func buildPlan(tasks []Task, reg *registry.Registry, ectx Context) (*plan, error) {
	p := &plan{}
	bySource := make(map[string]*partition)
	byKey := make(map[string]map[string]*fetchGroup)

	for _, task := range tasks {
		param := task.Parameter()
		if !hasItemIDs(param) {
			p.skipped = append(p.skipped, task)
			continue
		}

		source := sourceOf(param)
		part, ok := bySource[source]
		if !ok {
			client, found := reg.GetClient(source, ectx.Preview)
			if !found {
				return nil, &gathercontent.ConfigurationError{
					Source: source,
					Err:    gathercontent.ErrUnknownSource,
					Reason: fmt.Sprintf("referenced in parameter '%s' in component '%s'; register a client for this source key",
						param.Name, task.Component().Type),
				}
			}
			part = &partition{source: source, client: client, component: task.Component()}
			bySource[source] = part
			byKey[source] = make(map[string]*fetchGroup)
			p.partitions = append(p.partitions, part)
		}
		part.tasks = append(part.tasks, task)

		key := GroupKey(param.Value.ItemIDs)
		group, ok := byKey[source][key]
		if !ok {
			group = &fetchGroup{key: key, ids: param.Value.ItemIDs}
			byKey[source][key] = group
			part.groups = append(part.groups, group)
		}
		group.tasks = append(group.tasks, task)
	}

	return p, nil
}

// itemIDs returns the distinct ids of every group in first-seen order.
// Ids that are not integers come back as failures and are never fetched.
func (p *partition) itemIDs() ([]int64, []gathercontent.FailedItem) {
	var (
		ids     []int64
		invalid []gathercontent.FailedItem
	)
	seen := make(map[int64]bool)
	seenInvalid := make(map[string]bool)
	for _, group := range p.groups {
		for _, raw := range group.ids {
			id, err := parseItemID(raw)
			if err != nil {
				if !seenInvalid[raw] {
					seenInvalid[raw] = true
					invalid = append(invalid, gathercontent.FailedItem{ID: raw, Reason: err.Error()})
				}
				continue
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, invalid
}

func parseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}
