package enhancer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
)

// EnhanceOne resolves a single parameter without batching. It returns
// nil items for parameters it does not handle or that name no ids.
func (e *Enhancer) EnhanceOne(ctx context.Context, component Component, param Parameter, ectx Context) ([]gathercontent.Item, error) {
	if KindOf(param.Type) != KindItems || !hasItemIDs(param) {
		return nil, nil
	}

	source := sourceOf(param)
	client, ok := e.registry.GetClient(source, ectx.Preview)
	if !ok {
		return nil, &gathercontent.ConfigurationError{
			Source: source,
			Err:    gathercontent.ErrUnknownSource,
			Reason: fmt.Sprintf("referenced in parameter '%s' in component '%s'; register a client for this source key",
				param.Name, component.Type),
		}
	}

	var ids []int64
	for _, raw := range param.Value.ItemIDs {
		id, err := parseItemID(raw)
		if err != nil {
			e.warnParameterItem(source, param, gathercontent.FailedItem{ID: raw, Reason: err.Error()})
			continue
		}
		ids = append(ids, id)
	}

	query := gathercontent.ItemsQuery{ItemIDs: ids, IncludeContent: true}
	if e.itemQuery != nil {
		query = e.itemQuery(ItemQueryArgs{
			Parameter: param,
			Component: component,
			Context:   ectx,
			Default:   query,
		})
	}
	if len(query.ItemIDs) == 0 && len(query.TemplateIDs) == 0 && query.NameContains == "" {
		return nil, nil
	}

	start := time.Now()
	result, err := client.GetItems(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed loading GatherContent items '%s' from source '%s' referenced in parameter '%s': %w",
			strings.Join(param.Value.ItemIDs, ","), source, param.Name, err)
	}
	if result == nil {
		return nil, nil
	}

	items := result.Items
	if len(query.ItemIDs) > 0 {
		slices.SortStableFunc(items, func(a, b gathercontent.Item) int {
			return slices.Index(query.ItemIDs, a.ID) - slices.Index(query.ItemIDs, b.ID)
		})
	}

	for _, f := range result.FailedItems {
		e.warnParameterItem(source, param, f)
	}

	e.logger.Debug().
		Str("source", source).
		Str("parameter", param.Name).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Resolved parameter")

	return items, nil
}

func (e *Enhancer) warnParameterItem(source string, param Parameter, f gathercontent.FailedItem) {
	e.logger.Warn().
		Str("item_id", f.ID).
		Str("source", source).
		Str("parameter", param.Name).
		Str("reason", f.Reason).
		Msg("Failed loading GatherContent item")
}
