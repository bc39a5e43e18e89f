package enhancer

import (
	"context"
	"time"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
)

// HandleBatch settles every task of one render pass.
//
// Tasks without item ids resolve to null. The remaining tasks are grouped
// by source and one GetItems call is made per source, one source at a
// time. A source whose call fails rejects only its own tasks with a
// *BatchError. An unregistered source is a configuration error: every
// task is rejected and the error is returned before any request is made.
func (e *Enhancer) HandleBatch(ctx context.Context, tasks []Task, ectx Context) error {
	start := time.Now()

	p, err := buildPlan(tasks, e.registry, ectx)
	if err != nil {
		e.logger.Error().
			Err(err).
			Int("tasks", len(tasks)).
			Msg("Batch rejected: configuration error")
		for _, task := range tasks {
			task.Reject(err)
		}
		batchTasksTotal.WithLabelValues(outcomeRejected).Add(float64(len(tasks)))
		return err
	}

	for _, task := range p.skipped {
		task.Resolve(nil)
	}
	batchTasksTotal.WithLabelValues(outcomeNull).Add(float64(len(p.skipped)))

	for _, part := range p.partitions {
		e.handlePartition(ctx, part, ectx)
	}

	e.logger.Info().
		Int("tasks", len(tasks)).
		Int("sources", len(p.partitions)).
		Dur("duration", time.Since(start)).
		Msg("Batch resolved")

	return nil
}

func (e *Enhancer) handlePartition(ctx context.Context, part *partition, ectx Context) {
	start := time.Now()
	ids, invalid := part.itemIDs()

	e.logger.Debug().
		Str("source", part.source).
		Int("groups", len(part.groups)).
		Int("item_ids", len(ids)).
		Msg("Fetching batch for source")

	result := &gathercontent.ItemsResult{}
	if len(ids) > 0 {
		query := gathercontent.ItemsQuery{ItemIDs: ids, IncludeContent: true}
		if e.batchQuery != nil {
			query = e.batchQuery(BatchQueryArgs{
				Source:    part.source,
				Component: part.component,
				Context:   ectx,
				Default:   query,
			})
		}

		batchFetchCallsTotal.WithLabelValues(part.source).Inc()
		res, err := part.client.GetItems(ctx, query)
		if err != nil {
			batchErr := &BatchError{Source: part.source, Tasks: len(part.tasks), Err: err}
			e.logger.Error().
				Err(err).
				Str("source", part.source).
				Int("tasks", len(part.tasks)).
				Dur("duration", time.Since(start)).
				Msg("Batch call failed, rejecting source tasks")
			for _, task := range part.tasks {
				task.Reject(batchErr)
			}
			batchTasksTotal.WithLabelValues(outcomeRejected).Add(float64(len(part.tasks)))
			return
		}
		if res != nil {
			result = res
		}
	}

	failed := append(invalid, result.FailedItems...)
	e.dispatch(part, result.Items, failed)

	e.logger.Debug().
		Str("source", part.source).
		Int("items", len(result.Items)).
		Int("failed_items", len(failed)).
		Dur("duration", time.Since(start)).
		Msg("Fetched batch for source")
}
