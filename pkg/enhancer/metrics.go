package enhancer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task outcomes.
const (
	outcomeResolved = "resolved"
	outcomeNull     = "null"
	outcomeRejected = "rejected"
)

var (
	batchTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_batch_tasks_total",
		Help: "Total batch tasks settled by outcome",
	}, []string{"outcome"})

	batchFetchCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_batch_fetch_calls_total",
		Help: "Total GetItems calls issued by the batch handler by source",
	}, []string{"source"})

	batchFailedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gathercontent_batch_failed_items_total",
		Help: "Total items that failed to load inside a batch by source",
	}, []string{"source"})
)
