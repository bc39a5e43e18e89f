// Package enhancer resolves GatherContent item selector parameters for a
// composition renderer. The batch path merges every parameter of a render
// pass into one GetItems call per source and routes the fetched items
// back to the parameters that asked for them.
package enhancer

import (
	"errors"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/Sternrassler/gathercontent-resolver/pkg/registry"
	"github.com/rs/zerolog"
)

// BatchQueryArgs is passed to Options.BatchQuery.
type BatchQueryArgs struct {
	Source    string
	Component Component
	Context   Context
	Default   gathercontent.ItemsQuery
}

// ItemQueryArgs is passed to Options.ItemQuery.
type ItemQueryArgs struct {
	Parameter Parameter
	Component Component
	Context   Context
	Default   gathercontent.ItemsQuery
}

// Options configures an Enhancer.
type Options struct {
	// Registry resolves clients by source. Required.
	Registry *registry.Registry

	// BatchQuery may rewrite the query issued for one source of a batch.
	BatchQuery func(BatchQueryArgs) gathercontent.ItemsQuery

	// ItemQuery may rewrite the query issued by EnhanceOne.
	ItemQuery func(ItemQueryArgs) gathercontent.ItemsQuery

	// Logger defaults to the "batch-enhancer" component logger.
	Logger *zerolog.Logger
}

// Enhancer resolves item selector parameters. It holds no per-batch
// state and is safe for concurrent use.
type Enhancer struct {
	registry   *registry.Registry
	batchQuery func(BatchQueryArgs) gathercontent.ItemsQuery
	itemQuery  func(ItemQueryArgs) gathercontent.ItemsQuery
	logger     zerolog.Logger
}

// New creates an Enhancer.
func New(opts Options) (*Enhancer, error) {
	if opts.Registry == nil {
		return nil, errors.New("no GatherContent clients were provided to the enhancer: a registry is required")
	}

	logger := logging.NewLogger("batch-enhancer")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Enhancer{
		registry:   opts.Registry,
		batchQuery: opts.BatchQuery,
		itemQuery:  opts.ItemQuery,
		logger:     logger,
	}, nil
}
