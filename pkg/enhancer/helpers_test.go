package enhancer

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/Sternrassler/gathercontent-resolver/pkg/registry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// callLog records GetItems calls across every fake client.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeClient answers in ascending id order, like the GatherContent API.
type fakeClient struct {
	name  string
	log   *callLog
	known map[int64]bool
	fails map[int64]string
	err   error

	mu      sync.Mutex
	queries []gathercontent.ItemsQuery
}

func newFakeClient(name string, ids ...int64) *fakeClient {
	known := make(map[int64]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &fakeClient{name: name, known: known, fails: map[int64]string{}}
}

func (f *fakeClient) GetItems(ctx context.Context, q gathercontent.ItemsQuery) (*gathercontent.ItemsResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.log != nil {
		f.log.add(f.name)
	}
	if f.err != nil {
		return nil, f.err
	}

	ids := slices.Clone(q.ItemIDs)
	slices.Sort(ids)

	result := &gathercontent.ItemsResult{}
	for _, id := range ids {
		if reason, failed := f.fails[id]; failed {
			result.FailedItems = append(result.FailedItems, gathercontent.FailedItem{ID: strconv.FormatInt(id, 10), Reason: reason})
			continue
		}
		if !f.known[id] {
			result.FailedItems = append(result.FailedItems, gathercontent.FailedItem{ID: strconv.FormatInt(id, 10), Reason: "Item not found"})
			continue
		}
		result.Items = append(result.Items, item(id))
	}
	return result, nil
}

func (f *fakeClient) recorded() []gathercontent.ItemsQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

func item(id int64) gathercontent.Item {
	return gathercontent.Item{ID: id, Name: "Item " + strconv.FormatInt(id, 10), TemplateID: 9}
}

func itemIDs(items []gathercontent.Item) []int64 {
	if items == nil {
		return nil
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func itemsTask(name, source string, ids ...string) *FetchTask {
	return NewFetchTask(
		Component{Type: "hero"},
		Parameter{Name: name, Type: ParameterTypeItems, Value: &ParameterValue{ItemIDs: ids, Source: source}},
	)
}

func asTasks(tasks ...*FetchTask) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t
	}
	return out
}

// newEnhancer registers clients by source and captures log output.
func newEnhancer(t *testing.T, clients map[string]registry.Client, opts ...func(*Options)) (*Enhancer, *bytes.Buffer) {
	t.Helper()

	reg := registry.New()
	for source, client := range clients {
		require.NoError(t, reg.AddClient(registry.Registration{Source: source, Client: client}))
	}

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	o := Options{Registry: reg, Logger: &logger}
	for _, opt := range opts {
		opt(&o)
	}

	e, err := New(o)
	require.NoError(t, err)
	return e, buf
}

func waitTask(t *testing.T, task *FetchTask) ([]gathercontent.Item, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	items, err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("task %s never settled", task.Parameter().Name)
	}
	return items, err
}
