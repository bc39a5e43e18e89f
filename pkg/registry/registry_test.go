package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct{ name string }

func (s *stubClient) GetItems(context.Context, gathercontent.ItemsQuery) (*gathercontent.ItemsResult, error) {
	return &gathercontent.ItemsResult{}, nil
}

func TestAddClient_DefaultsSource(t *testing.T) {
	reg := New()
	published := &stubClient{name: "published"}

	require.NoError(t, reg.AddClient(Registration{Client: published}))

	got, ok := reg.GetClient("", false)
	require.True(t, ok)
	assert.Same(t, published, got)

	got, ok = reg.GetClient(DefaultSource, false)
	require.True(t, ok)
	assert.Same(t, published, got)
}

func TestAddClient_PreviewClient(t *testing.T) {
	tests := []struct {
		name        string
		preview     *stubClient
		wantPreview string
	}{
		{name: "separate preview client", preview: &stubClient{name: "preview"}, wantPreview: "preview"},
		{name: "preview falls back to published", preview: nil, wantPreview: "published"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			r := Registration{Source: "marketing", Client: &stubClient{name: "published"}}
			if tt.preview != nil {
				r.PreviewClient = tt.preview
			}
			require.NoError(t, reg.AddClient(r))

			published, ok := reg.GetClient("marketing", false)
			require.True(t, ok)
			assert.Equal(t, "published", published.(*stubClient).name)

			preview, ok := reg.GetClient("marketing", true)
			require.True(t, ok)
			assert.Equal(t, tt.wantPreview, preview.(*stubClient).name)
		})
	}
}

func TestAddClient_Errors(t *testing.T) {
	reg := New()
	require.NoError(t, reg.AddClient(Registration{Source: "docs", Client: &stubClient{}}))

	err := reg.AddClient(Registration{Source: "docs", Client: &stubClient{}})
	assert.ErrorIs(t, err, gathercontent.ErrDuplicateSource)

	err = reg.AddClient(Registration{Source: "blog"})
	assert.ErrorIs(t, err, gathercontent.ErrMissingClient)

	var cfgErr *gathercontent.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "blog", cfgErr.Source)
}

func TestGetClient_Unknown(t *testing.T) {
	reg := New()
	got, ok := reg.GetClient("missing", false)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSources(t *testing.T) {
	reg := New()
	for _, source := range []string{"zeta", "alpha", "default"} {
		require.NoError(t, reg.AddClient(Registration{Source: source, Client: &stubClient{}}))
	}
	assert.Equal(t, []string{"alpha", "default", "zeta"}, reg.Sources())
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := New()
	require.NoError(t, reg.AddClient(Registration{Client: &stubClient{}}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := reg.GetClient("", i%2 == 0)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
