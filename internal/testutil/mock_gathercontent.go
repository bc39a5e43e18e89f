// Package testutil provides fakes for testing the GatherContent resolver.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockField is one template field of a mock item.
type MockField struct {
	UUID  string
	Label string
	Type  string
	Value any
}

// MockItem is an item served by MockGatherContent.
type MockItem struct {
	ID         int64
	Name       string
	TemplateID int64
	UpdatedAt  string
	Fields     []MockField
}

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGatherContent is a configurable GatherContent API for tests. It
// serves registered items on GET /items/{id} and
// GET /projects/{project}/items, and templates on
// GET /projects/{project}/templates.
type MockGatherContent struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	items     map[int64]MockItem
	templates []map[string]any
	perPage   int

	requestCount  int
	pathCounts    map[string]int
	lastHeader    http.Header
	requestedURLs []string
}

// NewMockGatherContent starts a mock server.
func NewMockGatherContent() *MockGatherContent {
	mock := &MockGatherContent{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		items:      make(map[int64]MockItem),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastHeader = r.Header.Clone()
		mock.requestedURLs = append(mock.requestedURLs, r.URL.RequestURI())
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGatherContent) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGatherContent) Close() {
	m.server.Close()
}

// AddItems registers items served by the default handlers.
func (m *MockGatherContent) AddItems(items ...MockItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.ID] = item
	}
}

// AddTemplate registers a template returned by the templates list.
func (m *MockGatherContent) AddTemplate(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(m.templates, map[string]any{
		"id":                    id,
		"name":                  name,
		"number_of_items_using": 0,
	})
}

// SetPerPage makes the project item list paginate. Zero disables paging.
func (m *MockGatherContent) SetPerPage(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perPage = n
}

// SetHandler overrides the handler for one path.
func (m *MockGatherContent) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for one path.
func (m *MockGatherContent) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests served.
func (m *MockGatherContent) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests served for one path.
func (m *MockGatherContent) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastHeader returns the headers of the most recent request.
func (m *MockGatherContent) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// RequestedURLs returns every request URI in arrival order.
func (m *MockGatherContent) RequestedURLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requestedURLs...)
}

func (m *MockGatherContent) defaultHandler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && parts[0] == "items":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid item id"})
			return
		}
		m.mu.RLock()
		item, ok := m.items[id]
		m.mu.RUnlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": fmt.Sprintf("Item %d not found", id)})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": item.payload(r.URL.Query().Get("include") == "structure"),
		})

	case len(parts) == 3 && parts[0] == "projects" && parts[2] == "items":
		m.listItems(w, r)

	case len(parts) == 3 && parts[0] == "projects" && parts[2] == "templates":
		m.mu.RLock()
		templates := append([]map[string]any{}, m.templates...)
		m.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"data": templates})

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	}
}

func (m *MockGatherContent) listItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	wanted := map[int64]bool{}
	for _, raw := range strings.Split(query.Get("item_id"), ",") {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			wanted[id] = true
		}
	}
	templateID := query.Get("template_id")
	name := strings.ToLower(query.Get("name_contains"))

	m.mu.RLock()
	var matched []MockItem
	for _, item := range m.items {
		if len(wanted) > 0 && !wanted[item.ID] {
			continue
		}
		if templateID != "" && strconv.FormatInt(item.TemplateID, 10) != templateID {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(item.Name), name) {
			continue
		}
		matched = append(matched, item)
	}
	perPage := m.perPage
	m.mu.RUnlock()

	// The real API sorts by id regardless of the requested order.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	totalPages := 1
	if perPage > 0 && len(matched) > perPage {
		totalPages = (len(matched) + perPage - 1) / perPage
		page, _ := strconv.Atoi(query.Get("page"))
		if page < 1 {
			page = 1
		}
		start := (page - 1) * perPage
		end := min(start+perPage, len(matched))
		if start >= len(matched) {
			matched = nil
		} else {
			matched = matched[start:end]
		}
	}

	data := make([]map[string]any, 0, len(matched))
	for _, item := range matched {
		data = append(data, item.payload(false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":       data,
		"pagination": map[string]any{"total_pages": totalPages},
	})
}

func (i MockItem) payload(includeStructure bool) map[string]any {
	updatedAt := i.UpdatedAt
	if updatedAt == "" {
		updatedAt = "2024-01-02T03:04:05Z"
	}
	out := map[string]any{
		"id":          i.ID,
		"name":        i.Name,
		"template_id": i.TemplateID,
		"updated_at":  updatedAt,
	}
	if !includeStructure {
		return out
	}

	content := map[string]any{}
	fields := make([]map[string]any, 0, len(i.Fields))
	for _, f := range i.Fields {
		fieldType := f.Type
		if fieldType == "" {
			fieldType = "text"
		}
		fields = append(fields, map[string]any{
			"uuid":       f.UUID,
			"field_type": fieldType,
			"label":      f.Label,
		})
		if f.Value != nil {
			content[f.UUID] = f.Value
		}
	}
	out["content"] = content
	out["structure"] = map[string]any{
		"uuid": fmt.Sprintf("structure-%d", i.ID),
		"groups": []map[string]any{
			{"uuid": fmt.Sprintf("group-%d", i.ID), "name": "Content", "fields": fields},
		},
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NewServerErrorResponse creates a 500 response with a JSON error body.
func NewServerErrorResponse(message string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       fmt.Sprintf(`{"error": %q}`, message),
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
