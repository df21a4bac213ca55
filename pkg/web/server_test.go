package web

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/pubsub"
	"github.com/depscope/depscope/pkg/session"
	"github.com/depscope/depscope/pkg/view"
)

func testServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	publisher := pubsub.NewSSEPublisher()
	publisher.ConfigureTopic(pubsub.TopicFrames, pubsub.TopicConfig{BufferSize: 1})
	t.Cleanup(func() { publisher.Close() })

	g := model.DependencyGraph{
		Nodes: []string{"a/x.ts", "a/y.ts", "b/z.ts"},
		Edges: []model.Edge{
			{Source: "a/x.ts", Target: "a/y.ts"},
			{Source: "a/x.ts", Target: "b/z.ts"},
		},
	}
	sess := session.New(g, publisher, 800, 600)
	t.Cleanup(sess.Close)
	sess.SetMode(view.ModeTree) // synchronous rebuilds for assertions

	return NewServer(sess, publisher), sess
}

func postEvent(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleEvent_AppliesInteractions(t *testing.T) {
	srv, sess := testServer(t)

	tests := []struct {
		name string
		body string
		want func() bool
	}{
		{
			"set granularity",
			`{"type":"set-granularity","granularity":"directory"}`,
			func() bool { return sess.State().Granularity == view.GranularityDirectory },
		},
		{
			"toggle isolated",
			`{"type":"toggle-isolated"}`,
			func() bool { return sess.State().HideIsolated },
		},
		{
			"search",
			`{"type":"search","term":"auth"}`,
			func() bool { return sess.State().SearchTerm == "auth" },
		},
		{
			"select",
			`{"type":"select","nodeId":"a"}`,
			func() bool { return sess.State().SelectedNodeID == "a" },
		},
		{
			"resize",
			`{"type":"resize","width":1024,"height":768}`,
			func() bool { return true },
		},
		{
			"toggle expanded",
			`{"type":"toggle-expanded"}`,
			func() bool { return sess.State().Expanded },
		},
		{
			"escape collapses",
			`{"type":"escape"}`,
			func() bool { return !sess.State().Expanded },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postEvent(t, srv, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			if !tt.want() {
				t.Errorf("session state not updated: %+v", sess.State())
			}
		})
	}
}

func TestHandleEvent_RejectsInvalid(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"explode"}`},
		{"bad view mode", `{"type":"set-view","mode":"spiral"}`},
		{"bad granularity", `{"type":"set-granularity","granularity":"package"}`},
		{"select without node", `{"type":"select"}`},
		{"resize without dims", `{"type":"resize"}`},
		{"malformed json", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postEvent(t, srv, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			var payload map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if payload["error"] == "" {
				t.Error("error body has no error message")
			}
		})
	}
}

func TestHandleFrame_ReturnsLatest(t *testing.T) {
	srv, sess := testServer(t)
	sess.Search("a/")

	req := httptest.NewRequest(http.MethodGet, "/api/frame", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var frame session.Frame
	if err := json.Unmarshal(w.Body.Bytes(), &frame); err != nil {
		t.Fatalf("frame does not decode: %v", err)
	}
	if frame.State.SearchTerm != "a/" {
		t.Errorf("frame search term = %q, want a/", frame.State.SearchTerm)
	}
	if len(frame.Nodes) != 3 {
		t.Errorf("frame nodes = %d, want 3", len(frame.Nodes))
	}
}

func TestHandleGraph_ReflectsDisplayedGraph(t *testing.T) {
	srv, sess := testServer(t)
	sess.SetGranularity(view.GranularityDirectory)

	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var g model.DependencyGraph
	if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil {
		t.Fatalf("graph does not decode: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("displayed graph = %d nodes, %d edges, want 2 and 1", len(g.Nodes), len(g.Edges))
	}
}

func TestHandleSelection(t *testing.T) {
	srv, sess := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/selection", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := strings.TrimSpace(w.Body.String()); got != "null" {
		t.Errorf("selection with nothing selected = %s, want null", got)
	}

	sess.Select("a/x.ts")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/selection", nil))
	var detail view.Detail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("selection does not decode: %v", err)
	}
	if detail.ID != "a/x.ts" || len(detail.DependsOn) != 2 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestSSEHandshake(t *testing.T) {
	srv, _ := testServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/events/frames")
	if err != nil {
		t.Fatalf("GET /events/frames: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	// The opening comment plus the replayed latest frame arrive first.
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.HasPrefix(line, ":") {
		t.Errorf("first line = %q, want an SSE comment", line)
	}
}

func TestStaticViewerServed(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<canvas") {
		t.Error("index.html does not contain the graph canvas")
	}
}
