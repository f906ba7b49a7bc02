package browser_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/visaguide/internal/presentation/browser"
	"github.com/aretw0/visaguide/internal/testutils"
	"github.com/aretw0/visaguide/pkg/adapters/memory"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/knowledge"
	"github.com/aretw0/visaguide/pkg/observability"
	"github.com/aretw0/visaguide/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func cyclicKnowledge() *domain.KnowledgeBase {
	kb := testutils.EVisaKnowledge()
	q3 := kb.DecisionTree.Nodes["q3"]
	q3.Next = "q1"
	kb.DecisionTree.Nodes["q3"] = q3
	q2 := kb.DecisionTree.Nodes["q2"]
	q2.Options[2].Next = "ghost"
	kb.DecisionTree.Nodes["q2"] = q2
	return kb
}

func newServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	source := memory.NewSource(map[string]*domain.KnowledgeBase{
		"E": testutils.EVisaKnowledge(),
		"X": cyclicKnowledge(),
	})
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	s := browser.New(knowledge.New(source),
		browser.WithVisaTypes(source.VisaTypes()...),
		browser.WithGatherer(reg),
		browser.WithObserver(metrics),
	)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Page(t *testing.T) {
	srv, _ := newServer(t)

	status, body := get(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h1>E Visa</h1>")
	assert.Contains(t, body, `<a href="#node-q2">q2</a>`)
	assert.Contains(t, body, `id="node-approved"`)
	assert.Contains(t, body, "graph TD")

	status, body = get(t, srv.URL+"/?visa=X")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "cycle detected: back to q1")
	assert.Contains(t, body, "node not found: ghost")
	assert.Contains(t, body, "Missing: ghost")
}

func TestServer_PageSearchHidesNodes(t *testing.T) {
	srv, _ := newServer(t)

	_, body := get(t, srv.URL+"/?visa=E&q=experience")
	assert.Contains(t, body, `<div class="node" id="node-q3">`)
	assert.Contains(t, body, `<div class="node hidden" id="node-q1">`)
}

func TestServer_API(t *testing.T) {
	srv, reg := newServer(t)

	status, body := get(t, srv.URL+"/api/knowledge/E")
	require.Equal(t, http.StatusOK, status)
	var kb domain.KnowledgeBase
	require.NoError(t, json.Unmarshal([]byte(body), &kb))
	assert.Equal(t, "q1", kb.DecisionTree.Root)

	_, body = get(t, srv.URL+"/nodes?visa=E&q=TREATY")
	var views []tree.NodeView
	require.NoError(t, json.Unmarshal([]byte(body), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "q1", views[0].ID)

	_, body = get(t, srv.URL+"/tree?visa=X")
	assert.Contains(t, body, "(!) cycle detected: back to q1")

	_, body = get(t, srv.URL+"/tree?visa=E&format=json")
	var entry tree.Entry
	require.NoError(t, json.Unmarshal([]byte(body), &entry))
	assert.Equal(t, "q1", entry.ID)

	_, body = get(t, srv.URL+"/mermaid?visa=E")
	assert.True(t, strings.HasPrefix(body, "graph TD\n"))

	status, body = get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	_, body = get(t, srv.URL+"/metrics")
	assert.Contains(t, body, `visaguide_knowledge_views_total{view="mermaid",visa_type="E"} 1`)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestServer_UnknownVisa(t *testing.T) {
	srv, _ := newServer(t)

	status, _ := get(t, srv.URL+"/api/knowledge/Z")
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestServer_MissingVisa(t *testing.T) {
	s := browser.New(knowledge.New(memory.NewSource(nil)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tree", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are only mounted with a gatherer")
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := browser.New(knowledge.New(memory.NewSource(nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	http.DefaultClient.CloseIdleConnections()
}
