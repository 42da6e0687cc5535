package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-view/pkg/engine/pongo"
	"github.com/goliatone/go-view/pkg/server"
	"github.com/goliatone/go-view/pkg/view"
)

func newServer(t *testing.T, opts ...server.Option) *server.Server {
	t.Helper()
	fsys := fstest.MapFS{
		"public/index.tpl":    {Data: []byte(`<h1>{{ title }}</h1>{% for tag in tags %}<i>{{ tag }}</i>{% endfor %}`)},
		"public/docs/faq.tpl": {Data: []byte(`faq`)},
		"private/admin.tpl":   {Data: []byte(`admin`)},
		"public/broken.tpl":   {Data: []byte(`{% if %}`)},
		"layouts/main.tpl":    {Data: []byte(`<main>{{ content|safe }}</main>`)},
	}
	set, err := pongo.NewSet(pongo.WithFS(fsys))
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	factory := view.PongoFactory(set, pongo.WithLayout("main"))

	return server.New(func(*http.Request) (*view.EngineView, error) {
		return view.New(view.WithFS(fsys), view.WithEngineFactory(factory)), nil
	}, opts...)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServer_Render(t *testing.T) {
	h := newServer(t).Handler()

	w := get(t, h, "/render/index?title=Docs&tags=a&tags=b")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "<main><h1>Docs</h1><i>a</i><i>b</i></main>" {
		t.Fatalf("unexpected body %q", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}

	if w := get(t, h, "/render/docs/faq"); w.Code != http.StatusOK || w.Body.String() != "<main>faq</main>" {
		t.Fatalf("nested template: %d %q", w.Code, w.Body.String())
	}
}

func TestServer_PrivateTemplates(t *testing.T) {
	h := newServer(t).Handler()

	if w := get(t, h, "/render/admin"); w.Code != http.StatusNotFound {
		t.Fatalf("private template must not be public, got %d", w.Code)
	}
	if w := get(t, h, "/render/admin?private=true"); w.Code != http.StatusOK || w.Body.String() != "<main>admin</main>" {
		t.Fatalf("private render: %d %q", w.Code, w.Body.String())
	}
	if w := get(t, h, "/render/../private/admin"); w.Code != http.StatusNotFound {
		t.Fatalf("relative names must not reach private templates, got %d: %q", w.Code, w.Body.String())
	}
	if w := get(t, h, "/render/../layouts/main"); w.Code != http.StatusNotFound {
		t.Fatalf("relative names must not reach layouts, got %d", w.Code)
	}
	if w := get(t, h, "/render/admin?private=maybe"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid private flag should be rejected, got %d", w.Code)
	}
}

func TestServer_Errors(t *testing.T) {
	h := newServer(t).Handler()

	cases := map[string]int{
		"/render/":       http.StatusBadRequest,
		"/render/nope":   http.StatusNotFound,
		"/render/broken": http.StatusInternalServerError,
	}
	for target, want := range cases {
		if w := get(t, h, target); w.Code != want {
			t.Fatalf("%s: expected %d, got %d", target, want, w.Code)
		}
	}

	failing := server.New(func(*http.Request) (*view.EngineView, error) {
		return nil, errors.New("no views today")
	}).Handler()
	if w := get(t, failing, "/render/index"); w.Code != http.StatusInternalServerError {
		t.Fatalf("factory error should be 500, got %d", w.Code)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "goview_up 1")
	})
	h := newServer(t, server.WithMetricsHandler(metrics)).Handler()

	if w := get(t, h, "/healthz"); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
	if w := get(t, h, "/metrics"); !strings.Contains(w.Body.String(), "goview_up") {
		t.Fatalf("metrics handler not mounted: %q", w.Body.String())
	}
	if w := get(t, newServer(t).Handler(), "/metrics"); w.Code != http.StatusNotFound {
		t.Fatalf("metrics should be absent by default, got %d", w.Code)
	}
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := newServer(t, server.WithShutdownTimeout(time.Second))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
