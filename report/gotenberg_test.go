package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestRenderHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("landscape"); got != "true" {
			t.Errorf("expected landscape flag, got %q", got)
		}
		if got := r.FormValue("waitDelay"); got != "500ms" {
			t.Errorf("expected wait delay, got %q", got)
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing file: %v", err)
		} else {
			if header.Filename != "deals.html" {
				t.Errorf("unexpected filename %s", header.Filename)
			}
			data, _ := io.ReadAll(file)
			if string(data) != "<h1>x</h1>" {
				t.Errorf("unexpected html %q", data)
			}
		}
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	pdf, err := client.RenderHTML(context.Background(), "<h1>x</h1>", Options{Filename: "deals.html", Landscape: true, WaitDelay: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(pdf) != "PDF" {
		t.Fatalf("unexpected pdf %q", pdf)
	}
}

func TestRenderHTMLFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).RenderHTML(context.Background(), "<p/>", Options{}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewClient("").RenderHTML(context.Background(), "<p/>", Options{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestPingRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	router := chi.NewRouter()
	NewHandler(NewClient(srv.URL), slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	down := chi.NewRouter()
	NewHandler(NewClient(""), slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(down)
	rr = httptest.NewRecorder()
	down.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
