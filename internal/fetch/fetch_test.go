package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/gym-slots/internal/common"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = io.WriteString(w, "%PDF-1.4 body")
		case "/big.pdf":
			_, _ = io.WriteString(w, strings.Repeat("x", 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(Config{MaxBytes: 32}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	doc, err := f.Fetch(context.Background(), srv.URL+"/ok.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(doc.Data) != "%PDF-1.4 body" || doc.ContentType != "application/pdf" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.pdf")
	if !errors.Is(err, common.ErrFetch) {
		t.Fatalf("err = %v, want fetch error", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("status code missing from %q", err.Error())
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/big.pdf"); !errors.Is(err, common.ErrFetch) {
		t.Fatalf("oversized body: err = %v", err)
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(Config{}, nil).Fetch(context.Background(), url+"/a.pdf")
	if !errors.Is(err, common.ErrFetch) {
		t.Fatalf("err = %v", err)
	}
}
