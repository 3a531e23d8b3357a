package fetch

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testPNGBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/webp", true},
		{"image/bmp", true},
		{"IMAGE/PNG", true},
		{"image/png; charset=binary", true},
		{"image/tiff", false},
		{"application/pdf", false},
		{"text/html", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Allowed(tt.mimeType); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}
}

func TestSniff(t *testing.T) {
	if got := Sniff(testPNGBytes(t)); got != "image/png" {
		t.Errorf("Sniff(png) = %q, want image/png", got)
	}
	if got := Sniff([]byte("plain text payload")); Allowed(got) {
		t.Errorf("Sniff(text) = %q, should not pass the allow-list", got)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		hostURL string
		want    string
		wantErr bool
	}{
		{"absolute http", "http://example.com/a.png", "", "http://example.com/a.png", false},
		{"absolute https", "https://example.com/a.png", "http://other", "https://example.com/a.png", false},
		{"relative with base", "files/a.png", "http://host:8080", "http://host:8080/files/a.png", false},
		{"relative with trailing slash base", "/files/a.png", "http://host/", "http://host/files/a.png", false},
		{"relative without base", "files/a.png", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.rawURL, tt.hostURL)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveURL failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetcher_Get(t *testing.T) {
	payload := testPNGBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer srv.Close()

	f := New(5*time.Second, 1024*1024)
	got, err := f.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("fetched payload differs from served payload")
	}
}

func TestFetcher_GetNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(5*time.Second, 1024*1024)
	if _, err := f.Get(context.Background(), srv.URL); err == nil {
		t.Error("expected an error for a 404 response")
	}
}

func TestFetcher_GetOversize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := New(5*time.Second, 1024)
	if _, err := f.Get(context.Background(), srv.URL); err == nil {
		t.Error("expected an error for an oversize payload")
	}
}

func TestFetcher_GetUnreachable(t *testing.T) {
	f := New(500*time.Millisecond, 1024)
	if _, err := f.Get(context.Background(), "http://127.0.0.1:1/none.png"); err == nil {
		t.Error("expected an error for an unreachable host")
	}
}
