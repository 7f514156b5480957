package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCache(":memory:")
	if err != nil {
		t.Fatalf("newTestCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func dictServer(t *testing.T, calls *int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		switch r.URL.Path {
		case "/api/v2/entries/en/gist":
			json.NewEncoder(w).Encode([]map[string]any{{
				"word":      "gist",
				"phonetics": []map[string]string{{"text": "/dʒɪst/"}},
				"meanings": []map[string]any{{
					"partOfSpeech": "noun",
					"definitions": []map[string]string{
						{"definition": "The essence of a matter.", "example": "The gist of his speech."},
					},
				}},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"title": "No Definitions Found"})
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello,", "hello"},
		{"  WORLD!  ", "world"},
		{"don't", "don't"},
		{"(unprecedented)", "unprecedented"},
		{"...", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefineParsesEntry(t *testing.T) {
	calls := 0
	c := dictServer(t, &calls)

	e, err := c.Define(context.Background(), "gist")
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if e.Word != "gist" || e.Phonetic != "/dʒɪst/" {
		t.Errorf("entry = %+v", e)
	}
	if got := e.Primary(); got != "The essence of a matter." {
		t.Errorf("Primary = %q", got)
	}
}

func TestDefineNotFound(t *testing.T) {
	calls := 0
	c := dictServer(t, &calls)

	_, err := c.Define(context.Background(), "qwzxv")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestServiceCachesLookups(t *testing.T) {
	calls := 0
	svc := NewService(newTestCache(t), dictServer(t, &calls))
	ctx := context.Background()

	first, err := svc.Lookup(ctx, "Gist,")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	second, err := svc.Lookup(ctx, "gist")
	if err != nil {
		t.Fatalf("Lookup (cached): %v", err)
	}
	if calls != 1 {
		t.Errorf("remote called %d times, want 1", calls)
	}
	if first.Primary() != second.Primary() {
		t.Errorf("cached entry differs: %q vs %q", first.Primary(), second.Primary())
	}
}

func TestServiceNotFoundBypassesCache(t *testing.T) {
	calls := 0
	svc := NewService(newTestCache(t), dictServer(t, &calls))

	if _, err := svc.Lookup(context.Background(), "qwzxv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Lookup(context.Background(), "!!"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty normalization error = %v, want ErrNotFound", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)

	if e, err := c.Get("gist"); err != nil || e != nil {
		t.Fatalf("Get on empty cache = %+v, %v", e, err)
	}

	want := &Entry{
		Word: "gist",
		Meanings: []Meaning{{
			PartOfSpeech: "noun",
			Definitions:  []Definition{{Definition: "The essence of a matter."}},
		}},
	}
	if err := c.Put("gist", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := c.Get("gist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Word != "gist" || got.Primary() != want.Primary() {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	// Replacing an entry keeps one row per word.
	want.Meanings[0].Definitions[0].Definition = "The main point."
	if err := c.Put("gist", want); err != nil {
		t.Fatalf("Put (replace): %v", err)
	}
	got, err = c.Get("gist")
	if err != nil {
		t.Fatalf("Get (replaced): %v", err)
	}
	if got.Primary() != "The main point." {
		t.Errorf("Primary after replace = %q", got.Primary())
	}
	if n, err := c.Size(); err != nil || n != 1 {
		t.Errorf("Size = %d, %v, want 1", n, err)
	}
}
