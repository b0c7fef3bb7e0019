package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greyhollow/huekeep/internal/infrastructure/config"
	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
)

const testKey = "goodkey"

// newTestBridge starts a fake bridge speaking the result-array protocol
// and returns a client pointed at it.
func newTestBridge(t *testing.T) *Client {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/api/{key}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "key") != testKey {
			w.Write([]byte(`[{"error":{"type":1,"address":"/","description":"unauthorized user"}}]`))
			return
		}
		w.Write([]byte(`{"lights":{"1":{"name":"Lounge main","uniqueid":"aa:01"}},"config":{"name":"Home bridge"}}`))
	})
	r.Get("/api/{key}/lights/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") != "1" {
			w.Write([]byte(`[{"error":{"type":3,"address":"/lights","description":"resource not available"}}]`))
			return
		}
		w.Write([]byte(`{"name":"Lounge main","uniqueid":"aa:01"}`))
	})
	r.Post("/api/{key}/groups", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"success":{"id":"7"}}]`))
	})
	r.Post("/api/{key}/rules", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"success":{"address":"/rules/3"}}]`))
	})
	r.Put("/api/{key}/lights/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") == "99" {
			w.Write([]byte(`[{"error":{"type":201,"address":"/lights/99/name","description":"parameter not modifiable"}}]`))
			return
		}
		w.Write([]byte(`[{"success":{"/lights/1/name":"Lounge main"}}]`))
	})
	r.Delete("/api/{key}/resourcelinks/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"success":"/resourcelinks/5 deleted"}]`))
	})
	r.Get("/api/{key}/boom", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return New(Config{
		Address: strings.TrimPrefix(srv.URL, "http://"),
		APIKey:  testKey,
		Timeout: 5 * time.Second,
	}, testLogger())
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

func TestGetFullState(t *testing.T) {
	c := newTestBridge(t)

	var state struct {
		Lights map[string]struct {
			Name     string `json:"name"`
			UniqueID string `json:"uniqueid"`
		} `json:"lights"`
		Config struct {
			Name string `json:"name"`
		} `json:"config"`
	}
	if err := c.Get(context.Background(), "", &state); err != nil {
		t.Fatalf("get: %v", err)
	}

	if got := state.Lights["1"].UniqueID; got != "aa:01" {
		t.Errorf("light uniqueid = %q, want aa:01", got)
	}
	if state.Config.Name != "Home bridge" {
		t.Errorf("config name = %q", state.Config.Name)
	}
}

func TestGetSurfacesBridgeError(t *testing.T) {
	c := newTestBridge(t)
	c.apiKey = "badkey"
	c.baseURL = strings.Replace(c.baseURL, testKey, "badkey", 1)

	var out map[string]any
	err := c.Get(context.Background(), "", &out)
	if err == nil {
		t.Fatal("want error for unauthorized key")
	}

	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("error %v is not *Error", err)
	}
	if bridgeErr.Type != 1 {
		t.Errorf("error type = %d, want 1", bridgeErr.Type)
	}
}

func TestPostReturnsID(t *testing.T) {
	c := newTestBridge(t)

	id, err := c.Post(context.Background(), "groups", map[string]any{"name": "Lounge"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if id != "7" {
		t.Errorf("id = %q, want 7", id)
	}
}

func TestPostReturnsAddressForm(t *testing.T) {
	c := newTestBridge(t)

	id, err := c.Post(context.Background(), "rules", map[string]any{"name": "r"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if id != "/rules/3" {
		t.Errorf("id = %q, want /rules/3", id)
	}
}

func TestPutRejection(t *testing.T) {
	c := newTestBridge(t)

	if err := c.Put(context.Background(), "lights/1", map[string]any{"name": "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	err := c.Put(context.Background(), "lights/99", map[string]any{"name": "x"})
	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("error %v is not *Error", err)
	}
	if bridgeErr.Type != 201 {
		t.Errorf("error type = %d, want 201", bridgeErr.Type)
	}
}

func TestParseResultsStringSuccess(t *testing.T) {
	// Deletions report success as a bare string, not an object.
	results, err := parseResults([]byte(`[{"success":"/resourcelinks/5 deleted"}]`))
	if err != nil {
		t.Fatalf("parseResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if fields := results[0].successFields(); fields != nil {
		t.Errorf("string success decoded fields %v, want none", fields)
	}
}

func TestDelete(t *testing.T) {
	c := newTestBridge(t)
	if err := c.Delete(context.Background(), "resourcelinks/5"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestUnexpectedStatus(t *testing.T) {
	c := newTestBridge(t)

	var out map[string]any
	err := c.Get(context.Background(), "boom", &out)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
	}
}
