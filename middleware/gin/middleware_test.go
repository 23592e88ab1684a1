package ginmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/peekapi/sdk-go/pkg/ingest"
)

type fakeTracker struct {
	events []ingest.Event
}

func (f *fakeTracker) Track(event ingest.Event) { f.events = append(f.events, event) }

func (f *fakeTracker) IdentifyConsumer(headers map[string]string) (string, bool) {
	if v, ok := headers["x-api-key"]; ok {
		return v, true
	}
	return "", false
}

func (f *fakeTracker) Path(path string, query map[string][]string) string { return path }

func TestMiddleware_TracksSuccessfulRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := &fakeTracker{}
	r := gin.New()
	r.Use(New(tr))
	r.GET("/widgets", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	req.Header.Set("x-api-key", "consumer-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if len(tr.events) != 1 {
		t.Fatalf("expected exactly one tracked event, got %d", len(tr.events))
	}
	ev := tr.events[0]
	if ev["status_code"] != http.StatusOK {
		t.Fatalf("status_code = %v, want 200", ev["status_code"])
	}
	if ev["consumer_id"] != "consumer-1" {
		t.Fatalf("consumer_id = %v, want consumer-1", ev["consumer_id"])
	}
	if ev["method"] != http.MethodGet {
		t.Fatalf("method = %v, want GET", ev["method"])
	}
}

func TestMiddleware_PanicIsTrackedAsServerErrorThenReraised(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := &fakeTracker{}
	r := gin.New()
	r.Use(New(tr))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected the panic to be re-raised")
		}
		if len(tr.events) != 1 {
			t.Fatalf("expected the panic to be tracked exactly once, got %d", len(tr.events))
		}
		ev := tr.events[0]
		if ev["status_code"] != http.StatusInternalServerError {
			t.Fatalf("status_code = %v, want 500", ev["status_code"])
		}
		if ev["response_size"] != int64(0) {
			t.Fatalf("response_size = %v, want 0", ev["response_size"])
		}
	}()

	r.ServeHTTP(w, req)
}
