package ingest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeDoer struct {
	calls   []*http.Request
	bodies  []string
	resp    *http.Response
	respErr error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls = append(f.calls, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		f.bodies = append(f.bodies, string(b))
	}
	if f.respErr != nil {
		return nil, f.respErr
	}
	return f.resp, nil
}

func newResp(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestHTTPSender_Success(t *testing.T) {
	doer := &fakeDoer{resp: newResp(200, "")}
	s := newHTTPSender(doer, "https://example.com/ingest", "key123")
	r := s.send(context.Background(), []Event{{"method": "GET"}})
	if r.outcome != outcomeSuccess {
		t.Fatalf("want success, got %v err=%v", r.outcome, r.err)
	}
	req := doer.calls[0]
	if req.Header.Get("x-api-key") != "key123" {
		t.Fatalf("missing api key header")
	}
	if req.Header.Get("x-peekapi-sdk") != "go/"+SDKVersion {
		t.Fatalf("unexpected sdk header: %q", req.Header.Get("x-peekapi-sdk"))
	}
	if !strings.Contains(doer.bodies[0], `"GET"`) {
		t.Fatalf("body should contain the batch: %s", doer.bodies[0])
	}
}

func TestHTTPSender_RetryableStatuses(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		doer := &fakeDoer{resp: newResp(code, "boom")}
		s := newHTTPSender(doer, "https://example.com", "k")
		r := s.send(context.Background(), []Event{{"a": 1}})
		if r.outcome != outcomeRetryable {
			t.Fatalf("status %d should be retryable, got %v", code, r.outcome)
		}
	}
}

func TestHTTPSender_NonRetryableStatus(t *testing.T) {
	doer := &fakeDoer{resp: newResp(400, "bad request")}
	s := newHTTPSender(doer, "https://example.com", "k")
	r := s.send(context.Background(), []Event{{"a": 1}})
	if r.outcome != outcomeNonRetryable {
		t.Fatalf("400 should be non-retryable, got %v", r.outcome)
	}
}

func TestHTTPSender_TransportErrorIsRetryable(t *testing.T) {
	doer := &fakeDoer{respErr: errConnRefused{}}
	s := newHTTPSender(doer, "https://example.com", "k")
	r := s.send(context.Background(), []Event{{"a": 1}})
	if r.outcome != outcomeRetryable {
		t.Fatalf("transport error should be retryable, got %v", r.outcome)
	}
}

type errConnRefused struct{}

func (errConnRefused) Error() string { return "connection refused" }
