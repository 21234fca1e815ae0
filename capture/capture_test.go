package capture

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/browserlog/browserlog/internal/model"
)

// recordSink collects records delivered to a fake ingestion endpoint.
func recordSink(t *testing.T) (*httptest.Server, chan model.ErrorRecord) {
	t.Helper()
	received := make(chan model.ErrorRecord, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec model.ErrorRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode report: %v", err)
		}
		received <- rec
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func waitForRecord(t *testing.T, ch chan model.ErrorRecord) model.ErrorRecord {
	t.Helper()
	select {
	case rec := <-ch:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("no report delivered")
		return model.ErrorRecord{}
	}
}

func TestReportDeliversRecord(t *testing.T) {
	srv, received := recordSink(t)
	agent := New(Options{
		Endpoint:     srv.URL,
		UserAgent:    "test-agent",
		PageURL:      "https://player.test/",
		EndpointDNS:  "iptv.example",
		HTTPSEnabled: true,
	})

	agent.Report(errors.New("TypeError: x is undefined"), "app.js", "render")

	rec := waitForRecord(t, received)
	if rec.Message != "TypeError: x is undefined" {
		t.Fatalf("message = %q", rec.Message)
	}
	if rec.Source != "app.js" || rec.Context != "render" {
		t.Fatalf("source/context = %q/%q", rec.Source, rec.Context)
	}
	if rec.UserAgent != "test-agent" || rec.EndpointDNS != "iptv.example" || !rec.HTTPSEnabled {
		t.Fatalf("ambient fields not attached: %+v", rec)
	}
	if rec.Timestamp == "" {
		t.Fatal("timestamp not set")
	}
}

func TestReportStringifiesNonErrorFailures(t *testing.T) {
	srv, received := recordSink(t)
	agent := New(Options{Endpoint: srv.URL})

	agent.Report(42, "worker", "decode")

	if rec := waitForRecord(t, received); rec.Message != "42" {
		t.Fatalf("message = %q, want %q", rec.Message, "42")
	}
}

func TestReportSwallowsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	agent := New(Options{Endpoint: srv.URL, Timeout: 200 * time.Millisecond})

	// Must not panic and must return immediately.
	done := make(chan struct{})
	go func() {
		agent.Report("unreachable endpoint", "app.js", "boot")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Report blocked on the network round-trip")
	}
}

func TestRecoverCapturesPanicWithStack(t *testing.T) {
	srv, received := recordSink(t)
	agent := New(Options{Endpoint: srv.URL})

	func() {
		defer agent.Recover("player.js", "playback")
		panic("stream position out of range")
	}()

	rec := waitForRecord(t, received)
	if rec.Message != "stream position out of range" {
		t.Fatalf("message = %q", rec.Message)
	}
	if len(rec.StackTrace) == 0 {
		t.Fatal("panic report carries no stack trace")
	}
}

func TestGoReportsReturnedError(t *testing.T) {
	srv, received := recordSink(t)
	agent := New(Options{Endpoint: srv.URL})

	agent.Go("epg.js", "refresh", func() error {
		return errors.New("schedule fetch failed")
	})

	if rec := waitForRecord(t, received); rec.Message != "schedule fetch failed" {
		t.Fatalf("message = %q", rec.Message)
	}
}

func TestGoContainsPanics(t *testing.T) {
	srv, received := recordSink(t)
	agent := New(Options{Endpoint: srv.URL})

	agent.Go("epg.js", "refresh", func() error {
		panic("nil schedule")
	})

	if rec := waitForRecord(t, received); rec.Message != "nil schedule" {
		t.Fatalf("message = %q", rec.Message)
	}
}

func TestGlobalHandlersAreIdempotent(t *testing.T) {
	srv, received := recordSink(t)
	agent := New(Options{Endpoint: srv.URL})
	agent.InstallGlobalHandlers()
	agent.InstallGlobalHandlers()
	t.Cleanup(func() { defaultAgent.Store(nil) })

	Report("single failure", "app.js", "boot")

	waitForRecord(t, received)
	select {
	case rec := <-received:
		t.Fatalf("duplicate report after reinstall: %+v", rec)
	case <-time.After(300 * time.Millisecond):
	}
}
