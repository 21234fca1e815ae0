// Package capture is the client-side telemetry agent. A host application
// creates one Agent pointed at the ingestion endpoint and reports failures
// through it, either explicitly via Report or through the global hooks.
// Reporting is fire-and-forget: it never blocks the caller and never raises.
package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/browserlog/browserlog/internal/model"
)

const defaultTimeout = 5 * time.Second

// Options configures an Agent. Endpoint is required; the ambient fields are
// attached verbatim to every record the agent builds.
type Options struct {
	Endpoint     string
	UserAgent    string
	PageURL      string
	EndpointDNS  string
	CORSEnabled  bool
	HTTPSEnabled bool
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zerolog.Logger // local debug channel; nil disables it
}

// Agent relays failure reports to the ingestion endpoint.
type Agent struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
	opts     Options
}

// New returns an Agent for the given options.
func New(opts Options) *Agent {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Agent{
		endpoint: opts.Endpoint,
		client:   client,
		log:      log,
		opts:     opts,
	}
}

// Report builds an Error Record from the failure value and transmits it
// asynchronously. Transport failures are swallowed (mirrored to the local
// debug channel only); the calling code path is never held up or failed.
func (a *Agent) Report(failure any, source, context string) {
	a.report(failure, source, context, nil)
}

// Recover is the hook for uncaught synchronous failures. Use it deferred at
// the top of a frame; a panic is captured, reported with its stack, and not
// re-raised.
func (a *Agent) Recover(source, context string) {
	if r := recover(); r != nil {
		a.report(r, source, context, stackLines())
	}
}

// Go is the hook for asynchronous failures. It runs fn on its own goroutine;
// a panic or returned error is captured and reported instead of crashing the
// process.
func (a *Agent) Go(source, context string, fn func() error) {
	go func() {
		defer a.Recover(source, context)
		if err := fn(); err != nil {
			a.Report(err, source, context)
		}
	}()
}

func (a *Agent) report(failure any, source, context string, stack []string) {
	rec := &model.ErrorRecord{
		Timestamp:    time.Now().Format(model.TimestampLayout),
		Message:      messageOf(failure),
		Source:       source,
		Context:      context,
		UserAgent:    a.opts.UserAgent,
		PageURL:      a.opts.PageURL,
		EndpointDNS:  a.opts.EndpointDNS,
		CORSEnabled:  a.opts.CORSEnabled,
		HTTPSEnabled: a.opts.HTTPSEnabled,
		StackTrace:   stack,
	}
	go func() {
		defer func() {
			// Reporting must never become a failure of its own.
			_ = recover()
		}()
		a.send(rec)
	}()
}

func (a *Agent) send(rec *model.ErrorRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		a.log.Debug().Err(err).Msg("could not encode error report")
		return
	}
	resp, err := a.client.Post(a.endpoint, contentTypeJSON, bytes.NewReader(payload))
	if err != nil {
		a.log.Debug().Err(err).Msg("could not deliver error report")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.log.Debug().Int("status", resp.StatusCode).Msg("error report not accepted")
	}
}

const contentTypeJSON = "application/json"

func messageOf(failure any) string {
	switch v := failure.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func stackLines() []string {
	raw := strings.TrimRight(string(debug.Stack()), "\n")
	return strings.Split(raw, "\n")
}

// defaultAgent backs the process-wide hooks installed by
// InstallGlobalHandlers. A single slot keeps installation idempotent:
// reinstalling never duplicates reporting.
var defaultAgent atomic.Pointer[Agent]

// InstallGlobalHandlers makes this agent the target of the package-level
// Report, Recover and Go hooks. Safe to call more than once.
func (a *Agent) InstallGlobalHandlers() {
	defaultAgent.Store(a)
}

// Report relays to the installed agent; a no-op when none is installed.
func Report(failure any, source, context string) {
	if a := defaultAgent.Load(); a != nil {
		a.Report(failure, source, context)
	}
}

// Recover is the package-level synchronous hook for deferred use.
func Recover(source, context string) {
	if r := recover(); r != nil {
		if a := defaultAgent.Load(); a != nil {
			a.report(r, source, context, stackLines())
		}
	}
}

// Go is the package-level asynchronous hook. Without an installed agent the
// function still runs, with panics contained.
func Go(source, context string, fn func() error) {
	if a := defaultAgent.Load(); a != nil {
		a.Go(source, context, fn)
		return
	}
	go func() {
		defer func() { _ = recover() }()
		_ = fn()
	}()
}
