package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/browserlog/browserlog/internal/model"
)

// policy strips every HTML element (script/style contents included) and
// escapes residual special characters, so sanitized values are safe both in
// an HTML log viewer and in a flat-text log.
var policy = bluemonday.StrictPolicy()

// Line sanitizes one single-line field: markup is stripped, and CR/LF are
// flattened to spaces so a value can never break log-entry framing.
func Line(s string) string {
	s = policy.Sanitize(s)
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Record sanitizes every string-valued field of an inbound record, including
// each stack trace line. It never fails; fields sanitize independently.
func Record(r *model.ErrorRecord) {
	r.Timestamp = Line(r.Timestamp)
	r.Message = Line(r.Message)
	r.Source = Line(r.Source)
	r.Context = Line(r.Context)
	r.UserAgent = Line(r.UserAgent)
	r.PageURL = Line(r.PageURL)
	r.EndpointDNS = Line(r.EndpointDNS)
	for i, line := range r.StackTrace {
		r.StackTrace[i] = Line(line)
	}
}
