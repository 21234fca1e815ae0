package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the human-readable timestamp used in log entries and
// echoed back in ingestion acknowledgements.
const TimestampLayout = "2006-01-02 15:04:05"

// StackTrace is an ordered sequence of stack frame lines. Browsers commonly
// send the stack either as a JSON array or as one newline-separated string;
// both decode to the same shape.
type StackTrace []string

func (s *StackTrace) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		*s = lines
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if joined == "" {
		*s = nil
		return nil
	}
	*s = strings.Split(strings.ReplaceAll(joined, "\r\n", "\n"), "\n")
	return nil
}

// ErrorRecord is one reported client-side failure.
// Ingest payloads are JSON with these fields; only message is required.
type ErrorRecord struct {
	Timestamp    string     `json:"timestamp,omitempty"` // client-local; server time if absent
	Message      string     `json:"message"`             // required
	Source       string     `json:"source,omitempty"`
	Context      string     `json:"context,omitempty"`
	UserAgent    string     `json:"userAgent,omitempty"`
	PageURL      string     `json:"url,omitempty"`
	EndpointDNS  string     `json:"dns,omitempty"`
	CORSEnabled  bool       `json:"cors,omitempty"`
	HTTPSEnabled bool       `json:"https,omitempty"`
	StackTrace   StackTrace `json:"stack,omitempty"`
}

// ErrMissingMessage is returned by Validate when the record has no message.
var ErrMissingMessage = errors.New("missing required field: message")

// Validate checks the record invariants. A record without a message is a
// validation failure, never a silent default.
func (r *ErrorRecord) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrMissingMessage
	}
	return nil
}

// Normalize fills the defaulted fields: source "Unknown", context "General",
// and a server-side timestamp when the client did not send one.
func (r *ErrorRecord) Normalize(now time.Time) {
	if r.Source == "" {
		r.Source = "Unknown"
	}
	if r.Context == "" {
		r.Context = "General"
	}
	if r.Timestamp == "" {
		r.Timestamp = now.Format(TimestampLayout)
	}
}
