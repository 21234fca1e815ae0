package logstore

import (
	"strings"
	"time"

	"github.com/browserlog/browserlog/internal/model"
)

// Separator is the rule ending every entry. Downstream viewers split the
// file on this line; changing its width breaks them.
var Separator = strings.Repeat("-", 80)

func enabledWord(on bool) string {
	if on {
		return "Enabled"
	}
	return "Disabled"
}

// FormatEntry renders one accepted record as an application-log entry. The
// labeled fields appear in a fixed order that downstream log viewers parse;
// the stack trace block is present only when the record carries one.
func FormatEntry(rec *model.ErrorRecord, identity string) string {
	var b strings.Builder
	b.WriteString("[" + rec.Timestamp + "] [ERROR]\n")
	b.WriteString("Source: " + rec.Source + "\n")
	b.WriteString("Context: " + rec.Context + "\n")
	b.WriteString("Message: " + rec.Message + "\n")
	b.WriteString("URL: " + rec.PageURL + "\n")
	b.WriteString("User Agent: " + rec.UserAgent + "\n")
	b.WriteString("DNS: " + rec.EndpointDNS + "\n")
	b.WriteString("CORS: " + enabledWord(rec.CORSEnabled) + "\n")
	b.WriteString("HTTPS: " + enabledWord(rec.HTTPSEnabled) + "\n")
	if len(rec.StackTrace) > 0 {
		b.WriteString("Stack Trace:\n")
		for _, line := range rec.StackTrace {
			b.WriteString("    " + line + "\n")
		}
	}
	b.WriteString("IP: " + identity + "\n")
	b.WriteString(Separator + "\n")
	return b.String()
}

// FormatMetaEntry renders a short entry for the transport and database
// categories (failures observed while handling telemetry itself).
func FormatMetaEntry(now time.Time, level, message, identity string) string {
	var b strings.Builder
	b.WriteString("[" + now.Format(model.TimestampLayout) + "] [" + level + "]\n")
	b.WriteString("Message: " + message + "\n")
	b.WriteString("IP: " + identity + "\n")
	b.WriteString(Separator + "\n")
	return b.String()
}
