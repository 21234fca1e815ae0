package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Ack is the acknowledgement shape returned by the ingestion endpoint.
// Capture agents and the web player parse these fields literally; do not
// rename or reorder them.
type Ack struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Logged sends the success acknowledgement, echoing the accepted timestamp.
func Logged(c echo.Context, timestamp string) error {
	return c.JSON(http.StatusOK, Ack{
		Status:    "success",
		Message:   "Error logged successfully",
		Timestamp: timestamp,
	})
}

// Failed sends a 500 with the "Failed to log error: <reason>" message.
func Failed(c echo.Context, reason string) error {
	return c.JSON(http.StatusInternalServerError, Ack{
		Status:  "error",
		Message: "Failed to log error: " + reason,
	})
}

// RateLimited sends the 429 denial.
func RateLimited(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, Ack{
		Status:  "error",
		Message: "Rate limit exceeded",
	})
}

// MethodNotAllowed sends the 405 for any method other than POST/OPTIONS.
func MethodNotAllowed(c echo.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, Ack{
		Status:  "error",
		Message: "Method not allowed",
	})
}
