// Package errreport forwards unexpected server-side errors to an
// external collector. Validation failures are the client's problem and
// are never forwarded; storage failures are.
package errreport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/eeglab/taskdata/internal/logging"
)

// Reporter receives server-side errors for out-of-band collection.
type Reporter interface {
	// Report forwards err with a short description of what was being
	// attempted. Implementations must not block request handling on
	// collector availability.
	Report(ctx context.Context, op string, err error)
}

// Nop returns a reporter that discards everything. Used when no
// collector endpoint is configured.
func Nop() Reporter {
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, string, error) {}

// =============================================================================
// Webhook Reporter
// =============================================================================

// event is the JSON payload posted to the collector.
type event struct {
	Message     string `json:"message"`
	Operation   string `json:"operation"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

// Webhook posts error events to a collector URL as JSON. Delivery is
// fire-and-forget: a failed post is logged, never surfaced to the
// request that triggered it.
type Webhook struct {
	url         string
	environment string
	client      *http.Client
	log         *slog.Logger
}

// NewWebhook creates a webhook reporter targeting url.
func NewWebhook(url, environment string) *Webhook {
	return &Webhook{
		url:         url,
		environment: environment,
		client:      &http.Client{Timeout: 5 * time.Second},
		log:         logging.Component("errreport"),
	}
}

// Report implements Reporter.
func (w *Webhook) Report(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}

	payload, marshalErr := json.Marshal(event{
		Message:     err.Error(),
		Operation:   op,
		Environment: w.environment,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if marshalErr != nil {
		w.log.Warn("marshal error event", "error", marshalErr)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
		if reqErr != nil {
			w.log.Warn("build error report request", "error", reqErr)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := w.client.Do(req)
		if postErr != nil {
			w.log.Warn("deliver error report", "error", postErr)
			return
		}
		resp.Body.Close()
	}()
}
