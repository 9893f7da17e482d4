package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Error is a validation failure carrying the message the downstream
// function reported.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Invoker is the behavior the orchestrator depends on.
type Invoker interface {
	// Invoke runs the downstream validation for jobID synchronously.
	// Failures are *Error values.
	Invoke(ctx context.Context, jobID string) error
}

// Config for the validation-function client.
type Config struct {
	GatewayURL   string        // function gateway base URL
	FunctionName string        // downstream function identifier
	Timeout      time.Duration // http client timeout
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = "http://127.0.0.1:9090"
	}
	if cfg.FunctionName == "" {
		cfg.FunctionName = "ValidateExcelFunction"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// Invoke posts {"jobId": ...} to the function's invocation endpoint and
// interprets the response payload. One attempt, no retries. The payload's
// own statusCode wins over the transport status; a payload errorMessage
// wins over both.
func (c *Client) Invoke(ctx context.Context, jobID string) error {
	start := time.Now()
	c.log.Info("validate.invoke.start", "job_id", jobID, "function", c.cfg.FunctionName)

	body, err := json.Marshal(map[string]string{"jobId": jobID})
	if err != nil {
		return &Error{Message: err.Error()}
	}
	url := strings.TrimRight(c.cfg.GatewayURL, "/") + "/functions/" + c.cfg.FunctionName + "/invocations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("validate.invoke.http_error",
			"job_id", jobID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return &Error{Message: err.Error()}
	}
	defer func(rc io.ReadCloser) {
		if err := rc.Close(); err != nil {
			c.log.Warn("validate response body close error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: err.Error()}
	}

	var payload struct {
		StatusCode   *int    `json:"statusCode"`
		ErrorMessage *string `json:"errorMessage"`
		Error        string  `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Error("validate.invoke.decode_error",
			"job_id", jobID, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return &Error{Message: fmt.Sprintf("decode validation response: %v", err)}
	}

	if payload.ErrorMessage != nil {
		c.log.Error("validate.invoke.function_error",
			"job_id", jobID, "error", *payload.ErrorMessage,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return &Error{Message: *payload.ErrorMessage}
	}

	status := resp.StatusCode
	if payload.StatusCode != nil {
		status = *payload.StatusCode
	}
	if status == http.StatusOK {
		c.log.Info("validate.invoke.ok",
			"job_id", jobID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	msg := payload.Error
	if msg == "" {
		msg = "Unknown error"
	}
	c.log.Error("validate.invoke.failed",
		"job_id", jobID, "status", status, "error", msg,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Error{Message: msg}
}
