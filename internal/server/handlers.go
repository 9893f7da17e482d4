package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kjusys/script-intake/internal/common"
	"github.com/kjusys/script-intake/internal/processor"
	"github.com/kjusys/script-intake/internal/repository"
)

// Runner is the slice of the orchestrator the HTTP surface needs.
type Runner interface {
	Process(ctx context.Context, raw []byte) processor.Result
}

type Handler struct {
	runner Runner
	jobs   repository.JobRepository
	log    *slog.Logger
}

func NewHandler(runner Runner, jobs repository.JobRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, jobs: jobs, log: logger}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jobRequestSchema guards the direct-invocation endpoint. The events
// endpoint stays permissive: storage notification envelopes vary too much
// to pin down here, and the normalizer rejects what it cannot read.
var jobRequestSchema = jsonschema.MustCompileString("job-request.json", `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"jobId": {"type": "string", "minLength": 1},
		"s3Bucket": {"type": "string"},
		"bucket": {"type": "string"},
		"s3Key": {"type": "string", "minLength": 1},
		"examCode": {"type": "string"},
		"courseCode": {"type": "string"},
		"uploadedBy": {"type": "string"}
	},
	"anyOf": [
		{"required": ["jobId"]},
		{"required": ["s3Key"]}
	],
	"additionalProperties": false
}`)

// PostEvent accepts any recognized trigger shape and runs it to completion
// synchronously. The response body is the run result; its statusCode doubles
// as the HTTP status.
func (h *Handler) PostEvent(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{
			Code: "bad_request", Message: "unreadable request body",
		})
	}

	ctx := c.Request().Context()
	h.log.Info("server.event.received",
		"request_id", common.RequestIDFromContext(ctx), "bytes", len(raw))

	res := h.runner.Process(ctx, raw)
	return c.JSON(res.StatusCode, res)
}

// PostJob accepts the flat direct-invocation shape only, schema-checked
// before any state is touched.
func (h *Handler) PostJob(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{
			Code: "bad_request", Message: "unreadable request body",
		})
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{
			Code: "bad_request", Message: "body is not valid JSON",
		})
	}
	if err := jobRequestSchema.Validate(v); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{
			Code: "invalid_request", Message: err.Error(),
		})
	}

	ctx := c.Request().Context()
	h.log.Info("server.job.received",
		"request_id", common.RequestIDFromContext(ctx))

	res := h.runner.Process(ctx, raw)
	return c.JSON(res.StatusCode, res)
}

// GetJob returns the stored job record.
func (h *Handler) GetJob(c echo.Context) error {
	rec, err := h.jobs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, errorBody{
				Code: "not_found", Message: "job not found",
			})
		}
		h.log.Error("server.job.load_failed", "job_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody{
			Code: "internal_error", Message: "failed to load job",
		})
	}
	return c.JSON(http.StatusOK, rec)
}
