package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kjusys/script-intake/constants"
	"github.com/kjusys/script-intake/internal/blob"
	"github.com/kjusys/script-intake/internal/pipeline"
	"github.com/kjusys/script-intake/internal/repository"
	"github.com/kjusys/script-intake/internal/trigger"
	"github.com/kjusys/script-intake/internal/utils"
	"github.com/kjusys/script-intake/internal/validate"
)

// Result is the structured outcome handed to every caller. StatusCode
// mirrors HTTP: 200 or 500. Process never panics and never returns a bare
// error; failures arrive here with the message that was stamped on the job.
type Result struct {
	StatusCode int    `json:"statusCode"`
	JobID      string `json:"jobId"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

const (
	resultSuccess = "SUCCESS"
	resultFailed  = "FAILED"
)

// Processor drives one archive-intake job end to end: normalize the
// trigger, track the job record through its states, extract and re-upload
// the archive, hand off to validation, and clean up.
type Processor struct {
	Jobs      repository.JobRepository
	Blobs     blob.Store
	Extractor *pipeline.Extractor
	Validator validate.Invoker
	DeleteZip bool
	Logger    *slog.Logger
}

func NewProcessor(jobs repository.JobRepository, blobs blob.Store, validator validate.Invoker, deleteZip bool, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Jobs:      jobs,
		Blobs:     blobs,
		Extractor: pipeline.NewExtractor(blobs, jobs, logger),
		Validator: validator,
		DeleteZip: deleteZip,
		Logger:    logger,
	}
}

// Process handles one raw trigger payload to completion or failure.
func (p *Processor) Process(ctx context.Context, raw []byte) Result {
	desc, err := trigger.Normalize(raw)
	if err != nil {
		// No job identifier exists yet, so there is nothing to stamp.
		p.Logger.Error("processor.trigger.invalid", "error", err)
		return Result{
			StatusCode: http.StatusInternalServerError,
			Status:     resultFailed,
			Error:      err.Error(),
		}
	}

	log := p.Logger.With("job_id", desc.JobID)
	if err := p.run(ctx, desc, log); err != nil {
		log.Error("processor.job.failed", "error", err)
		if uerr := p.Jobs.Update(ctx, desc.JobID, repository.Fields{
			"status": constants.JobStatusFailed,
			"error":  err.Error(),
		}); uerr != nil {
			log.Error("processor.job.failed_record_not_written", "error", uerr)
		}
		return Result{
			StatusCode: http.StatusInternalServerError,
			JobID:      desc.JobID,
			Status:     resultFailed,
			Error:      err.Error(),
		}
	}

	log.Info("processor.job.completed")
	return Result{
		StatusCode: http.StatusOK,
		JobID:      desc.JobID,
		Status:     resultSuccess,
	}
}

// run executes the state machine for one normalized trigger. Every returned
// error becomes the job's terminal FAILED record in Process.
func (p *Processor) run(ctx context.Context, desc *trigger.Descriptor, log *slog.Logger) error {
	log.Info("processor.job.start",
		"bucket", desc.Bucket,
		"key", desc.Key,
		"exam_code", desc.ExamCode,
		"course_code", desc.CourseCode,
		"source", desc.Source,
	)

	// 1) Create the record if this is the first sighting of the job.
	if err := p.Jobs.CreateIfAbsent(ctx, desc.JobID, repository.Fields{
		"type":        constants.JobTypeAnswerScript,
		"examCode":    desc.ExamCode,
		"courseCode":  desc.CourseCode,
		"uploadedBy":  desc.UploadedBy,
		"eventSource": desc.Source,
		"status":      constants.JobStatusPending,
		"progress":    0,
	}); err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	// 2) Extraction starts.
	if err := p.Jobs.Update(ctx, desc.JobID, repository.Fields{
		"status":      constants.JobStatusUnzipping,
		"currentStep": constants.StepExtracting,
		"progress":    10,
		"s3Bucket":    desc.Bucket,
		"s3Key":       desc.Key,
	}); err != nil {
		return fmt.Errorf("mark unzipping: %w", err)
	}

	archive, err := p.Blobs.Get(ctx, desc.Bucket, desc.Key)
	if err != nil {
		return fmt.Errorf("fetch archive: %w", err)
	}

	res, err := p.Extractor.Extract(ctx, pipeline.Input{
		JobID:      desc.JobID,
		Bucket:     desc.Bucket,
		Archive:    archive,
		ExamCode:   desc.ExamCode,
		CourseCode: desc.CourseCode,
	})
	if err != nil {
		return err
	}

	// 3) Extraction done; attach manifests and counts before handing off.
	if err := p.Jobs.Update(ctx, desc.JobID, repository.Fields{
		"status":              constants.JobStatusUnzipped,
		"progress":            40,
		"currentStep":         constants.StepStartingValidation,
		"totalFiles":          res.TotalEntries,
		"validFilesProcessed": res.ValidFilesProcessed,
		"totalPDFs":           len(res.PDFFiles),
		"pdfFiles":            res.PDFFiles,
		"excelFile":           res.ExcelFile,
		"unzipFolderPath":     res.UnzipFolderPath,
	}); err != nil {
		return fmt.Errorf("mark unzipped: %w", err)
	}

	// 4) Downstream validation, one synchronous attempt.
	if err := p.Validator.Invoke(ctx, desc.JobID); err != nil {
		msg := err.Error()
		var verr *validate.Error
		if errors.As(err, &verr) {
			msg = verr.Message
		}
		if uerr := p.Jobs.Update(ctx, desc.JobID, repository.Fields{
			"status": constants.JobStatusValidationFailed,
			"error":  "Validation failed: " + msg,
		}); uerr != nil {
			log.Error("processor.validation.record_not_written", "error", uerr)
		}
		// The outer boundary overwrites this with the generic FAILED record.
		return fmt.Errorf("validation function failed: %s", msg)
	}

	// 5) Validation passed; the source archive is no longer needed.
	if p.DeleteZip {
		p.deleteArchive(ctx, desc, log)
	}

	if err := p.Jobs.Update(ctx, desc.JobID, repository.Fields{
		"status": constants.JobStatusCompleted,
	}); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// deleteArchive removes the source zip after a fully validated run and
// stamps the deletion on the job record. Failures here are logged and
// swallowed; the job still completes.
func (p *Processor) deleteArchive(ctx context.Context, desc *trigger.Descriptor, log *slog.Logger) {
	if err := p.Blobs.Delete(ctx, desc.Bucket, desc.Key); err != nil {
		log.Warn("processor.zip_delete.failed",
			"bucket", desc.Bucket, "key", desc.Key, "error", err)
		return
	}
	log.Info("processor.zip_delete.ok", "bucket", desc.Bucket, "key", desc.Key)

	if err := p.Jobs.Update(ctx, desc.JobID, repository.Fields{
		"originalZipDeleted": true,
		"zipDeletedAt":       utils.ISTMillis(time.Now()),
	}); err != nil {
		log.Warn("processor.zip_delete.record_not_written", "error", err)
	}
}
