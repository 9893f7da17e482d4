package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kjusys/script-intake/constants"
	"github.com/kjusys/script-intake/internal/blob"
	"github.com/kjusys/script-intake/internal/classify"
	"github.com/kjusys/script-intake/internal/entity"
	"github.com/kjusys/script-intake/internal/repository"
)

// Post-walk gates. The messages are persisted on failed jobs, so the exact
// text is load-bearing.
var (
	ErrNoExcelFile = errors.New("No Excel file found")
	ErrNoPDFFiles  = errors.New("No PDF files found")
)

// Input is one extraction request.
type Input struct {
	JobID      string
	Bucket     string
	Archive    []byte
	ExamCode   string
	CourseCode string
}

// Result is the outcome of walking one archive. Skipped entries travel here
// and in logs only; they are not persisted.
type Result struct {
	PDFFiles            []entity.FileManifest
	ExcelFile           *entity.FileManifest
	OtherFiles          []entity.FileManifest
	Skipped             []entity.SkipRecord
	TotalEntries        int
	ValidFilesProcessed int
	UnzipFolderPath     string
}

// Extractor walks a ZIP archive, classifies every entry, and re-uploads
// accepted ones under the job's unzipped prefix.
type Extractor struct {
	Blobs  blob.Store
	Jobs   repository.JobRepository
	Logger *slog.Logger
}

func NewExtractor(blobs blob.Store, jobs repository.JobRepository, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Blobs: blobs, Jobs: jobs, Logger: logger}
}

// Extract enumerates the archive in order. Directory markers are ignored,
// junk names are dropped before their bytes are read, and unreadable entries
// are skipped with the error text. Every tenth entry that completes routing
// checkpoints progress on the job record. When the walk accepts no
// spreadsheet or no PDF, the matching sentinel error is returned together
// with the partial result.
func (e *Extractor) Extract(ctx context.Context, in Input) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(in.Archive), int64(len(in.Archive)))
	if err != nil {
		e.Logger.Error("pipeline.extract.bad_archive", "job_id", in.JobID, "error", err)
		return nil, fmt.Errorf("open archive: %w", err)
	}

	prefix := fmt.Sprintf("%s/%s/%s/%s/",
		constants.ZipFilesPrefix, in.ExamCode, in.CourseCode, constants.UnzippedDir)
	res := &Result{
		TotalEntries:    len(zr.File),
		UnzipFolderPath: prefix,
	}

	log := e.Logger.With("job_id", in.JobID)
	log.Info("pipeline.extract.start", "entries", res.TotalEntries, "prefix", prefix)

	for idx, f := range zr.File {
		name := f.Name
		if strings.HasSuffix(name, "/") {
			continue
		}
		if classify.IsJunk(name) {
			res.Skipped = append(res.Skipped, entity.SkipRecord{FileName: name, Reason: classify.ReasonJunk})
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			log.Warn("pipeline.extract.unreadable_entry", "entry", name, "error", err)
			res.Skipped = append(res.Skipped, entity.SkipRecord{FileName: name, Reason: err.Error()})
			continue
		}

		d := classify.Classify(name, int64(len(data)), res.ExcelFile != nil)
		switch d.Kind {
		case classify.KindJunk:
			res.Skipped = append(res.Skipped, entity.SkipRecord{FileName: name, Reason: classify.ReasonJunk})
			continue
		case classify.KindEmpty:
			res.Skipped = append(res.Skipped, entity.SkipRecord{FileName: d.BaseName, Reason: classify.ReasonEmpty})
			continue
		case classify.KindTooSmall:
			res.Skipped = append(res.Skipped, entity.SkipRecord{FileName: d.BaseName, Reason: classify.ReasonTooSmall})
			continue
		case classify.KindDuplicateSpreadsheet:
			// The first accepted spreadsheet owns the slot; duplicates are
			// recorded but never uploaded.
			res.Skipped = append(res.Skipped, entity.SkipRecord{FileName: d.BaseName, Reason: classify.ReasonDuplicate})
		case classify.KindPDF:
			destKey := prefix + d.BaseName
			if err := e.Blobs.Put(ctx, in.Bucket, destKey, data, blob.PutOptions{
				ContentType: constants.ContentTypePDF,
				Encrypt:     true,
			}); err != nil {
				return res, fmt.Errorf("upload %s: %w", destKey, err)
			}
			res.PDFFiles = append(res.PDFFiles, entity.FileManifest{
				S3Key:      destKey,
				FileName:   d.BaseName,
				UniqueCode: d.UniqueCode,
				FileSize:   int64(len(data)),
				S3Bucket:   in.Bucket,
			})
			res.ValidFilesProcessed++
		case classify.KindSpreadsheet:
			destKey := prefix + d.BaseName
			if err := e.Blobs.Put(ctx, in.Bucket, destKey, data, blob.PutOptions{
				ContentType: constants.ContentTypeSpreadsheet,
				Encrypt:     true,
			}); err != nil {
				return res, fmt.Errorf("upload %s: %w", destKey, err)
			}
			res.ExcelFile = &entity.FileManifest{
				S3Key:    destKey,
				FileName: d.BaseName,
				FileSize: int64(len(data)),
				S3Bucket: in.Bucket,
			}
			res.ValidFilesProcessed++
		case classify.KindOther:
			destKey := prefix + d.BaseName
			if err := e.Blobs.Put(ctx, in.Bucket, destKey, data, blob.PutOptions{
				Encrypt: true,
			}); err != nil {
				return res, fmt.Errorf("upload %s: %w", destKey, err)
			}
			res.OtherFiles = append(res.OtherFiles, entity.FileManifest{
				S3Key:    destKey,
				FileName: d.BaseName,
				FileSize: int64(len(data)),
			})
			res.ValidFilesProcessed++
		}

		if (idx+1)%10 == 0 {
			progress := 10 + (idx+1)*30/res.TotalEntries
			if err := e.Jobs.Update(ctx, in.JobID, repository.Fields{"progress": progress}); err != nil {
				return res, fmt.Errorf("progress update: %w", err)
			}
		}
	}

	log.Info("pipeline.extract.done",
		"total", res.TotalEntries,
		"accepted", res.ValidFilesProcessed,
		"pdfs", len(res.PDFFiles),
		"skipped", len(res.Skipped),
	)

	if len(res.PDFFiles) == 0 {
		return res, ErrNoPDFFiles
	}
	if res.ExcelFile == nil {
		return res, ErrNoExcelFile
	}
	return res, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	return io.ReadAll(rc)
}
