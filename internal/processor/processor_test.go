package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kjusys/script-intake/constants"
	"github.com/kjusys/script-intake/internal/blob"
	"github.com/kjusys/script-intake/internal/repository"
	"github.com/kjusys/script-intake/internal/validate"
)

type zipEntry struct {
	name string
	data []byte
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func pdfBytes(n int) []byte {
	header := []byte("%PDF-1.4\n")
	return append(header, bytes.Repeat([]byte{'a'}, n-len(header))...)
}

type fakeValidator struct {
	err       error
	calls     int
	lastJobID string
}

func (f *fakeValidator) Invoke(ctx context.Context, jobID string) error {
	f.calls++
	f.lastJobID = jobID
	return f.err
}

type env struct {
	repo  *repository.MemoryJobRepository
	store *blob.MemoryStore
	val   *fakeValidator
	proc  *Processor
}

func newEnv(deleteZip bool) *env {
	repo := repository.NewMemoryJobRepository()
	store := blob.NewMemoryStore()
	val := &fakeValidator{}
	return &env{
		repo:  repo,
		store: store,
		val:   val,
		proc:  NewProcessor(repo, store, val, deleteZip, nil),
	}
}

func (e *env) seed(t *testing.T, bucket, key string, archive []byte) {
	t.Helper()
	if err := e.store.Put(context.Background(), bucket, key, archive, blob.PutOptions{}); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
}

func directTrigger(jobID string) []byte {
	return []byte(fmt.Sprintf(`{
		"jobId": %q,
		"s3Bucket": "scripts",
		"s3Key": "Answer_Scripts_Zip_Files/EX2024/CS101/batch.zip",
		"examCode": "EX2024",
		"courseCode": "CS101",
		"uploadedBy": "BACKEND"
	}`, jobID))
}

const archiveKey = "Answer_Scripts_Zip_Files/EX2024/CS101/batch.zip"

func goodArchive(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, []zipEntry{
		{name: "answer.pdf", data: pdfBytes(2000)},
		{name: "marks.xlsx", data: bytes.Repeat([]byte{'x'}, 3000)},
		{name: ".DS_Store", data: []byte("junk")},
	})
}

func assertStatuses(t *testing.T, repo *repository.MemoryJobRepository, jobID string, want []string) {
	t.Helper()
	got := repo.Statuses(jobID)
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", got, want)
		}
	}
}

func TestProcessHappyPath(t *testing.T) {
	t.Parallel()

	e := newEnv(true)
	e.seed(t, "scripts", archiveKey, goodArchive(t))

	res := e.proc.Process(context.Background(), directTrigger("JOB-happy"))
	want := Result{StatusCode: 200, JobID: "JOB-happy", Status: "SUCCESS"}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}

	assertStatuses(t, e.repo, "JOB-happy",
		[]string{"PENDING", "UNZIPPING", "UNZIPPED", "COMPLETED"})
	if got := e.repo.Progresses("JOB-happy"); len(got) != 3 || got[0] != 0 || got[1] != 10 || got[2] != 40 {
		t.Errorf("progresses = %v, want [0 10 40]", got)
	}

	rec, err := e.repo.Get(context.Background(), "JOB-happy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != constants.JobStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", rec.Status)
	}
	if rec.TotalFiles != 3 || rec.TotalPDFs != 1 || rec.ValidFilesProcessed != 2 {
		t.Errorf("counts = total %d, pdfs %d, valid %d", rec.TotalFiles, rec.TotalPDFs, rec.ValidFilesProcessed)
	}
	if rec.ExcelFile == nil || rec.ExcelFile.FileName != "marks.xlsx" {
		t.Errorf("excelFile = %+v", rec.ExcelFile)
	}
	if rec.UnzipFolderPath != "Answer_Scripts_Zip_Files/EX2024/CS101/unzipped/" {
		t.Errorf("unzipFolderPath = %q", rec.UnzipFolderPath)
	}
	if !rec.OriginalZipDeleted || rec.ZipDeletedAt == 0 {
		t.Errorf("zip deletion not stamped: deleted=%v at=%d", rec.OriginalZipDeleted, rec.ZipDeletedAt)
	}

	if _, ok := e.store.Object("scripts", archiveKey); ok {
		t.Error("source archive still present after delete")
	}
	if _, ok := e.store.Object("scripts", rec.UnzipFolderPath+"answer.pdf"); !ok {
		t.Error("extracted pdf missing from store")
	}

	if e.val.calls != 1 || e.val.lastJobID != "JOB-happy" {
		t.Errorf("validator calls = %d, last = %q", e.val.calls, e.val.lastJobID)
	}
}

func TestProcessRejectsArchiveWithoutPDFs(t *testing.T) {
	t.Parallel()

	e := newEnv(false)
	e.seed(t, "scripts", archiveKey, buildZip(t, []zipEntry{
		{name: "tiny.pdf", data: pdfBytes(500)},
	}))

	res := e.proc.Process(context.Background(), directTrigger("JOB-nopdf"))
	if res.StatusCode != 500 || res.Status != "FAILED" {
		t.Fatalf("result = %+v, want 500 FAILED", res)
	}
	if res.Error != "No PDF files found" {
		t.Errorf("error = %q, want No PDF files found", res.Error)
	}

	assertStatuses(t, e.repo, "JOB-nopdf", []string{"PENDING", "UNZIPPING", "FAILED"})
	rec, err := e.repo.Get(context.Background(), "JOB-nopdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Error != "No PDF files found" {
		t.Errorf("persisted error = %q", rec.Error)
	}
	if e.val.calls != 0 {
		t.Errorf("validator called %d times for a failed extraction", e.val.calls)
	}
}

func TestProcessValidationFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(true)
	e.val.err = &validate.Error{Message: "bad header"}
	e.seed(t, "scripts", archiveKey, goodArchive(t))

	res := e.proc.Process(context.Background(), directTrigger("JOB-valfail"))
	if res.StatusCode != 500 || res.Status != "FAILED" {
		t.Fatalf("result = %+v, want 500 FAILED", res)
	}
	if !strings.Contains(res.Error, "bad header") {
		t.Errorf("error = %q, want it to carry the downstream message", res.Error)
	}

	assertStatuses(t, e.repo, "JOB-valfail",
		[]string{"PENDING", "UNZIPPING", "UNZIPPED", "VALIDATION_FAILED", "FAILED"})

	var sawValidationWrite bool
	for _, fields := range e.repo.History("JOB-valfail") {
		if msg, ok := fields["error"].(string); ok && msg == "Validation failed: bad header" {
			sawValidationWrite = true
		}
	}
	if !sawValidationWrite {
		t.Error("VALIDATION_FAILED write did not carry the Validation failed: prefix")
	}

	rec, err := e.repo.Get(context.Background(), "JOB-valfail")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Error != "validation function failed: bad header" {
		t.Errorf("final error = %q", rec.Error)
	}
	if _, ok := e.store.Object("scripts", archiveKey); !ok {
		t.Error("source archive deleted despite validation failure")
	}
}

func TestProcessInvalidTrigger(t *testing.T) {
	t.Parallel()

	e := newEnv(true)
	res := e.proc.Process(context.Background(), []byte(`{"what": "ever"}`))
	if res.StatusCode != 500 || res.Status != "FAILED" || res.JobID != "" {
		t.Fatalf("result = %+v, want 500 FAILED with no job id", res)
	}
	if res.Error != "invalid trigger format" {
		t.Errorf("error = %q", res.Error)
	}
	if e.val.calls != 0 {
		t.Errorf("validator called %d times", e.val.calls)
	}
	if e.store.Len() != 0 {
		t.Errorf("store has %d objects, want 0", e.store.Len())
	}
}

func TestProcessArchiveFetchFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(true)
	res := e.proc.Process(context.Background(), directTrigger("JOB-nofetch"))
	if res.StatusCode != 500 || !strings.Contains(res.Error, "fetch archive") {
		t.Fatalf("result = %+v, want fetch archive failure", res)
	}
	assertStatuses(t, e.repo, "JOB-nofetch", []string{"PENDING", "UNZIPPING", "FAILED"})
}

func TestProcessStorageEventTrigger(t *testing.T) {
	t.Parallel()

	e := newEnv(false)
	key := "Answer_Scripts_Zip_Files/EX 2024/CS101/batch.zip"
	e.seed(t, "scripts", key, buildZip(t, []zipEntry{
		{name: "answer.pdf", data: pdfBytes(2000)},
		{name: "marks.xlsx", data: bytes.Repeat([]byte{'x'}, 3000)},
	}))

	event := []byte(`{
		"Records": [{
			"eventSource": "aws:s3",
			"s3": {
				"bucket": {"name": "scripts"},
				"object": {"key": "Answer_Scripts_Zip_Files/EX+2024/CS101/batch.zip"}
			}
		}]
	}`)

	res := e.proc.Process(context.Background(), event)
	if res.StatusCode != 200 {
		t.Fatalf("result = %+v, want success", res)
	}
	if !strings.HasPrefix(res.JobID, "JOB-") {
		t.Errorf("jobId = %q, want generated JOB- prefix", res.JobID)
	}

	rec, err := e.repo.Get(context.Background(), res.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.UploadedBy != constants.UploaderAutoTrigger {
		t.Errorf("uploadedBy = %q", rec.UploadedBy)
	}
	if rec.EventSource != constants.EventSourceS3 {
		t.Errorf("eventSource = %q", rec.EventSource)
	}
	if rec.ExamCode != "EX 2024" || rec.CourseCode != "CS101" {
		t.Errorf("codes = %q/%q, want decoded EX 2024/CS101", rec.ExamCode, rec.CourseCode)
	}
}

type deleteFailStore struct {
	*blob.MemoryStore
	err error
}

func (s *deleteFailStore) Delete(ctx context.Context, bucket, key string) error {
	return s.err
}

func TestProcessZipDeleteFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryJobRepository()
	store := &deleteFailStore{
		MemoryStore: blob.NewMemoryStore(),
		err:         errors.New("access denied"),
	}
	val := &fakeValidator{}
	proc := NewProcessor(repo, store, val, true, nil)

	if err := store.Put(context.Background(), "scripts", archiveKey, goodArchive(t), blob.PutOptions{}); err != nil {
		t.Fatalf("seed archive: %v", err)
	}

	res := proc.Process(context.Background(), directTrigger("JOB-delfail"))
	if res.StatusCode != 200 || res.Status != "SUCCESS" {
		t.Fatalf("result = %+v, want success despite delete failure", res)
	}

	rec, err := repo.Get(context.Background(), "JOB-delfail")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != constants.JobStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", rec.Status)
	}
	if rec.OriginalZipDeleted {
		t.Error("originalZipDeleted stamped although deletion failed")
	}
}

func TestProcessDeleteZipDisabled(t *testing.T) {
	t.Parallel()

	e := newEnv(false)
	e.seed(t, "scripts", archiveKey, goodArchive(t))

	res := e.proc.Process(context.Background(), directTrigger("JOB-keepzip"))
	if res.StatusCode != 200 {
		t.Fatalf("result = %+v, want success", res)
	}
	if _, ok := e.store.Object("scripts", archiveKey); !ok {
		t.Error("source archive deleted with the toggle off")
	}
	rec, err := e.repo.Get(context.Background(), "JOB-keepzip")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.OriginalZipDeleted {
		t.Error("originalZipDeleted stamped with the toggle off")
	}
}

func TestProcessCreateJobFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(false)
	e.repo.CreateErr = errors.New("server selection timeout")
	e.seed(t, "scripts", archiveKey, goodArchive(t))

	res := e.proc.Process(context.Background(), directTrigger("JOB-dbdown"))
	if res.StatusCode != 500 || !strings.Contains(res.Error, "create job") {
		t.Fatalf("result = %+v, want create job failure", res)
	}
	assertStatuses(t, e.repo, "JOB-dbdown", []string{"FAILED"})
}
