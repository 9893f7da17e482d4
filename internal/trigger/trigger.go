package trigger

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/kjusys/script-intake/constants"
)

// ErrInvalidFormat is returned when a payload matches neither trigger shape.
var ErrInvalidFormat = errors.New("invalid trigger format")

// Descriptor is the canonical trigger, whichever shape it arrived in.
type Descriptor struct {
	JobID      string
	Bucket     string
	Key        string
	ExamCode   string
	CourseCode string
	UploadedBy string
	Source     string
}

// storageEvent is the bucket-notification envelope.
type storageEvent struct {
	Records []storageRecord `json:"Records"`
}

type storageRecord struct {
	EventSource string `json:"eventSource"`
	S3          struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// directInvocation is the flat caller-supplied shape. bucket is an accepted
// alias for s3Bucket.
type directInvocation struct {
	JobID      string `json:"jobId"`
	S3Bucket   string `json:"s3Bucket"`
	Bucket     string `json:"bucket"`
	S3Key      string `json:"s3Key"`
	ExamCode   string `json:"examCode"`
	CourseCode string `json:"courseCode"`
	UploadedBy string `json:"uploadedBy"`
}

// Normalize turns raw trigger JSON into a Descriptor. A storage-event
// envelope with records is inspected through its first record only; a flat
// object needs at least a jobId or an s3Key. Anything else is
// ErrInvalidFormat, returned before any persistence happens.
func Normalize(raw []byte) (*Descriptor, error) {
	var ev storageEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, ErrInvalidFormat
	}
	if len(ev.Records) > 0 {
		return fromStorageEvent(ev.Records[0])
	}

	var direct directInvocation
	if err := json.Unmarshal(raw, &direct); err != nil {
		return nil, ErrInvalidFormat
	}
	return fromDirectInvocation(direct)
}

func fromStorageEvent(rec storageRecord) (*Descriptor, error) {
	if rec.EventSource != "aws:s3" {
		return nil, ErrInvalidFormat
	}

	// Notification keys arrive percent-encoded with '+' for spaces. A key
	// that fails to decode is used as-is.
	key := rec.S3.Object.Key
	if decoded, err := url.QueryUnescape(key); err == nil {
		key = decoded
	}

	exam, course := deriveCodes(key)
	return &Descriptor{
		JobID:      newJobID(),
		Bucket:     rec.S3.Bucket.Name,
		Key:        key,
		ExamCode:   exam,
		CourseCode: course,
		UploadedBy: constants.UploaderAutoTrigger,
		Source:     constants.EventSourceS3,
	}, nil
}

func fromDirectInvocation(direct directInvocation) (*Descriptor, error) {
	if direct.JobID == "" && direct.S3Key == "" {
		return nil, ErrInvalidFormat
	}

	jobID := direct.JobID
	if jobID == "" {
		jobID = newJobID()
	}
	bucket := direct.S3Bucket
	if bucket == "" {
		bucket = direct.Bucket
	}

	exam, course := direct.ExamCode, direct.CourseCode
	if exam == "" || course == "" {
		derivedExam, derivedCourse := deriveCodes(direct.S3Key)
		if exam == "" {
			exam = derivedExam
		}
		if course == "" {
			course = derivedCourse
		}
	}

	uploadedBy := direct.UploadedBy
	if uploadedBy == "" {
		uploadedBy = constants.UploaderBackend
	}

	return &Descriptor{
		JobID:      jobID,
		Bucket:     bucket,
		Key:        direct.S3Key,
		ExamCode:   exam,
		CourseCode: course,
		UploadedBy: uploadedBy,
		Source:     constants.EventSourceDirect,
	}, nil
}

// deriveCodes reads exam and course codes out of a
// Answer_Scripts_Zip_Files/<examCode>/<courseCode>/... key. Keys with fewer
// than three segments after the prefix carry no codes.
func deriveCodes(key string) (string, string) {
	prefix := constants.ZipFilesPrefix + "/"
	if !strings.HasPrefix(key, prefix) {
		return constants.CodeUnknown, constants.CodeUnknown
	}
	parts := strings.Split(strings.TrimPrefix(key, prefix), "/")
	if len(parts) < 3 {
		return constants.CodeUnknown, constants.CodeUnknown
	}
	return parts[0], parts[1]
}

func newJobID() string {
	return "JOB-" + uuid.New().String()
}

// NewStorageEvent builds the notification envelope Normalize accepts on the
// storage path, with the key encoded the way bucket notifications deliver
// it. The local archive watcher uses it so both trigger sources share one
// entry point.
func NewStorageEvent(bucket, key string) []byte {
	var rec storageRecord
	rec.EventSource = "aws:s3"
	rec.S3.Bucket.Name = bucket
	rec.S3.Object.Key = encodeKey(key)
	raw, _ := json.Marshal(storageEvent{Records: []storageRecord{rec}})
	return raw
}

// encodeKey percent-encodes an object key with '+' for spaces, keeping the
// '/' separators literal.
func encodeKey(key string) string {
	return strings.ReplaceAll(url.QueryEscape(key), "%2F", "/")
}
