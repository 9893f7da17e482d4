package constants

// JobStatus is the canonical status for documents in the processing jobs
// collection.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending          JobStatus = "PENDING"           // record created, nothing started
	JobStatusUnzipping        JobStatus = "UNZIPPING"         // archive fetched, extraction in progress
	JobStatusUnzipped         JobStatus = "UNZIPPED"          // extraction done, validation handed off
	JobStatusCompleted        JobStatus = "COMPLETED"         // terminal success
	JobStatusValidationFailed JobStatus = "VALIDATION_FAILED" // downstream validation rejected the job
	JobStatusFailed           JobStatus = "FAILED"            // terminal failure
)
