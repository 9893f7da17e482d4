package constants

// JobTypeAnswerScript is the only job type this service creates.
const JobTypeAnswerScript = "ANSWER_SCRIPT_PROCESSING"

// Event sources recorded on the job document.
const (
	EventSourceS3     = "S3_EVENT"
	EventSourceDirect = "DIRECT_INVOCATION"
)

// Default uploader tags per trigger shape.
const (
	UploaderAutoTrigger = "S3_AUTO_TRIGGER"
	UploaderBackend     = "BACKEND"
)

// Current-step labels shown to status consumers.
const (
	StepExtracting         = "Extracting files"
	StepStartingValidation = "Starting validation"
)

// CodeUnknown tags jobs whose exam or course code could not be derived.
const CodeUnknown = "UNKNOWN"
