package entity

import "github.com/kjusys/script-intake/constants"

// FileManifest describes one re-uploaded archive entry. UniqueCode and
// S3Bucket are set for PDF and spreadsheet manifests only.
type FileManifest struct {
	S3Key      string `bson:"s3Key" json:"s3Key"`
	FileName   string `bson:"fileName" json:"fileName"`
	UniqueCode string `bson:"uniqueCode,omitempty" json:"uniqueCode,omitempty"`
	FileSize   int64  `bson:"fileSize" json:"fileSize"`
	S3Bucket   string `bson:"s3Bucket,omitempty" json:"s3Bucket,omitempty"`
}

// SkipRecord explains why an archive entry was not processed. Skips travel
// with extraction results and logs; they are never persisted.
type SkipRecord struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// JobRecord represents a processing-job document for data transfer between
// layers. Timestamps are IST-shifted epoch millis.
type JobRecord struct {
	JobID               string              `bson:"jobId" json:"jobId"`
	Type                string              `bson:"type" json:"type"`
	Status              constants.JobStatus `bson:"status" json:"status"`
	Progress            int                 `bson:"progress" json:"progress"`
	CurrentStep         string              `bson:"currentStep,omitempty" json:"currentStep,omitempty"`
	ExamCode            string              `bson:"examCode" json:"examCode"`
	CourseCode          string              `bson:"courseCode" json:"courseCode"`
	UploadedBy          string              `bson:"uploadedBy" json:"uploadedBy"`
	EventSource         string              `bson:"eventSource" json:"eventSource"`
	S3Bucket            string              `bson:"s3Bucket,omitempty" json:"s3Bucket,omitempty"`
	S3Key               string              `bson:"s3Key,omitempty" json:"s3Key,omitempty"`
	CreatedAt           int64               `bson:"createdAt" json:"createdAt"`
	UpdatedAt           int64               `bson:"updatedAt" json:"updatedAt"`
	TotalFiles          int                 `bson:"totalFiles,omitempty" json:"totalFiles,omitempty"`
	ValidFilesProcessed int                 `bson:"validFilesProcessed,omitempty" json:"validFilesProcessed,omitempty"`
	TotalPDFs           int                 `bson:"totalPDFs,omitempty" json:"totalPDFs,omitempty"`
	PDFFiles            []FileManifest      `bson:"pdfFiles,omitempty" json:"pdfFiles,omitempty"`
	ExcelFile           *FileManifest       `bson:"excelFile,omitempty" json:"excelFile,omitempty"`
	UnzipFolderPath     string              `bson:"unzipFolderPath,omitempty" json:"unzipFolderPath,omitempty"`
	Error               string              `bson:"error,omitempty" json:"error,omitempty"`
	OriginalZipDeleted  bool                `bson:"originalZipDeleted,omitempty" json:"originalZipDeleted,omitempty"`
	ZipDeletedAt        int64               `bson:"zipDeletedAt,omitempty" json:"zipDeletedAt,omitempty"`
}
