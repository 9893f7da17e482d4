package constants

import "strings"

// Content types stamped on re-uploaded archive entries.
const (
	ContentTypePDF         = "application/pdf"
	ContentTypeSpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Minimum payload sizes in bytes. Entries below these are skipped as too small.
const (
	MinPDFSize         = 1024
	MinSpreadsheetSize = 2048
)

// Destination layout for extracted entries:
// Answer_Scripts_Zip_Files/<examCode>/<courseCode>/unzipped/<fileName>.
const (
	ZipFilesPrefix = "Answer_Scripts_Zip_Files"
	UnzippedDir    = "unzipped"
)

// SpreadsheetExtensions holds the accepted workbook extensions.
var SpreadsheetExtensions = map[string]struct{}{
	"xlsx": {},
	"xls":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
