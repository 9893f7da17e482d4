package classify

import (
	"path"
	"strings"

	"github.com/kjusys/script-intake/constants"
)

// Kind routes one archive entry.
type Kind string

const (
	KindJunk                 Kind = "JUNK"
	KindEmpty                Kind = "EMPTY"
	KindTooSmall             Kind = "TOO_SMALL"
	KindPDF                  Kind = "PDF"
	KindSpreadsheet          Kind = "SPREADSHEET"
	KindDuplicateSpreadsheet Kind = "DUPLICATE_SPREADSHEET"
	KindOther                Kind = "OTHER"
)

// Skip reasons recorded for rejected entries.
const (
	ReasonJunk      = "Junk"
	ReasonEmpty     = "Empty"
	ReasonTooSmall  = "Too small"
	ReasonDuplicate = "Duplicate"
)

// junkMarkers are substrings of a lowercased base name that mark OS and
// editor droppings.
var junkMarkers = []string{
	"._", ".ds_store", ".spotlight-v100", ".trashes", ".fseventsd",
	".temporaryitems", ".appledouble", "__macosx", "thumbs.db",
	"desktop.ini", "iconcache.db", "~$", ".bak", ".lnk",
}

// Decision is the routing outcome for a single archive entry.
type Decision struct {
	Kind Kind
	// BaseName is the entry name with any directory prefix stripped.
	BaseName string
	// UniqueCode is the base name minus its extension; set for PDFs only.
	UniqueCode string
}

// baseName returns the text after the last slash. ZIP entry names are
// slash-separated regardless of platform, so path.Base's trailing-slash
// handling would be wrong here.
func baseName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// IsJunk reports whether name is an OS or editor dropping that should never
// be read or uploaded. It takes the full archive path: the trash and tmp
// markers match on the path, everything else on the base name.
func IsJunk(name string) bool {
	if name == "" {
		return true
	}
	base := baseName(name)
	if base == "" {
		return true
	}
	lower := strings.ToLower(base)
	for _, m := range junkMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	if strings.Contains(name, ".Trash-") || strings.Contains(name, "/tmp/") {
		return true
	}
	if strings.HasSuffix(lower, ".swp") || strings.HasSuffix(lower, ".swo") ||
		strings.HasSuffix(lower, ".log") || strings.Contains(lower, "cache") {
		return true
	}
	return false
}

// Classify decides how one archive entry is routed. It is pure: the only
// cross-entry fact it sees is spreadsheetTaken, set once a spreadsheet has
// been accepted for the job.
func Classify(name string, size int64, spreadsheetTaken bool) Decision {
	if IsJunk(name) {
		return Decision{Kind: KindJunk, BaseName: baseName(name)}
	}
	base := baseName(name)
	if size == 0 {
		return Decision{Kind: KindEmpty, BaseName: base}
	}
	ext := constants.NormalizeExt(path.Ext(base))
	switch {
	case ext == "pdf":
		if size < constants.MinPDFSize {
			return Decision{Kind: KindTooSmall, BaseName: base}
		}
		return Decision{
			Kind:       KindPDF,
			BaseName:   base,
			UniqueCode: strings.TrimSuffix(base, path.Ext(base)),
		}
	case isSpreadsheetExt(ext):
		if size < constants.MinSpreadsheetSize {
			return Decision{Kind: KindTooSmall, BaseName: base}
		}
		if spreadsheetTaken {
			return Decision{Kind: KindDuplicateSpreadsheet, BaseName: base}
		}
		return Decision{Kind: KindSpreadsheet, BaseName: base}
	default:
		return Decision{Kind: KindOther, BaseName: base}
	}
}

func isSpreadsheetExt(ext string) bool {
	_, ok := constants.SpreadsheetExtensions[ext]
	return ok
}
