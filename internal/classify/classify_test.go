package classify

import "testing"

func TestIsJunk(t *testing.T) {
	t.Parallel()

	junk := []string{
		"",
		"folder/",
		"__MACOSX/._ANS001.pdf",
		".DS_Store",
		"scripts/.DS_Store",
		"Thumbs.db",
		"desktop.ini",
		"IconCache.db",
		"~$marks.xlsx",
		"backup.bak",
		"shortcut.lnk",
		".hidden.pdf",
		"draft~",
		"home/.Trash-1000/ANS001.pdf",
		"var/tmp/ANS001.pdf",
		"editor.swp",
		"session.swo",
		"run.log",
		"CacheData.bin",
	}
	for _, name := range junk {
		if !IsJunk(name) {
			t.Errorf("IsJunk(%q) = false, want true", name)
		}
	}

	clean := []string{
		"ANS001.pdf",
		"scripts/ANS002.PDF",
		"marks.xlsx",
		"Answer_Scripts/readme.txt",
		"tmpfile.pdf",
	}
	for _, name := range clean {
		if IsJunk(name) {
			t.Errorf("IsJunk(%q) = true, want false", name)
		}
	}
}

func TestClassifyPDF(t *testing.T) {
	t.Parallel()

	d := Classify("scripts/ANS001.pdf", 2048, false)
	if d.Kind != KindPDF {
		t.Fatalf("kind = %s, want %s", d.Kind, KindPDF)
	}
	if d.BaseName != "ANS001.pdf" {
		t.Fatalf("base = %q, want ANS001.pdf", d.BaseName)
	}
	if d.UniqueCode != "ANS001" {
		t.Fatalf("uniqueCode = %q, want ANS001", d.UniqueCode)
	}

	// 1024 is the floor, inclusive.
	if d := Classify("ANS002.pdf", 1024, false); d.Kind != KindPDF {
		t.Fatalf("at floor: kind = %s, want %s", d.Kind, KindPDF)
	}
	if d := Classify("ANS003.pdf", 1023, false); d.Kind != KindTooSmall {
		t.Fatalf("below floor: kind = %s, want %s", d.Kind, KindTooSmall)
	}
}

func TestClassifySpreadsheet(t *testing.T) {
	t.Parallel()

	if d := Classify("marks.xlsx", 2048, false); d.Kind != KindSpreadsheet {
		t.Fatalf("xlsx: kind = %s, want %s", d.Kind, KindSpreadsheet)
	}
	if d := Classify("marks.XLS", 2048, false); d.Kind != KindSpreadsheet {
		t.Fatalf("xls: kind = %s, want %s", d.Kind, KindSpreadsheet)
	}
	if d := Classify("marks.xlsx", 2047, false); d.Kind != KindTooSmall {
		t.Fatalf("below floor: kind = %s, want %s", d.Kind, KindTooSmall)
	}
	if d := Classify("second.xlsx", 4096, true); d.Kind != KindDuplicateSpreadsheet {
		t.Fatalf("taken: kind = %s, want %s", d.Kind, KindDuplicateSpreadsheet)
	}
	// Size gate runs before the duplicate gate.
	if d := Classify("second.xlsx", 100, true); d.Kind != KindTooSmall {
		t.Fatalf("small duplicate: kind = %s, want %s", d.Kind, KindTooSmall)
	}
}

func TestClassifyOtherAndEmpty(t *testing.T) {
	t.Parallel()

	if d := Classify("notes.txt", 1, false); d.Kind != KindOther {
		t.Fatalf("txt: kind = %s, want %s", d.Kind, KindOther)
	}
	if d := Classify("ANS001.pdf", 0, false); d.Kind != KindEmpty {
		t.Fatalf("empty: kind = %s, want %s", d.Kind, KindEmpty)
	}
	if d := Classify("__MACOSX/._x.pdf", 9999, false); d.Kind != KindJunk {
		t.Fatalf("junk: kind = %s, want %s", d.Kind, KindJunk)
	}
}
