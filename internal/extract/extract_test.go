package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestKindForMIME(t *testing.T) {
	cases := []struct {
		mime string
		want Kind
		ok   bool
	}{
		{"application/pdf", KindPDF, true},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", KindDOCX, true},
		{"text/plain", KindText, true},
		{"text/html", KindHTML, true},
		{"image/png", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := KindForMIME(tc.mime)
		if ok != tc.ok || got != tc.want {
			t.Errorf("KindForMIME(%q) = %q, %v; want %q, %v", tc.mime, got, ok, tc.want, tc.ok)
		}
	}
}

func TestKindForFilename(t *testing.T) {
	if k, ok := KindForFilename("lecture.PDF"); !ok || k != KindPDF {
		t.Errorf("KindForFilename(lecture.PDF) = %q, %v", k, ok)
	}
	if k, ok := KindForFilename("notes.docx"); !ok || k != KindDOCX {
		t.Errorf("KindForFilename(notes.docx) = %q, %v", k, ok)
	}
	if _, ok := KindForFilename("archive.tar.gz"); ok {
		t.Error("KindForFilename accepted .gz")
	}
	if _, ok := KindForFilename("README"); ok {
		t.Error("KindForFilename accepted extensionless name")
	}
}

func TestExtractPlainText(t *testing.T) {
	res, err := Extract([]byte("  The quick brown fox\njumps over the lazy dog.  "), KindText)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.WordCount != 9 {
		t.Errorf("WordCount = %d, want 9", res.WordCount)
	}
	if !strings.HasPrefix(res.Text, "The quick") {
		t.Errorf("Text not trimmed: %q", res.Text)
	}
	if res.CharCount != len(res.Text) {
		t.Errorf("CharCount = %d, want %d", res.CharCount, len(res.Text))
	}
}

func TestExtractEmptyText(t *testing.T) {
	if _, err := Extract([]byte("   \n\t  "), KindText); !errors.Is(err, ErrNoText) {
		t.Fatalf("Extract(whitespace) = %v, want ErrNoText", err)
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<html><head><style>body{color:red}</style><script>var x=1;</script></head>
<body><h1>Photosynthesis</h1><p>Plants convert light into energy.</p></body></html>`

	res, err := Extract([]byte(page), KindHTML)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(res.Text, "Photosynthesis") {
		t.Errorf("heading text missing: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Plants convert light") {
		t.Errorf("paragraph text missing: %q", res.Text)
	}
	if strings.Contains(res.Text, "color:red") || strings.Contains(res.Text, "var x") {
		t.Errorf("style/script leaked into text: %q", res.Text)
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip.Create: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("writing document.xml: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip.Close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t> paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	res, err := Extract(buildDOCX(t, doc), KindDOCX)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(res.Text, "First paragraph.") {
		t.Errorf("first paragraph missing: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Second paragraph.") {
		t.Errorf("split runs not joined: %q", res.Text)
	}
	if res.WordCount != 4 {
		t.Errorf("WordCount = %d, want 4", res.WordCount)
	}
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("other.xml")
	f.Write([]byte("<x/>"))
	w.Close()

	if _, err := Extract(buf.Bytes(), KindDOCX); err == nil {
		t.Fatal("Extract accepted a zip without word/document.xml")
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	if _, err := Extract([]byte("definitely not a pdf"), KindPDF); err == nil {
		t.Fatal("Extract accepted garbage PDF bytes")
	}
}

func TestExtractUnsupportedKind(t *testing.T) {
	if _, err := Extract([]byte("x"), Kind("rtf")); err == nil {
		t.Fatal("Extract accepted unsupported kind")
	}
}
