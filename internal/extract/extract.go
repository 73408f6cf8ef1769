// Package extract turns uploaded document bytes into plain text with word
// and character counts. The declared type comes from a closed set; sniffing
// is never attempted.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind is a declared document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "txt"
	KindHTML Kind = "html"
)

// ErrNoText is returned when a document parses cleanly but contains no
// extractable text (scanned or image-only files, typically). Callers must
// reject such input before submitting a job.
var ErrNoText = errors.New("no extractable text in document")

// Result is extracted text plus its size statistics. Word counting follows
// whitespace splitting, so counts agree with what the allocator uses.
type Result struct {
	Text      string
	WordCount int
	CharCount int
}

// mimeKinds maps supported MIME types onto Kinds.
var mimeKinds = map[string]Kind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
	"text/plain": KindText,
	"text/html":  KindHTML,
}

// KindForMIME resolves a declared MIME type to a Kind.
func KindForMIME(mime string) (Kind, bool) {
	k, ok := mimeKinds[strings.ToLower(strings.TrimSpace(mime))]
	return k, ok
}

// KindForFilename resolves a filename extension to a Kind.
func KindForFilename(name string) (Kind, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", false
	}
	switch strings.ToLower(name[idx+1:]) {
	case "pdf":
		return KindPDF, true
	case "docx":
		return KindDOCX, true
	case "txt", "text", "md":
		return KindText, true
	case "html", "htm":
		return KindHTML, true
	default:
		return "", false
	}
}

// Extract parses data according to its declared kind and returns the text
// with counts. An unsupported kind or empty result is an error.
func Extract(data []byte, kind Kind) (Result, error) {
	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
	case KindDOCX:
		text, err = extractDOCX(data)
	case KindHTML:
		text, err = extractHTML(data)
	case KindText:
		text = string(data)
	default:
		return Result{}, fmt.Errorf("unsupported document kind %q", kind)
	}
	if err != nil {
		return Result{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrNoText
	}

	return Result{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		CharCount: utf8.RuneCountInString(text),
	}, nil
}
