// Package docextract turns uploaded document bytes into bounded plain-text
// excerpts, dispatching by file extension.
package docextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// RejectionMessage is the fixed reply for unsupported extensions.
const RejectionMessage = "Only .txt, .csv, or .pdf are supported."

// Excerpt is an ephemeral, bounded text extraction from an uploaded
// document. Unsupported marks files whose extension is not handled; such
// excerpts carry no text and must never reach the completion client.
type Excerpt struct {
	Text        string
	Truncated   bool
	Unsupported bool
}

// Extractor extracts bounded excerpts and short previews from documents.
type Extractor struct {
	// MaxChars bounds full excerpts, in characters (default 3000).
	MaxChars int
	// PreviewChars bounds previews, in characters (default 500).
	PreviewChars int
	// PreviewRows limits CSV preview sample rows (default 3).
	PreviewRows int
}

// New creates an extractor with the given excerpt bound.
func New(maxChars int) *Extractor {
	if maxChars <= 0 {
		maxChars = 3000
	}
	return &Extractor{
		MaxChars:     maxChars,
		PreviewChars: 500,
		PreviewRows:  3,
	}
}

// Supported reports whether the filename carries a handled extension.
// The match is an exact, case-sensitive suffix check.
func Supported(name string) bool {
	return strings.HasSuffix(name, ".txt") ||
		strings.HasSuffix(name, ".csv") ||
		strings.HasSuffix(name, ".pdf")
}

// Extract produces a bounded excerpt from the file's bytes.
// Unsupported extensions are not an error: the returned excerpt carries the
// Unsupported marker and the caller short-circuits. Malformed CSV/PDF input
// and unreadable bytes fail with an error.
func (e *Extractor) Extract(name string, r io.Reader) (Excerpt, error) {
	switch {
	case strings.HasSuffix(name, ".txt"):
		return e.extractText(name, r)
	case strings.HasSuffix(name, ".csv"):
		return e.extractCSV(name, r)
	case strings.HasSuffix(name, ".pdf"):
		return e.extractPDF(name, r)
	default:
		return Excerpt{Unsupported: true}, nil
	}
}

// Preview produces a short preview under the preview caps. Same per-format
// dispatch as Extract; PDFs read the first page only. Previews are for
// immediate display and never feed the completion client.
func (e *Extractor) Preview(name string, r io.Reader) (string, error) {
	switch {
	case strings.HasSuffix(name, ".txt"):
		content, err := io.ReadAll(r)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", name)
		}
		text, _ := truncateRunes(string(content), e.PreviewChars)
		return text, nil
	case strings.HasSuffix(name, ".csv"):
		df := dataframe.ReadCSV(r)
		if df.Error() != nil {
			return "", errors.Wrapf(df.Error(), "parse CSV %s", name)
		}
		return headRows(df, e.PreviewRows).String(), nil
	case strings.HasSuffix(name, ".pdf"):
		text, err := e.pdfFirstPage(name, r)
		if err != nil {
			return "", err
		}
		preview, _ := truncateRunes(text, e.PreviewChars)
		return preview, nil
	default:
		return "Unsupported file.", nil
	}
}

// AnalysisPrompt wraps an excerpt in the per-format analysis instruction.
// CSV excerpts are already self-describing reports and pass through as-is.
func AnalysisPrompt(name string, excerpt Excerpt) string {
	switch {
	case strings.HasSuffix(name, ".txt"):
		note := ""
		if excerpt.Truncated {
			note = "\n\n[Note: Text was truncated.]"
		}
		return fmt.Sprintf("Analyze this text file:\n\n%s%s", excerpt.Text, note)
	case strings.HasSuffix(name, ".csv"):
		return excerpt.Text
	case strings.HasSuffix(name, ".pdf"):
		return fmt.Sprintf("Analyze this PDF content:\n\n%s\n\n[Note: PDF content was truncated.]", excerpt.Text)
	default:
		return excerpt.Text
	}
}

func (e *Extractor) extractText(name string, r io.Reader) (Excerpt, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Excerpt{}, errors.Wrapf(err, "read %s", name)
	}
	text, truncated := truncateRunes(string(content), e.MaxChars)
	return Excerpt{Text: text, Truncated: truncated}, nil
}

func (e *Extractor) extractCSV(name string, r io.Reader) (Excerpt, error) {
	df := dataframe.ReadCSV(r)
	if df.Error() != nil {
		return Excerpt{}, errors.Wrapf(df.Error(), "parse CSV %s", name)
	}

	report := fmt.Sprintf(
		"This CSV file has %d rows and %d columns.\n\nColumns: %s\n\nSample rows:\n%s\n\nStats:\n%s",
		df.Nrow(),
		df.Ncol(),
		strings.Join(df.Names(), ", "),
		headRows(df, 5).String(),
		df.Describe().String(),
	)
	return Excerpt{Text: report}, nil
}

// extractPDF concatenates page text until the accumulated length exceeds the
// bound, then truncates to exactly the bound and stops reading further
// pages. PDF excerpts are always marked truncated.
func (e *Extractor) extractPDF(name string, r io.Reader) (Excerpt, error) {
	reader, err := pdfReader(name, r)
	if err != nil {
		return Excerpt{}, err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Excerpt{}, errors.Wrapf(err, "extract PDF page %d of %s", i, name)
		}
		sb.WriteString(text)
		if len([]rune(sb.String())) > e.MaxChars {
			break
		}
	}

	text, _ := truncateRunes(sb.String(), e.MaxChars)
	return Excerpt{Text: text, Truncated: true}, nil
}

func (e *Extractor) pdfFirstPage(name string, r io.Reader) (string, error) {
	reader, err := pdfReader(name, r)
	if err != nil {
		return "", err
	}
	if reader.NumPage() == 0 {
		return "", nil
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", errors.Wrapf(err, "extract PDF page 1 of %s", name)
	}
	return text, nil
}

func pdfReader(name string, r io.Reader) (*pdf.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "parse PDF %s", name)
	}
	return reader, nil
}

// headRows returns the first n rows of a dataframe, or the whole dataframe
// when it has n rows or fewer.
func headRows(df dataframe.DataFrame, n int) dataframe.DataFrame {
	if df.Nrow() <= n {
		return df
	}
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return df.Subset(indexes)
}

// truncateRunes bounds s to maxChars characters. Rune-level so multi-byte
// input is never split mid-character.
func truncateRunes(s string, maxChars int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s, false
	}
	return string(runes[:maxChars]), true
}
