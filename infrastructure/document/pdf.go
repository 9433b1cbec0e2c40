package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// openPDF opens path and returns a reader over it. Malformed files can make
// the PDF library panic, so the panic is converted into an error.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			if f != nil {
				_ = f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("corrupted PDF: %v", p)
		}
	}()

	f, r, err = pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, nil, fmt.Errorf("corrupted PDF: %w", err)
	}
	return f, r, nil
}

// extractPages reads the first pages pages of the document, prefixing each
// non-empty page with a "--- Page N ---" marker. Pages that fail are skipped.
// The count comes from pageCount so that a malformed page tree cannot panic
// here.
func extractPages(ctx context.Context, r *pdf.Reader, pages int) (string, error) {
	var parts []string
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := pageText(r, i)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i, text))
	}
	return strings.Join(parts, "\n\n"), nil
}

func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("page %d: %v", num, p)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// extractStream reads the whole document as one plain-text stream.
func extractStream(r *pdf.Reader) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("text stream: %v", p)
		}
	}()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func pageCount(r *pdf.Reader) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return r.NumPage()
}
