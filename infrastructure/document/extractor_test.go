package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longParagraph = "The supplier will install a 5 MW photovoltaic array with tier one " +
	"modules, central inverters, and a remote monitoring platform within fourteen weeks."

// buildPDF produces a minimal single-font PDF with one text line per page.
func buildPDF(pages ...string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNewExtractor_Defaults(t *testing.T) {
	e := NewExtractor(Options{})
	assert.Equal(t, DefaultMaxFileSize, e.maxFileSize)
	assert.Equal(t, DefaultMinTextLength, e.minTextLength)
	assert.NotNil(t, e.logger)

	e = NewExtractor(Options{MaxFileSize: 10, MinTextLength: 3})
	assert.Equal(t, int64(10), e.maxFileSize)
	assert.Equal(t, 3, e.minTextLength)
}

func TestExtractor_ExtractText(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"txt", "tender.txt"},
		{"markdown", "tender.md"},
		{"upper case extension", "TENDER.TXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, []byte("# Tender\n\n"+longParagraph+"\n\n 3 \n"))

			doc, err := NewExtractor(Options{}).Extract(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, tt.file, doc.FileName)
			assert.Equal(t, MethodText, doc.Method)
			assert.Equal(t, "# Tender "+longParagraph, doc.Text)
			assert.Equal(t, len([]rune(doc.Text)), doc.TextLength)
			assert.Zero(t, doc.PageCount)
			assert.Positive(t, doc.SizeBytes)
		})
	}
}

func TestExtractor_ExtractPDF(t *testing.T) {
	path := writeFile(t, "proposal.pdf", buildPDF(longParagraph, "Warranty of twenty five years on all modules"))

	doc, err := NewExtractor(Options{}).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, MethodPages, doc.Method)
	assert.Contains(t, doc.Text, "photovoltaic")
	assert.Contains(t, doc.Text, "Warranty")
	assert.NotContains(t, doc.Text, "--- Page")
}

func TestExtractPages_BoundedByPageCount(t *testing.T) {
	path := writeFile(t, "proposal.pdf", buildPDF("First page text", "Second page text"))
	f, r, err := openPDF(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, 2, pageCount(r))

	tests := []struct {
		name    string
		pages   int
		want    []string
		notWant []string
	}{
		{"all pages", 2, []string{"--- Page 1 ---", "First page text", "--- Page 2 ---", "Second page text"}, nil},
		{"first page only", 1, []string{"--- Page 1 ---", "First page text"}, []string{"Page 2", "Second"}},
		{"no pages", 0, nil, []string{"Page", "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := extractPages(context.Background(), r, tt.pages)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, text, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, text, w)
			}
		})
	}
}

func TestExtractor_ExtractErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		opts    Options
		wantIs  error
		wantMsg string
	}{
		{
			name:    "empty path",
			setup:   func(*testing.T) string { return "" },
			wantMsg: "document path is empty",
		},
		{
			name:    "missing file",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.txt") },
			wantMsg: "file not found",
		},
		{
			name:    "directory",
			setup:   func(t *testing.T) string { return t.TempDir() },
			wantMsg: "is a directory",
		},
		{
			name:   "unsupported extension",
			setup:  func(t *testing.T) string { return writeFile(t, "bid.docx", []byte(longParagraph)) },
			wantIs: ErrUnsupportedFormat,
		},
		{
			name:   "too large",
			setup:  func(t *testing.T) string { return writeFile(t, "bid.txt", []byte(longParagraph)) },
			opts:   Options{MaxFileSize: 10},
			wantIs: ErrFileTooLarge,
		},
		{
			name:   "too little text",
			setup:  func(t *testing.T) string { return writeFile(t, "bid.txt", []byte("  short\n\n 1 \n")) },
			wantIs: ErrInsufficientText,
		},
		{
			name:    "corrupted pdf",
			setup:   func(t *testing.T) string { return writeFile(t, "bid.pdf", []byte("this is not a pdf at all")) },
			wantMsg: "corrupted PDF",
		},
		{
			name: "truncated pdf",
			setup: func(t *testing.T) string {
				data := buildPDF(longParagraph)
				return writeFile(t, "bid.pdf", data[:len(data)/2])
			},
			wantMsg: "bid.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)

			var err error
			require.NotPanics(t, func() {
				_, err = NewExtractor(tt.opts).Extract(context.Background(), path)
			})
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestExtractor_ExtractCancelled(t *testing.T) {
	path := writeFile(t, "proposal.pdf", buildPDF(longParagraph))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(Options{}).Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_Validate(t *testing.T) {
	e := NewExtractor(Options{})

	t.Run("valid pdf", func(t *testing.T) {
		v := e.Validate(writeFile(t, "proposal.pdf", buildPDF("one", "two", "three")))
		assert.True(t, v.Valid, v.Reason)
		assert.Equal(t, 3, v.PageCount)
		assert.Equal(t, "proposal.pdf", v.FileName)
		assert.Empty(t, v.Reason)
	})

	t.Run("valid text", func(t *testing.T) {
		v := e.Validate(writeFile(t, "tender.md", []byte("x")))
		assert.True(t, v.Valid)
		assert.Zero(t, v.PageCount)
		assert.Equal(t, int64(1), v.SizeBytes)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name   string
			path   string
			reason string
		}{
			{"missing", filepath.Join(t.TempDir(), "x.pdf"), "file not found"},
			{"extension", writeFile(t, "x.exe", []byte("MZ")), "unsupported document format"},
			{"corrupted", writeFile(t, "x.pdf", []byte("garbage")), "corrupted PDF"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				v := e.Validate(tt.path)
				assert.False(t, v.Valid)
				assert.Contains(t, v.Reason, tt.reason)
			})
		}
	})
}

func TestSizeMB(t *testing.T) {
	assert.Equal(t, 1.5, Document{SizeBytes: 3 * 512 * 1024}.SizeMB())
	assert.Equal(t, 50.0, Validation{SizeBytes: DefaultMaxFileSize}.SizeMB())
	assert.Zero(t, Document{}.SizeMB())
}
