// Package document turns tender and proposal files into cleaned plain text
// suitable for model prompts. Plain text and Markdown files are read
// directly; PDF files go through a page-by-page extractor with a
// whole-document fallback.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultMaxFileSize is the largest file the extractor accepts.
	DefaultMaxFileSize int64 = 50 * 1024 * 1024

	// DefaultMinTextLength is the shortest cleaned text considered useful.
	DefaultMinTextLength = 50

	// pageFallbackThreshold is the trimmed length below which page-by-page
	// output is considered a miss and the stream strategy is tried.
	pageFallbackThreshold = 100
)

// Extraction methods reported in Document.Method.
const (
	MethodText       = "text"
	MethodPages      = "pdf-pages"
	MethodTextStream = "pdf-stream"
)

var (
	// ErrUnsupportedFormat indicates that the file extension is not handled.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrFileTooLarge indicates that the file exceeds the size cap.
	ErrFileTooLarge = errors.New("document too large")

	// ErrInsufficientText indicates that too little text survived cleaning.
	ErrInsufficientText = errors.New("insufficient text extracted")
)

var supportedExtensions = map[string]bool{".pdf": true, ".txt": true, ".md": true}

// Options configures an Extractor. Zero values select the defaults.
type Options struct {
	MaxFileSize   int64
	MinTextLength int
	Logger        *zap.Logger
}

// Document is the result of a successful extraction.
type Document struct {
	Text       string
	FileName   string
	SizeBytes  int64
	TextLength int
	PageCount  int
	Method     string
}

// SizeMB reports the file size in megabytes rounded to two decimals.
func (d Document) SizeMB() float64 { return roundMB(d.SizeBytes) }

// Validation describes a file without extracting its text.
type Validation struct {
	Valid     bool
	FileName  string
	SizeBytes int64
	PageCount int
	Reason    string
}

// SizeMB reports the file size in megabytes rounded to two decimals.
func (v Validation) SizeMB() float64 { return roundMB(v.SizeBytes) }

// Extractor reads documents from disk. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	maxFileSize   int64
	minTextLength int
	logger        *zap.Logger
}

// NewExtractor creates an Extractor with opts applied over the defaults.
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{
		maxFileSize:   DefaultMaxFileSize,
		minTextLength: DefaultMinTextLength,
		logger:        opts.Logger,
	}
	if opts.MaxFileSize > 0 {
		e.maxFileSize = opts.MaxFileSize
	}
	if opts.MinTextLength > 0 {
		e.minTextLength = opts.MinTextLength
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Extract reads path and returns its cleaned text.
func (e *Extractor) Extract(ctx context.Context, path string) (Document, error) {
	info, ext, err := e.stat(path)
	if err != nil {
		return Document{}, err
	}

	doc := Document{FileName: filepath.Base(path), SizeBytes: info.Size()}
	log := e.logger.With(zap.String("file", doc.FileName))

	var raw string
	switch ext {
	case ".pdf":
		raw, doc.PageCount, doc.Method, err = e.extractPDF(ctx, path, log)
	default:
		raw, err = readText(path)
		doc.Method = MethodText
	}
	if err != nil {
		return Document{}, err
	}

	doc.Text = CleanText(raw)
	doc.TextLength = len([]rune(doc.Text))
	if doc.TextLength < e.minTextLength {
		return Document{}, fmt.Errorf("%w from %s: %d characters, need at least %d",
			ErrInsufficientText, doc.FileName, doc.TextLength, e.minTextLength)
	}

	log.Debug("document extracted",
		zap.String("method", doc.Method),
		zap.Int("pages", doc.PageCount),
		zap.Int("characters", doc.TextLength))
	return doc, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string, log *zap.Logger) (string, int, string, error) {
	f, r, err := openPDF(path)
	if err != nil {
		return "", 0, "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	pages := pageCount(r)
	text, err := extractPages(ctx, r, pages)
	if err != nil {
		return "", 0, "", err
	}
	if len(strings.TrimSpace(text)) >= pageFallbackThreshold {
		return text, pages, MethodPages, nil
	}

	log.Debug("page extraction yielded little text, trying text stream",
		zap.Int("characters", len(strings.TrimSpace(text))))

	stream, err := extractStream(r)
	if err != nil {
		log.Warn("text stream extraction failed", zap.Error(err))
		return text, pages, MethodPages, nil
	}
	if len(strings.TrimSpace(stream)) > len(strings.TrimSpace(text)) {
		return stream, pages, MethodTextStream, nil
	}
	return text, pages, MethodPages, nil
}

// Validate checks that path exists, has a supported extension, fits the
// size cap and can be opened. Text is not extracted.
func (e *Extractor) Validate(path string) Validation {
	v := Validation{FileName: filepath.Base(path)}

	info, ext, err := e.stat(path)
	if info != nil {
		v.SizeBytes = info.Size()
	}
	if err != nil {
		v.Reason = err.Error()
		return v
	}

	if ext == ".pdf" {
		f, r, err := openPDF(path)
		if err != nil {
			v.Reason = err.Error()
			return v
		}
		defer f.Close()
		v.PageCount = pageCount(r)
		if v.PageCount == 0 {
			v.Reason = "PDF has no pages"
			return v
		}
	} else if _, err := readText(path); err != nil {
		v.Reason = err.Error()
		return v
	}

	v.Valid = true
	return v
}

func (e *Extractor) stat(path string) (os.FileInfo, string, error) {
	if path == "" {
		return nil, "", errors.New("document path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("file not found: %s", path)
		}
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return info, "", fmt.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return info, ext, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if info.Size() > e.maxFileSize {
		return info, ext, fmt.Errorf("%w: %.2f MB exceeds %.0f MB",
			ErrFileTooLarge, roundMB(info.Size()), roundMB(e.maxFileSize))
	}
	return info, ext, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

func roundMB(size int64) float64 {
	mb := float64(size) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
