package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/gym-slots/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdfinfo   string // binary name or absolute path; if empty -> "pdfinfo"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "jpn"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	// EnableOCR rasterizes and OCRs pages when the PDF carries no text layer.
	EnableOCR bool
	TempDir   string
}

type ExtractionResult struct {
	Text       string
	Pages      int
	Method     string // "pdf-text" | "pdf-pages" | "pdf-ocr"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, NewCommandRunner(logger), logger)
}

// NewExtractorWithRunner is NewExtractor with a custom command runner.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "jpn"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = NewCommandRunner(logger)
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

var pdfMagic = []byte("%PDF-")

// ExtractPDF returns the text of a PDF held in memory. Strategies are tried in
// order until one yields text: whole document, page by page, then OCR (when
// enabled). An unextractable document yields empty text and no error.
func (e *Extractor) ExtractPDF(ctx context.Context, data []byte) (ExtractionResult, error) {
	start := time.Now()
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), pdfMagic) {
		return ExtractionResult{}, common.ExtractionError("document is not a PDF", nil)
	}

	path, cleanup, err := e.spool(data)
	if err != nil {
		return ExtractionResult{}, common.ExtractionError("failed to spool document", err)
	}
	defer cleanup()

	res := ExtractionResult{Method: "pdf-text"}
	text, pages, warns, err := e.pdfToText(ctx, path)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		return res, common.ExtractionError("pdftotext failed: "+firstLine(warns), err)
	}

	if strings.TrimSpace(text) == "" {
		e.logger.Info("ocr.pdf.empty_text_layer", "fallback", "per-page")
		res.Method = "pdf-pages"
		text, pages, warns, err = e.pdfPagesText(ctx, path)
		res.Warnings = append(res.Warnings, warns...)
		if err != nil {
			return res, common.ExtractionError("per-page extraction failed: "+firstLine(warns), err)
		}
	}

	if strings.TrimSpace(text) == "" && e.cfg.EnableOCR {
		e.logger.Info("ocr.pdf.no_text", "fallback", "ocr", "lang", e.cfg.TesseractLang)
		res.Method = "pdf-ocr"
		text, pages, warns, err = e.pdfToOCR(ctx, path)
		res.Warnings = append(res.Warnings, warns...)
		if err != nil {
			return res, common.ExtractionError("ocr failed", err)
		}
	}

	res.Text = Normalize(text)
	res.Pages = pages
	res.Confidence = heuristicConfidence(res.Text)
	res.Duration = time.Since(start)
	e.logger.Debug("ocr.pdf.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len([]rune(res.Text)),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) spool(data []byte) (string, func(), error) {
	f, err := os.CreateTemp(e.cfg.TempDir, "gymslots-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove temp file", "path", f.Name(), "error", err)
		}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp pdf: %w", err)
	}
	return f.Name(), cleanup, nil
}

func firstLine(warns []string) string {
	for _, w := range warns {
		if w = strings.TrimSpace(w); w != "" {
			if i := strings.IndexByte(w, '\n'); i >= 0 {
				return w[:i]
			}
			return w
		}
	}
	return "no output"
}
