package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/gym-slots/internal/ocr"
)

type OCRAdapter struct {
	e *ocr.Extractor
}

func NewOCRAdapter(e *ocr.Extractor, _ *slog.Logger) *OCRAdapter {
	return &OCRAdapter{e: e}
}

func (a *OCRAdapter) ExtractText(ctx context.Context, data []byte) (TextExtractionResult, error) {
	r, err := a.e.ExtractPDF(ctx, data)
	return TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		Method:     r.Method,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}, err
}
