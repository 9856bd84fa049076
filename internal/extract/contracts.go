package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

// TextExtractor is Stage 1: document bytes -> text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	Method     string // "pdf-text" | "pdf-pages" | "pdf-ocr"
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// SlotExtractor is Stage 2: text -> schedule (LLM or rules).
type SlotExtractor interface {
	ExtractSlots(ctx context.Context, text, sourceURL string) (entity.Schedule, error)
	Name() string
}
