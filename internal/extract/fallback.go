package extract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
)

// Fallback runs primary and, when it fails with a service or parse error,
// secondary. Configuration errors are never downgraded.
type Fallback struct {
	primary   SlotExtractor
	secondary SlotExtractor
	logger    *slog.Logger
}

func NewFallback(primary, secondary SlotExtractor, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *Fallback) ExtractSlots(ctx context.Context, text, sourceURL string) (entity.Schedule, error) {
	s, err := f.primary.ExtractSlots(ctx, text, sourceURL)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, common.ErrAIService) && !errors.Is(err, common.ErrAIParse) {
		return entity.Schedule{}, err
	}
	f.logger.Warn("extract.fallback",
		"primary", f.primary.Name(),
		"secondary", f.secondary.Name(),
		"url", sourceURL,
		"error", err,
	)
	return f.secondary.ExtractSlots(ctx, text, sourceURL)
}
