package transport

import (
	"context"
	"encoding/json"
	"errors"

	"parts-bot/internal/domain"
	"parts-bot/internal/service"

	"go.uber.org/zap"
)

// LogPresenter is a presentation sink that writes structured events to
// the log. It stands in until a real chat transport is attached.
type LogPresenter struct {
	logger *zap.Logger
	media  *service.MediaCache
}

// NewLogPresenter creates a presenter that logs instead of rendering
func NewLogPresenter(logger *zap.Logger, media *service.MediaCache) *LogPresenter {
	return &LogPresenter{logger: logger, media: media}
}

func (p *LogPresenter) ShowProduct(_ context.Context, userID string, prod domain.Product) {
	// A real transport would resend the cached media reference here
	// instead of re-downloading the image.
	_, cached := p.media.Get(prod.Code)

	p.logger.Info("present product",
		zap.String("user_id", userID),
		zap.String("code", prod.Code),
		zap.Bool("media_cached", cached),
	)
}

func (p *LogPresenter) ShowMatches(_ context.Context, userID string, matches []domain.Product) {
	p.logger.Info("present matches", zap.String("user_id", userID), zap.Int("count", len(matches)))
}

func (p *LogPresenter) ShowCart(_ context.Context, userID string, lines []domain.CartLine, total int64) {
	p.logger.Info("present cart",
		zap.String("user_id", userID),
		zap.Int("lines", len(lines)),
		zap.Int64("total", total),
	)
}

func (p *LogPresenter) ShowModels(_ context.Context, userID string, models []string) {
	p.logger.Info("present models", zap.String("user_id", userID), zap.Int("count", len(models)))
}

func (p *LogPresenter) ShowModelPage(_ context.Context, userID string, page service.ModelPage) {
	p.logger.Info("present model page",
		zap.String("user_id", userID),
		zap.String("model", page.Model),
		zap.Int("page", page.Page),
		zap.Int("pages", page.Pages),
	)
}

func (p *LogPresenter) DeliverOrder(_ context.Context, recipientID string, o domain.Order, artifact []byte) {
	p.logger.Info("deliver order",
		zap.String("recipient", recipientID),
		zap.String("order_id", o.ID.String()),
		zap.Int("artifact_bytes", len(artifact)),
	)
}

func (p *LogPresenter) Notify(_ context.Context, userID string, n service.Notice) {
	p.logger.Info("notify user",
		zap.String("user_id", userID),
		zap.Int("kind", int(n.Kind)),
		zap.String("code", n.Product.Code),
	)
}

// JSONExporter produces a machine-readable order artifact. A real
// deployment swaps in a PDF exporter here.
type JSONExporter struct{}

func (JSONExporter) Export(o domain.Order) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// UnconfiguredTranscriber rejects voice input until a speech-to-text
// backend is attached.
type UnconfiguredTranscriber struct{}

var errNoTranscriber = errors.New("speech-to-text backend is not configured")

func (UnconfiguredTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return "", errNoTranscriber
}
