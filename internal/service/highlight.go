package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/id"
	"github.com/curatorapp/curator-server/internal/sse"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

// HighlightService manages highlights on the user's articles.
type HighlightService struct {
	store     *store.Store
	validator *validation.Validator
	events    EventEmitter
	logger    *slog.Logger
}

// NewHighlightService creates a new highlight service.
func NewHighlightService(store *store.Store, validator *validation.Validator, events EventEmitter, logger *slog.Logger) *HighlightService {
	if events == nil {
		events = NoopEmitter{}
	}
	return &HighlightService{store: store, validator: validator, events: events, logger: logger}
}

// CreateHighlightInput holds the fields of a new highlight.
type CreateHighlightInput struct {
	Text        string             `json:"text" validate:"required,max=10000"`
	Annotations domain.Annotations `json:"annotations"`
	Color       string             `json:"color" validate:"max=20"`
	Position    domain.Position    `json:"position"`
}

// CreateHighlight marks a passage of one of the user's articles. The position
// is checked against the article content.
func (s *HighlightService) CreateHighlight(ctx context.Context, userID, articleID string, in CreateHighlightInput) (*domain.Highlight, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	highlightID, err := id.Generate(id.PrefixHighlight)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate highlight id")
	}
	h := &domain.Highlight{
		Owned:       domain.Owned{ID: highlightID, UserID: userID},
		ArticleID:   articleID,
		Text:        in.Text,
		Annotations: in.Annotations,
		Color:       strings.TrimSpace(in.Color),
		Position:    in.Position,
	}
	h.InitTimestamps()

	if err := s.store.CreateHighlight(ctx, h); err != nil {
		return nil, storeError(err, hideForeign)
	}

	s.logger.Debug("highlight created", "highlight_id", h.ID, "article_id", articleID, "user_id", userID)
	s.events.Emit(sse.NewHighlightCreatedEvent(h))
	return h, nil
}

// ListHighlights returns an article's highlights in reading order.
func (s *HighlightService) ListHighlights(ctx context.Context, userID, articleID string) ([]*domain.Highlight, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	highlights, err := s.store.ListHighlights(ctx, userID, articleID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	if highlights == nil {
		highlights = []*domain.Highlight{}
	}
	return highlights, nil
}

// DeleteHighlight removes one of the user's highlights.
func (s *HighlightService) DeleteHighlight(ctx context.Context, userID, highlightID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	h, err := s.store.DeleteHighlight(ctx, userID, highlightID)
	if err != nil {
		return storeError(err, hideForeign)
	}
	s.events.Emit(sse.NewHighlightDeletedEvent(h))
	return nil
}
