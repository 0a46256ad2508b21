package store

import (
	"cmp"
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/curatorapp/curator-server/internal/domain"
)

// CreateHighlight stores a highlight on one of the user's articles. The
// position is validated against the article content inside the transaction.
func (s *Store) CreateHighlight(ctx context.Context, h *domain.Highlight) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		a, err := loadArticle(txn, h.UserID, h.ArticleID)
		if err != nil {
			return err
		}
		if err := h.Position.Validate(a.Content); err != nil {
			return err
		}
		if err := setJSON(txn, highlightKey(h.ID), h); err != nil {
			return err
		}
		return txn.Set([]byte(highlightArticleKey(h.ArticleID, h.ID)), nil)
	})
}

// GetHighlight retrieves a highlight by ID regardless of owner.
func (s *Store) GetHighlight(ctx context.Context, highlightID string) (*domain.Highlight, error) {
	var h domain.Highlight
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, highlightKey(highlightID), &h, ErrHighlightNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHighlights returns the highlights of one of the user's articles in
// position order.
func (s *Store) ListHighlights(ctx context.Context, userID, articleID string) ([]*domain.Highlight, error) {
	var highlights []*domain.Highlight
	err := s.view(ctx, func(txn *badger.Txn) error {
		highlights = nil
		if _, err := loadArticle(txn, userID, articleID); err != nil {
			return err
		}
		return scanKeys(txn, highlightsByArticle+articleID+":", func(hlID string) error {
			var h domain.Highlight
			if err := getJSON(txn, highlightKey(hlID), &h, ErrHighlightNotFound); err != nil {
				return err
			}
			highlights = append(highlights, &h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByPosition(highlights)
	return highlights, nil
}

// DeleteHighlight removes one of the user's highlights.
func (s *Store) DeleteHighlight(ctx context.Context, userID, highlightID string) (*domain.Highlight, error) {
	var h domain.Highlight
	err := s.update(ctx, func(txn *badger.Txn) error {
		if err := getJSON(txn, highlightKey(highlightID), &h, ErrHighlightNotFound); err != nil {
			return err
		}
		if !h.OwnedBy(userID) {
			return ErrHighlightNotOwned
		}
		if err := txn.Delete([]byte(highlightKey(highlightID))); err != nil {
			return err
		}
		return deleteKey(txn, highlightArticleKey(h.ArticleID, highlightID))
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func sortByPosition(highlights []*domain.Highlight) {
	slices.SortStableFunc(highlights, func(a, b *domain.Highlight) int {
		return cmp.Compare(a.Position.Start, b.Position.Start)
	})
}
