package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/sse"
	"github.com/curatorapp/curator-server/internal/store"
)

// DefaultBulkConcurrency bounds per-article work when none is configured.
const DefaultBulkConcurrency = 8

// BulkService applies one intent to many articles.
//
// Every call is best effort: each article gets its own outcome and one failing
// article never stops the others. A call is rejected as a whole only for a
// missing user, an empty selection, an empty tag-name list or an invalid
// target status.
type BulkService struct {
	store       *store.Store
	tags        *TagService
	events      EventEmitter
	concurrency int
	logger      *slog.Logger
}

// NewBulkService creates a bulk service running at most concurrency article
// mutations at once.
func NewBulkService(store *store.Store, tags *TagService, events EventEmitter, concurrency int, logger *slog.Logger) *BulkService {
	if concurrency < 1 {
		concurrency = DefaultBulkConcurrency
	}
	if events == nil {
		events = NoopEmitter{}
	}
	return &BulkService{
		store:       store,
		tags:        tags,
		events:      events,
		concurrency: concurrency,
		logger:      logger,
	}
}

// BulkFavorite marks every selected article as a favorite.
func (s *BulkService) BulkFavorite(ctx context.Context, userID string, articleIDs []string) (*domain.BulkResult, error) {
	return s.mutateEach(ctx, userID, domain.BulkActionFavorite, articleIDs, func(a *domain.Article) bool {
		return a.SetFavorite(true)
	})
}

// BulkUnfavorite clears the favorite flag on every selected article.
func (s *BulkService) BulkUnfavorite(ctx context.Context, userID string, articleIDs []string) (*domain.BulkResult, error) {
	return s.mutateEach(ctx, userID, domain.BulkActionUnfavorite, articleIDs, func(a *domain.Article) bool {
		return a.SetFavorite(false)
	})
}

// BulkStatusChange moves every selected article to status.
func (s *BulkService) BulkStatusChange(ctx context.Context, userID string, articleIDs []string, status string) (*domain.BulkResult, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.mutateEach(ctx, userID, domain.BulkActionStatus, articleIDs, func(a *domain.Article) bool {
		return a.SetStatus(target)
	})
}

// BulkAdvanceStatus moves every selected article one queue forward. Archived
// articles stay archived and report success with changed=false.
func (s *BulkService) BulkAdvanceStatus(ctx context.Context, userID string, articleIDs []string) (*domain.BulkResult, error) {
	return s.mutateEach(ctx, userID, domain.BulkActionAdvance, articleIDs, func(a *domain.Article) bool {
		return a.Advance()
	})
}

// BulkTag resolves each distinct tag name once, creating missing tags, and
// attaches all of them to every selected article. Names are trimmed, blanks
// dropped and repeats collapsed by normalized form before anything is created.
func (s *BulkService) BulkTag(ctx context.Context, userID string, articleIDs, tagNames []string) (*domain.BulkResult, error) {
	ids, err := s.selection(userID, articleIDs)
	if err != nil {
		return nil, err
	}

	// The tag locks stay held for the whole fan-out so a deletion of one of
	// these tags runs entirely before or entirely after the batch.
	tags, unlock, err := s.tags.ResolveAndLock(ctx, userID, tagNames)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tagIDs := make([]string, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}

	result := s.fanOut(ctx, domain.BulkActionTag, ids, func(ctx context.Context, articleID string) (bool, error) {
		_, changed, err := s.store.MutateArticle(ctx, userID, articleID, func(a *domain.Article) (bool, error) {
			changed := false
			for _, tagID := range tagIDs {
				if a.AddTag(tagID) {
					changed = true
				}
			}
			return changed, nil
		})
		return changed, err
	})
	result.TagIDs = tagIDs

	s.finish(userID, result)
	return result, nil
}

// BulkDelete deletes every selected article with its highlights. Tags stay.
func (s *BulkService) BulkDelete(ctx context.Context, userID string, articleIDs []string) (*domain.BulkResult, error) {
	ids, err := s.selection(userID, articleIDs)
	if err != nil {
		return nil, err
	}

	result := s.fanOut(ctx, domain.BulkActionDelete, ids, func(ctx context.Context, articleID string) (bool, error) {
		highlightIDs, err := s.store.DeleteArticle(ctx, userID, articleID)
		if err != nil {
			return false, err
		}
		s.events.Emit(sse.NewArticleDeletedEvent(userID, articleID, highlightIDs))
		return true, nil
	})

	s.finish(userID, result)
	return result, nil
}

// mutateEach applies fn to each selected article in its own transaction.
func (s *BulkService) mutateEach(ctx context.Context, userID string, action domain.BulkAction, articleIDs []string, fn func(a *domain.Article) bool) (*domain.BulkResult, error) {
	ids, err := s.selection(userID, articleIDs)
	if err != nil {
		return nil, err
	}

	result := s.fanOut(ctx, action, ids, func(ctx context.Context, articleID string) (bool, error) {
		_, changed, err := s.store.MutateArticle(ctx, userID, articleID, func(a *domain.Article) (bool, error) {
			return fn(a), nil
		})
		return changed, err
	})

	s.finish(userID, result)
	return result, nil
}

// selection validates the caller and de-duplicates the article ids.
func (s *BulkService) selection(userID string, articleIDs []string) ([]string, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	ids := domain.DedupeIDs(articleIDs)
	if len(ids) == 0 {
		return nil, errors.Validation("at least one article id is required")
	}
	return ids, nil
}

// fanOut runs fn for every id with bounded concurrency and records one outcome
// per id. fn errors become outcomes; they never cancel the remaining work.
func (s *BulkService) fanOut(ctx context.Context, action domain.BulkAction, ids []string, fn func(ctx context.Context, articleID string) (bool, error)) *domain.BulkResult {
	result := domain.NewBulkResult(action, ids)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, articleID := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				result.Record(i, false, errors.Wrap(err, errors.CodeInternal, "request canceled"))
				return nil
			}
			changed, err := fn(ctx, articleID)
			result.Record(i, changed, storeError(err, hideForeign))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	result.Tally()
	return result
}

func (s *BulkService) finish(userID string, result *domain.BulkResult) {
	s.logger.Info("bulk operation finished",
		"action", result.Action,
		"user_id", userID,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	s.events.Emit(sse.NewBulkCompletedEvent(userID, result))
}
