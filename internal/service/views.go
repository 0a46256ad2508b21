package service

import (
	"context"
	"log/slog"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/store"
)

// articleViews resolves tag ids to names for articles leaving the service layer.
type articleViews struct {
	store  *store.Store
	logger *slog.Logger
}

// build re-reads the given articles together with the user's tags from one
// snapshot and resolves names against it. The copies the caller holds may be
// older than a tag delete that has since committed; the snapshot never is.
//
// An article deleted since the caller loaded it keeps the caller's copy, minus
// any tag the snapshot no longer has.
func (v articleViews) build(ctx context.Context, userID string, articles ...*domain.Article) ([]*domain.ArticleView, error) {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	snap, err := v.store.LoadArticlesWithTags(ctx, userID, ids...)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}

	fresh := make(map[string]*domain.Article, len(snap.Articles))
	for _, a := range snap.Articles {
		fresh[a.ID] = a
	}
	catalog := domain.NewTagCatalog(snap.Tags)

	current := make([]*domain.Article, len(articles))
	for i, a := range articles {
		if f, ok := fresh[a.ID]; ok {
			current[i] = f
			continue
		}
		gone := *a
		gone.Tags = make([]string, 0, len(a.Tags))
		for _, tagID := range a.Tags {
			if _, ok := catalog[tagID]; ok {
				gone.Tags = append(gone.Tags, tagID)
			}
		}
		current[i] = &gone
	}
	return v.resolve(userID, current, catalog), nil
}

// fromSnapshot builds views of articles that were read in the same snapshot
// as the catalog, with no further store access.
func (v articleViews) fromSnapshot(userID string, articles []*domain.Article, tags []*domain.Tag) []*domain.ArticleView {
	return v.resolve(userID, articles, domain.NewTagCatalog(tags))
}

// resolve maps tag ids to names. A reference that does not resolve keeps its
// raw id as the name and is logged, so one bad reference never fails a read.
func (v articleViews) resolve(userID string, articles []*domain.Article, catalog domain.TagCatalog) []*domain.ArticleView {
	ids := make([][]string, len(articles))
	for i, a := range articles {
		ids[i] = a.Tags
	}
	names, unresolved := domain.ResolveTagNames(ids, catalog)
	if len(unresolved) > 0 {
		v.logger.Warn("tag reference did not resolve",
			"user_id", userID,
			"tag_ids", unresolved,
		)
	}

	views := make([]*domain.ArticleView, len(articles))
	for i, a := range articles {
		if a.Tags == nil {
			a.Tags = []string{}
		}
		views[i] = &domain.ArticleView{Article: a, TagNames: names[i]}
	}
	return views
}

// one builds a single view.
func (v articleViews) one(ctx context.Context, userID string, a *domain.Article) (*domain.ArticleView, error) {
	views, err := v.build(ctx, userID, a)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}
