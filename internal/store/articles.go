package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/curatorapp/curator-server/internal/domain"
)

// CreateArticle stores a new article. Every tag id it carries must name an
// existing tag of the same owner, otherwise ErrDanglingTag is returned.
func (s *Store) CreateArticle(ctx context.Context, a *domain.Article) error {
	a.Tags = domain.DedupeIDs(a.Tags)

	err := s.update(ctx, func(txn *badger.Txn) error {
		found, err := exists(txn, articleKey(a.ID))
		if err != nil {
			return err
		}
		if found {
			return ErrAlreadyExists
		}
		if err := checkTagRefs(txn, a.UserID, a.Tags); err != nil {
			return err
		}
		if err := setJSON(txn, articleKey(a.ID), a); err != nil {
			return err
		}
		return txn.Set([]byte(articleOwnerKey(a.UserID, a.ID)), nil)
	})
	if err != nil {
		return err
	}

	s.indexArticle(ctx, a)
	return nil
}

// GetArticle retrieves an article by ID regardless of owner.
func (s *Store) GetArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	var a domain.Article
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, articleKey(articleID), &a, ErrArticleNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAllArticles returns every article of every user. It backs search
// index rebuilds.
func (s *Store) ListAllArticles(ctx context.Context) ([]*domain.Article, error) {
	var articles []*domain.Article
	err := s.view(ctx, func(txn *badger.Txn) error {
		articles = nil
		return scanKeys(txn, articlesByOwnerPrefix, func(suffix string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, articleID, _ := strings.Cut(suffix, ":")
			var a domain.Article
			if err := getJSON(txn, articleKey(articleID), &a, ErrArticleNotFound); err != nil {
				return fmt.Errorf("owner index points at %s: %w", articleID, err)
			}
			articles = append(articles, &a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(articles)
	return articles, nil
}

// ArticleSnapshot holds articles and their owner's tags read in one
// transaction. Every tag id carried by Articles names one of Tags.
type ArticleSnapshot struct {
	Articles []*domain.Article
	Tags     []*domain.Tag
}

// LoadArticlesWithTags reads the given articles of userID together with all of
// the user's tags from one snapshot, so a tag delete can never commit between
// the two reads. Ids that are missing or owned by someone else are skipped;
// the rest keep their input order.
func (s *Store) LoadArticlesWithTags(ctx context.Context, userID string, articleIDs ...string) (*ArticleSnapshot, error) {
	var snap *ArticleSnapshot
	err := s.view(ctx, func(txn *badger.Txn) error {
		snap = &ArticleSnapshot{Articles: make([]*domain.Article, 0, len(articleIDs))}
		for _, articleID := range articleIDs {
			a, err := loadArticle(txn, userID, articleID)
			switch {
			case errors.Is(err, ErrArticleNotFound), errors.Is(err, ErrArticleNotOwned):
				continue
			case err != nil:
				return err
			}
			snap.Articles = append(snap.Articles, a)
		}
		tags, err := loadOwnedTags(txn, userID)
		if err != nil {
			return err
		}
		snap.Tags = tags
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListArticlesWithTags returns all of the user's articles, newest first, and
// the user's tags, both read from one snapshot.
func (s *Store) ListArticlesWithTags(ctx context.Context, userID string) (*ArticleSnapshot, error) {
	var snap *ArticleSnapshot
	err := s.view(ctx, func(txn *badger.Txn) error {
		snap = &ArticleSnapshot{}
		err := s.eachOwnedArticle(ctx, txn, userID, func(a *domain.Article) error {
			snap.Articles = append(snap.Articles, a)
			return nil
		})
		if err != nil {
			return err
		}
		snap.Tags, err = loadOwnedTags(txn, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(snap.Articles)
	return snap, nil
}

// MutateArticle loads the user's article, applies fn and writes the result in
// one transaction. fn reports whether it changed anything; unchanged articles
// are not written. fn may run more than once when the transaction is retried,
// each time on a freshly loaded copy.
//
// Tag references on the written article are re-validated, so fn cannot leave a
// dangling id behind.
func (s *Store) MutateArticle(ctx context.Context, userID, articleID string, fn func(a *domain.Article) (bool, error)) (*domain.Article, bool, error) {
	var (
		result  *domain.Article
		changed bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		a, err := loadArticle(txn, userID, articleID)
		if err != nil {
			return err
		}
		changed, err = fn(a)
		if err != nil {
			return err
		}
		result = a
		if !changed {
			return nil
		}
		a.Tags = domain.DedupeIDs(a.Tags)
		if err := checkTagRefs(txn, userID, a.Tags); err != nil {
			return err
		}
		return setJSON(txn, articleKey(a.ID), a)
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.indexArticle(ctx, result)
	}
	return result, changed, nil
}

// DeleteArticle removes an article and every highlight it owns in one
// transaction. Tags are untouched. Returns the deleted highlight ids.
func (s *Store) DeleteArticle(ctx context.Context, userID, articleID string) ([]string, error) {
	var highlightIDs []string
	err := s.update(ctx, func(txn *badger.Txn) error {
		highlightIDs = nil
		if _, err := loadArticle(txn, userID, articleID); err != nil {
			return err
		}

		err := scanKeys(txn, highlightsByArticle+articleID+":", func(hlID string) error {
			highlightIDs = append(highlightIDs, hlID)
			return nil
		})
		if err != nil {
			return err
		}
		for _, hlID := range highlightIDs {
			if err := deleteKey(txn, highlightKey(hlID)); err != nil {
				return err
			}
			if err := deleteKey(txn, highlightArticleKey(articleID, hlID)); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(articleKey(articleID))); err != nil {
			return err
		}
		return deleteKey(txn, articleOwnerKey(userID, articleID))
	})
	if err != nil {
		return nil, err
	}

	s.unindexArticle(ctx, articleID)
	return highlightIDs, nil
}

// loadArticle reads an article inside txn and checks its owner.
func loadArticle(txn *badger.Txn, userID, articleID string) (*domain.Article, error) {
	var a domain.Article
	if err := getJSON(txn, articleKey(articleID), &a, ErrArticleNotFound); err != nil {
		return nil, err
	}
	if !a.OwnedBy(userID) {
		return nil, ErrArticleNotOwned
	}
	return &a, nil
}

// eachOwnedArticle calls fn for every article in the user's owner index.
func (s *Store) eachOwnedArticle(ctx context.Context, txn *badger.Txn, userID string, fn func(a *domain.Article) error) error {
	return scanKeys(txn, articlesByOwnerPrefix+userID+":", func(articleID string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var a domain.Article
		if err := getJSON(txn, articleKey(articleID), &a, ErrArticleNotFound); err != nil {
			return fmt.Errorf("owner index points at %s: %w", articleID, err)
		}
		return fn(&a)
	})
}

// sortNewestFirst orders by creation time descending, then by id.
func sortNewestFirst(articles []*domain.Article) {
	slices.SortStableFunc(articles, func(a, b *domain.Article) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
