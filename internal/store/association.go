package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/curatorapp/curator-server/internal/domain"
)

// AttachTag adds tagID to the article's tag set. Both records must exist and
// belong to userID (ErrArticleNotFound, ErrTagNotFound, ErrNotOwner). Attaching
// a tag that is already present succeeds with changed=false and no write.
func (s *Store) AttachTag(ctx context.Context, userID, articleID, tagID string) (*domain.Article, bool, error) {
	var (
		result  *domain.Article
		changed bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		a, err := loadArticle(txn, userID, articleID)
		if err != nil {
			return err
		}
		// The tag read joins this transaction's read set; a DeleteTag committing
		// first makes this commit fail with a conflict instead of dangling.
		if _, err := loadTag(txn, userID, tagID); err != nil {
			return err
		}
		result = a
		changed = a.AddTag(tagID)
		if !changed {
			return nil
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

// DetachTag removes tagID from the article's tag set. The tag itself is never
// touched and need not exist; removing an absent id succeeds with changed=false.
func (s *Store) DetachTag(ctx context.Context, userID, articleID, tagID string) (*domain.Article, bool, error) {
	return s.MutateArticle(ctx, userID, articleID, func(a *domain.Article) (bool, error) {
		return a.RemoveTag(tagID), nil
	})
}

// DeleteTag deletes a tag and strips it from every article of its owner, all in
// one read-write transaction: either the tag and every reference disappear
// together or nothing changes.
//
// The tag has no article index, so this scans all of the owner's articles and
// costs O(articles) per call. Very large libraries can exceed badger's
// transaction size limit (badger.ErrTxnTooBig).
//
// Returns the ids of the articles that were modified.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) ([]string, error) {
	var stripped []*domain.Article
	err := s.update(ctx, func(txn *badger.Txn) error {
		stripped = nil
		t, err := loadTag(txn, userID, tagID)
		if err != nil {
			return err
		}

		var owned []*domain.Article
		err = s.eachOwnedArticle(ctx, txn, userID, func(a *domain.Article) error {
			owned = append(owned, a)
			return nil
		})
		if err != nil {
			return err
		}
		members, err := domain.StripTag(ctx, owned, tagID)
		if err != nil {
			return err
		}
		for _, a := range members {
			if err := setJSON(txn, articleKey(a.ID), a); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(tagKey(tagID))); err != nil {
			return err
		}
		if err := deleteKey(txn, tagOwnerKey(userID, tagID)); err != nil {
			return err
		}
		if err := deleteKey(txn, tagNameKey(userID, domain.NormalizeTagName(t.Name))); err != nil {
			return err
		}
		stripped = members
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(stripped))
	for i, a := range stripped {
		ids[i] = a.ID
		s.indexArticle(ctx, a)
	}
	return ids, nil
}
