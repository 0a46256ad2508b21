package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/curatorapp/curator-server/internal/domain"
)

// CreateTag stores a new tag. Returns ErrTagNameTaken when the owner already
// has a tag with the same normalized name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	normalized := domain.NormalizeTagName(t.Name)

	return s.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, tagNameKey(t.UserID, normalized))
		if err != nil {
			return err
		}
		if taken {
			return ErrTagNameTaken
		}
		if err := setJSON(txn, tagKey(t.ID), t); err != nil {
			return err
		}
		if err := txn.Set([]byte(tagOwnerKey(t.UserID, t.ID)), nil); err != nil {
			return err
		}
		return txn.Set([]byte(tagNameKey(t.UserID, normalized)), []byte(t.ID))
	})
}

// GetTag retrieves a tag by ID regardless of owner.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	var t domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, tagKey(tagID), &t, ErrTagNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagByName finds a user's tag by name, compared after normalization.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	var t domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tagNameKey(userID, domain.NormalizeTagName(name))))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		tagID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, tagKey(string(tagID)), &t, ErrTagNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTagsByUser returns every tag owned by userID ordered by normalized name.
func (s *Store) ListTagsByUser(ctx context.Context, userID string) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		tags, err = loadOwnedTags(txn, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// loadOwnedTags reads every tag in the user's owner index, sorted by
// normalized name.
func loadOwnedTags(txn *badger.Txn, userID string) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := scanKeys(txn, tagsByOwnerPrefix+userID+":", func(tagID string) error {
		var t domain.Tag
		if err := getJSON(txn, tagKey(tagID), &t, ErrTagNotFound); err != nil {
			return fmt.Errorf("owner index points at %s: %w", tagID, err)
		}
		tags = append(tags, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByKey(tags, func(t *domain.Tag) string { return domain.NormalizeTagName(t.Name) })
	return tags, nil
}

// UpdateTag persists a renamed or recolored tag. The name index moves with the
// name; ErrTagNameTaken is returned when another tag of the owner holds it.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var old domain.Tag
		if err := getJSON(txn, tagKey(t.ID), &old, ErrTagNotFound); err != nil {
			return err
		}
		if old.UserID != t.UserID {
			return ErrTagNotOwned
		}

		oldName := domain.NormalizeTagName(old.Name)
		newName := domain.NormalizeTagName(t.Name)
		if oldName != newName {
			taken, err := exists(txn, tagNameKey(t.UserID, newName))
			if err != nil {
				return err
			}
			if taken {
				return ErrTagNameTaken
			}
			if err := deleteKey(txn, tagNameKey(t.UserID, oldName)); err != nil {
				return err
			}
			if err := txn.Set([]byte(tagNameKey(t.UserID, newName)), []byte(t.ID)); err != nil {
				return err
			}
		}
		return setJSON(txn, tagKey(t.ID), t)
	})
}

// CountTagUsage returns, for each tag id referenced by the user's articles, the
// number of articles carrying it. It is a full scan of the owner's articles.
func (s *Store) CountTagUsage(ctx context.Context, userID string) (map[string]int, error) {
	counts := make(map[string]int)
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.eachOwnedArticle(ctx, txn, userID, func(a *domain.Article) error {
			for _, tagID := range a.Tags {
				counts[tagID]++
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// loadTag reads a tag inside txn and checks its owner.
func loadTag(txn *badger.Txn, userID, tagID string) (*domain.Tag, error) {
	var t domain.Tag
	if err := getJSON(txn, tagKey(tagID), &t, ErrTagNotFound); err != nil {
		return nil, err
	}
	if !t.OwnedBy(userID) {
		return nil, ErrTagNotOwned
	}
	return &t, nil
}

// checkTagRefs verifies every id in tagIDs names an existing tag of userID.
// Reading the tag keys inside the writer's transaction also puts them in its
// read set, so a concurrent tag deletion makes one of the two commits conflict.
func checkTagRefs(txn *badger.Txn, userID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if strings.TrimSpace(tagID) == "" {
			return ErrDanglingTag
		}
		if _, err := loadTag(txn, userID, tagID); err != nil {
			return fmt.Errorf("tag %s: %w", tagID, ErrDanglingTag.WithCause(err))
		}
	}
	return nil
}
