package domain

import "context"

// StripTag removes tagID from every article that carries it and returns the
// articles that changed, in input order. Articles without the tag are left
// alone, UpdatedAt included.
//
// This is the in-memory half of a tag delete: callers load the owner's
// articles and persist the returned ones in the same transaction that removes
// the tag, so no article ever references a tag that no longer exists.
func StripTag(ctx context.Context, articles []*Article, tagID string) ([]*Article, error) {
	var changed []*Article
	for _, a := range articles {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if a.RemoveTag(tagID) {
			changed = append(changed, a)
		}
	}
	return changed, nil
}
