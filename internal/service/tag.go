package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	tagcolor "github.com/curatorapp/curator-server/internal/color"
	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/id"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/sse"
	"github.com/curatorapp/curator-server/internal/store"
)

// TagService owns every mutation of the article/tag relation.
//
// Attach, detach and delete of a tag run under the tag's keyed lock; creating
// and renaming tags run under the owner's tag-namespace lock so two requests
// resolving the same name cannot both create it.
type TagService struct {
	store  *store.Store
	locks  *keylock.Locker
	events EventEmitter
	views  articleViews
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *store.Store, locks *keylock.Locker, events EventEmitter, logger *slog.Logger) *TagService {
	if events == nil {
		events = NoopEmitter{}
	}
	return &TagService{
		store:  store,
		locks:  locks,
		events: events,
		views:  articleViews{store: store, logger: logger},
		logger: logger,
	}
}

// TagDeletion reports what a tag deletion removed.
type TagDeletion struct {
	TagID      string   `json:"tag_id"`
	ArticleIDs []string `json:"article_ids"`
}

// CreateTag creates a tag for userID. Names are unique per user after
// normalization; a clash is an AlreadyExists error.
func (s *TagService) CreateTag(ctx context.Context, userID, name, color string) (*domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = domain.CleanTagName(name)
	if err := domain.ValidateTagName(name); err != nil {
		return nil, err
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.UserTagsKey(userID))
	defer unlock()

	tag, err := s.createLocked(ctx, userID, name, strings.TrimSpace(color))
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewTagCreatedEvent(tag))
	return tag, nil
}

// GetTag returns one of the user's tags with its usage count.
func (s *TagService) GetTag(ctx context.Context, userID, tagID string) (*domain.TagWithCount, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	if !tag.OwnedBy(userID) {
		return nil, errors.NotFoundf("tag not found")
	}

	counts, err := s.store.CountTagUsage(ctx, userID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	return &domain.TagWithCount{Tag: tag, ArticleCount: counts[tag.ID]}, nil
}

// ListTags returns the user's tags, most used first.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]domain.TagWithCount, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	tags, err := s.store.ListTagsByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	counts, err := s.store.CountTagUsage(ctx, userID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}

	out := make([]domain.TagWithCount, len(tags))
	for i, t := range tags {
		out[i] = domain.TagWithCount{Tag: t, ArticleCount: counts[t.ID]}
	}
	domain.SortTagsByUsage(out)
	return out, nil
}

// UpdateTagInput carries the optional fields of a tag update.
type UpdateTagInput struct {
	Name  *string
	Color *string
}

// UpdateTag renames or recolors a tag. Article references are ids, so a rename
// is visible on every article immediately.
func (s *TagService) UpdateTag(ctx context.Context, userID, tagID string, in UpdateTagInput) (*domain.Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := domain.ValidateTagName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Color != nil {
		if err := validateColor(*in.Color); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(keylock.UserTagsKey(userID))
	defer unlock()

	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, storeError(err, revealForeign)
	}
	if !tag.OwnedBy(userID) {
		return nil, errors.Forbiddenf("tag belongs to another user")
	}

	changed := false
	if in.Name != nil {
		if name := domain.CleanTagName(*in.Name); name != tag.Name {
			tag.Name = name
			changed = true
		}
	}
	if in.Color != nil {
		if color := strings.TrimSpace(*in.Color); color != tag.Color {
			tag.Color = color
			changed = true
		}
	}
	if !changed {
		return tag, nil
	}

	tag.Touch()
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, storeError(err, revealForeign)
	}

	s.logger.Info("tag updated", "tag_id", tag.ID, "user_id", userID)
	s.events.Emit(sse.NewTagUpdatedEvent(tag))
	return tag, nil
}

// DeleteTag deletes a tag and detaches it from every one of the owner's
// articles atomically. It returns only after the cascade has committed.
// A missing tag is NotFound; a tag of another user is Forbidden.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) (*TagDeletion, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.TagKey(tagID))
	defer unlock()

	stripped, err := s.store.DeleteTag(ctx, userID, tagID)
	if err != nil {
		return nil, storeError(err, revealForeign)
	}

	s.logger.Info("tag deleted",
		"tag_id", tagID,
		"user_id", userID,
		"articles_stripped", len(stripped),
	)
	s.events.Emit(sse.NewTagDeletedEvent(userID, tagID, stripped))
	return &TagDeletion{TagID: tagID, ArticleIDs: stripped}, nil
}

// FindOrCreateTag returns the user's tag with the given name, creating it on
// first use. created reports whether a new tag was made.
func (s *TagService) FindOrCreateTag(ctx context.Context, userID, name string) (tag *domain.Tag, created bool, err error) {
	if err := requireUser(userID); err != nil {
		return nil, false, err
	}
	tags, createdTags, err := s.ResolveNames(ctx, userID, []string{name})
	if err != nil {
		return nil, false, err
	}
	return tags[0], len(createdTags) > 0, nil
}

// ResolveNames cleans names, drops duplicates by normalized form and resolves
// each remaining name to a tag, creating missing ones. All names are resolved
// inside one critical section of the owner's tag namespace.
func (s *TagService) ResolveNames(ctx context.Context, userID string, names []string) (tags, created []*domain.Tag, err error) {
	cleaned, err := cleanNames(names)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(keylock.UserTagsKey(userID))
	defer unlock()

	tags, created, err = s.resolveLocked(ctx, userID, cleaned)
	if err != nil {
		return nil, nil, err
	}
	s.emitCreated(created)
	return tags, created, nil
}

// maxResolveAttempts bounds how often ResolveAndLock starts over after a
// resolved tag is deleted before its lock could be taken.
const maxResolveAttempts = 3

// ResolveAndLock resolves names like ResolveNames and returns with the
// association lock of every resolved tag held, along with the locks of
// alsoLock. Each resolved tag is confirmed to still exist once its lock is
// held, so no deletion can interleave with the caller's work. The caller must
// call unlock.
func (s *TagService) ResolveAndLock(ctx context.Context, userID string, names []string, alsoLock ...string) (tags []*domain.Tag, unlock func(), err error) {
	cleaned, err := cleanNames(names)
	if err != nil {
		return nil, nil, err
	}

	unlockNames := s.locks.Lock(keylock.UserTagsKey(userID))
	defer unlockNames()

	var created []*domain.Tag
	defer func() { s.emitCreated(created) }()

	for attempt := 1; ; attempt++ {
		resolved, fresh, err := s.resolveLocked(ctx, userID, cleaned)
		created = append(created, fresh...)
		if err != nil {
			return nil, nil, err
		}

		keys := make([]string, 0, len(resolved)+len(alsoLock))
		for _, t := range resolved {
			keys = append(keys, keylock.TagKey(t.ID))
		}
		for _, tagID := range alsoLock {
			keys = append(keys, keylock.TagKey(tagID))
		}
		unlockTags := s.locks.LockMany(keys...)

		gone, err := s.firstMissing(ctx, resolved)
		if err != nil {
			unlockTags()
			return nil, nil, err
		}
		if gone == "" {
			return resolved, unlockTags, nil
		}
		unlockTags()

		if attempt == maxResolveAttempts {
			return nil, nil, errors.Conflict("tags changed while resolving names; retry")
		}
		s.logger.Debug("resolved tag deleted before lock, resolving again",
			"tag_id", gone,
			"user_id", userID,
			"attempt", attempt,
		)
	}
}

// firstMissing returns the id of the first tag that no longer exists.
func (s *TagService) firstMissing(ctx context.Context, tags []*domain.Tag) (string, error) {
	for _, t := range tags {
		_, err := s.store.GetTag(ctx, t.ID)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrTagNotFound):
			return t.ID, nil
		default:
			return "", storeError(err, hideForeign)
		}
	}
	return "", nil
}

// resolveLocked maps each cleaned name to a tag, creating missing ones. The
// caller holds the owner's tag-namespace lock.
func (s *TagService) resolveLocked(ctx context.Context, userID string, cleaned []string) (tags, created []*domain.Tag, err error) {
	for _, name := range cleaned {
		tag, err := s.store.GetTagByName(ctx, userID, name)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrTagNotFound):
			tag, err = s.createLocked(ctx, userID, name, "")
			if err != nil {
				return nil, created, err
			}
			created = append(created, tag)
		default:
			return nil, created, storeError(err, hideForeign)
		}
		tags = append(tags, tag)
	}
	return tags, created, nil
}

func (s *TagService) emitCreated(created []*domain.Tag) {
	for _, t := range created {
		s.events.Emit(sse.NewTagCreatedEvent(t))
	}
}

func cleanNames(names []string) ([]string, error) {
	cleaned := domain.CleanTagNames(names)
	if len(cleaned) == 0 {
		return nil, errors.Validation("at least one non-empty tag name is required")
	}
	for _, n := range cleaned {
		if err := domain.ValidateTagName(n); err != nil {
			return nil, err
		}
	}
	return cleaned, nil
}

// AttachTag adds a tag to an article. Attaching a tag the article already has
// succeeds with changed=false and leaves the article untouched. Either record
// missing or owned by someone else is NotFound.
func (s *TagService) AttachTag(ctx context.Context, userID, articleID, tagID string) (*domain.ArticleView, bool, error) {
	if err := requireUser(userID); err != nil {
		return nil, false, err
	}

	unlock := s.locks.Lock(keylock.TagKey(tagID))
	defer unlock()

	article, changed, err := s.store.AttachTag(ctx, userID, articleID, tagID)
	if err != nil {
		return nil, false, storeError(err, hideForeign)
	}
	return s.afterAssociation(ctx, userID, article, changed, "tag attached", tagID)
}

// DetachTag removes a tag from an article. The tag itself is never deleted, and
// detaching an id the article does not carry is a successful no-op.
func (s *TagService) DetachTag(ctx context.Context, userID, articleID, tagID string) (*domain.ArticleView, bool, error) {
	if err := requireUser(userID); err != nil {
		return nil, false, err
	}

	unlock := s.locks.Lock(keylock.TagKey(tagID))
	defer unlock()

	article, changed, err := s.store.DetachTag(ctx, userID, articleID, tagID)
	if err != nil {
		return nil, false, storeError(err, hideForeign)
	}
	return s.afterAssociation(ctx, userID, article, changed, "tag detached", tagID)
}

func (s *TagService) afterAssociation(ctx context.Context, userID string, article *domain.Article, changed bool, msg, tagID string) (*domain.ArticleView, bool, error) {
	view, err := s.views.one(ctx, userID, article)
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.logger.Debug(msg, "tag_id", tagID, "article_id", article.ID, "user_id", userID)
		s.events.Emit(sse.NewArticleUpdatedEvent(view))
	}
	return view, changed, nil
}

// createLocked stores a new tag. The caller holds the owner's namespace lock.
func (s *TagService) createLocked(ctx context.Context, userID, name, color string) (*domain.Tag, error) {
	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate tag id")
	}
	if color == "" {
		color = tagcolor.ForTag(domain.NormalizeTagName(name))
	}
	tag := &domain.Tag{
		Owned: domain.Owned{ID: tagID, UserID: userID},
		Name:  name,
		Color: color,
	}
	tag.InitTimestamps()

	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, storeError(err, hideForeign)
	}
	s.logger.Info("tag created", "tag_id", tag.ID, "user_id", userID, "name", tag.Name)
	return tag, nil
}

func validateColor(color string) error {
	if utf8.RuneCountInString(strings.TrimSpace(color)) > domain.MaxTagColorLength {
		return errors.Validationf("tag color must be at most %d characters", domain.MaxTagColorLength)
	}
	return nil
}
