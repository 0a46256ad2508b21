package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/curatorapp/curator-server/internal/content"
	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/id"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/sse"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

// ArticleMatcher answers free-text queries with the ids of matching articles.
// *search.SearchIndex implements it.
type ArticleMatcher interface {
	MatchArticles(ctx context.Context, userID, text string) ([]string, error)
}

// ArticleService handles article reads and writes outside the tag relation.
type ArticleService struct {
	store     *store.Store
	tags      *TagService
	locks     *keylock.Locker
	matcher   ArticleMatcher
	validator *validation.Validator
	events    EventEmitter
	views     articleViews
	logger    *slog.Logger
}

// NewArticleService creates a new article service.
func NewArticleService(
	store *store.Store,
	tags *TagService,
	locks *keylock.Locker,
	matcher ArticleMatcher,
	validator *validation.Validator,
	events EventEmitter,
	logger *slog.Logger,
) *ArticleService {
	if events == nil {
		events = NoopEmitter{}
	}
	return &ArticleService{
		store:     store,
		tags:      tags,
		locks:     locks,
		matcher:   matcher,
		validator: validator,
		events:    events,
		views:     articleViews{store: store, logger: logger},
		logger:    logger,
	}
}

// CreateArticleInput holds the fields of a new article.
// ContentHTML, when set, is converted to markdown and replaces Content.
// TagNames are resolved (or created) and merged with TagIDs.
type CreateArticleInput struct {
	URL         string   `json:"url" validate:"required,http_url,max=2048"`
	Title       string   `json:"title" validate:"max=500"`
	Excerpt     string   `json:"excerpt" validate:"max=2000"`
	Content     string   `json:"content"`
	ContentHTML string   `json:"content_html"`
	Status      string   `json:"status" validate:"omitempty,article_status"`
	IsFavorite  bool     `json:"is_favorite"`
	TagIDs      []string `json:"tag_ids"`
	TagNames    []string `json:"tag_names" validate:"omitempty,dive,tag_name"`
}

// CreateArticle saves a new article for userID. Every referenced tag must exist
// and belong to the caller.
func (s *ArticleService) CreateArticle(ctx context.Context, userID string, in CreateArticleInput) (*domain.ArticleView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	body, err := s.resolveBody(in.Content, in.ContentHTML)
	if err != nil {
		return nil, err
	}

	articleID, err := id.Generate(id.PrefixArticle)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate article id")
	}

	// A new article is invisible to a concurrent cascade scan, so the tag locks
	// keep DeleteTag out until the article is committed.
	tagIDs, unlock, err := s.lockTags(ctx, userID, in.TagIDs, in.TagNames)
	if err != nil {
		return nil, err
	}

	status := domain.StatusInbox
	if in.Status != "" {
		status = domain.Status(in.Status)
	}
	article := &domain.Article{
		Owned:      domain.Owned{ID: articleID, UserID: userID},
		URL:        strings.TrimSpace(in.URL),
		Title:      strings.TrimSpace(in.Title),
		Excerpt:    strings.TrimSpace(in.Excerpt),
		Status:     status,
		IsFavorite: in.IsFavorite,
		Tags:       domain.DedupeIDs(tagIDs),
	}
	article.SetContent(body)
	if article.Excerpt == "" && body != "" {
		article.Excerpt = content.Excerpt(body)
	}
	if article.Title == "" {
		article.Title = article.URL
	}
	article.InitTimestamps()

	err = s.store.CreateArticle(ctx, article)
	unlock()
	if err != nil {
		return nil, storeError(err, hideForeign)
	}

	view, err := s.views.one(ctx, userID, article)
	if err != nil {
		return nil, err
	}
	s.logger.Info("article created", "article_id", article.ID, "user_id", userID, "tags", len(article.Tags))
	s.events.Emit(sse.NewArticleCreatedEvent(view))
	return view, nil
}

// lockTags takes the association locks of every tag a new article will carry,
// resolving names to tags first, and returns the full id list.
func (s *ArticleService) lockTags(ctx context.Context, userID string, tagIDs, tagNames []string) ([]string, func(), error) {
	ids := slices.Clone(tagIDs)
	if len(domain.CleanTagNames(tagNames)) == 0 {
		keys := make([]string, len(ids))
		for i, tagID := range ids {
			keys[i] = keylock.TagKey(tagID)
		}
		return ids, s.locks.LockMany(keys...), nil
	}

	tags, unlock, err := s.tags.ResolveAndLock(ctx, userID, tagNames, ids...)
	if err != nil {
		return nil, nil, err
	}
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids, unlock, nil
}

// GetArticle returns one of the user's articles with tag names resolved.
func (s *ArticleService) GetArticle(ctx context.Context, userID, articleID string) (*domain.ArticleView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	snap, err := s.store.LoadArticlesWithTags(ctx, userID, articleID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	if len(snap.Articles) == 0 {
		return nil, errors.NotFoundf("article not found")
	}
	return s.views.fromSnapshot(userID, snap.Articles, snap.Tags)[0], nil
}

// ListArticlesOptions narrows an article listing. Query is free text matched
// through the search index; Filter matches fields exactly.
type ListArticlesOptions struct {
	Filter domain.ArticleFilter
	Query  string
}

// ListArticles returns the user's articles, newest first.
func (s *ArticleService) ListArticles(ctx context.Context, userID string, opts ListArticlesOptions) ([]*domain.ArticleView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var matched map[string]struct{}
	if q := strings.TrimSpace(opts.Query); q != "" {
		if s.matcher == nil {
			return nil, errors.Wrap(nil, errors.CodeInternal, "search is not available")
		}
		ids, err := s.matcher.MatchArticles(ctx, userID, q)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "search failed")
		}
		matched = make(map[string]struct{}, len(ids))
		for _, v := range ids {
			matched[v] = struct{}{}
		}
	}

	snap, err := s.store.ListArticlesWithTags(ctx, userID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}

	selected := make([]*domain.Article, 0, len(snap.Articles))
	for _, a := range snap.Articles {
		if matched != nil {
			if _, ok := matched[a.ID]; !ok {
				continue
			}
		}
		if opts.Filter.Matches(a) {
			selected = append(selected, a)
		}
	}
	return s.views.fromSnapshot(userID, selected, snap.Tags), nil
}

// UpdateArticleInput carries the optional fields of an article update.
// TagIDs, when set, replaces the whole tag set.
type UpdateArticleInput struct {
	Title       *string
	Excerpt     *string
	Content     *string
	ContentHTML *string
	Status      *string
	IsFavorite  *bool
	TagIDs      *[]string
}

// UpdateArticle applies a partial update in one transaction. UpdatedAt moves
// only when something actually changed.
func (s *ArticleService) UpdateArticle(ctx context.Context, userID, articleID string, in UpdateArticleInput) (*domain.ArticleView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var status domain.Status
	if in.Status != nil {
		st, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	var body *string
	if in.ContentHTML != nil || in.Content != nil {
		raw, html := "", ""
		if in.Content != nil {
			raw = *in.Content
		}
		if in.ContentHTML != nil {
			html = *in.ContentHTML
		}
		b, err := s.resolveBody(raw, html)
		if err != nil {
			return nil, err
		}
		body = &b
	}

	article, changed, err := s.store.MutateArticle(ctx, userID, articleID, func(a *domain.Article) (bool, error) {
		changed := false
		if in.Title != nil && strings.TrimSpace(*in.Title) != a.Title {
			a.Title = strings.TrimSpace(*in.Title)
			changed = true
		}
		if in.Excerpt != nil && strings.TrimSpace(*in.Excerpt) != a.Excerpt {
			a.Excerpt = strings.TrimSpace(*in.Excerpt)
			changed = true
		}
		if body != nil && *body != a.Content {
			a.SetContent(*body)
			changed = true
		}
		if in.TagIDs != nil {
			next := domain.DedupeIDs(*in.TagIDs)
			if !sameSet(a.Tags, next) {
				a.Tags = next
				changed = true
			}
		}
		if changed {
			a.Touch()
		}
		// The setters touch on their own.
		if in.Status != nil && a.SetStatus(status) {
			changed = true
		}
		if in.IsFavorite != nil && a.SetFavorite(*in.IsFavorite) {
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		return nil, storeError(err, hideForeign)
	}

	view, err := s.views.one(ctx, userID, article)
	if err != nil {
		return nil, err
	}
	if changed {
		s.events.Emit(sse.NewArticleUpdatedEvent(view))
	}
	return view, nil
}

// DeleteArticle deletes one of the user's articles with its highlights. Tags
// are left alone.
func (s *ArticleService) DeleteArticle(ctx context.Context, userID, articleID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	highlightIDs, err := s.store.DeleteArticle(ctx, userID, articleID)
	if err != nil {
		return storeError(err, hideForeign)
	}
	s.logger.Info("article deleted", "article_id", articleID, "user_id", userID, "highlights", len(highlightIDs))
	s.events.Emit(sse.NewArticleDeletedEvent(userID, articleID, highlightIDs))
	return nil
}

// resolveBody picks the article body: converted HTML when given, raw content otherwise.
func (s *ArticleService) resolveBody(raw, html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return strings.TrimSpace(raw), nil
	}
	md, err := content.ToMarkdown(html)
	if err != nil {
		return "", errors.Validationf("content_html could not be converted: %v", err)
	}
	return md, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range b {
		if !slices.Contains(a, v) {
			return false
		}
	}
	return true
}
