package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curatorapp/curator-server/internal/domain"
	domainerrors "github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/service"
	"github.com/curatorapp/curator-server/internal/store"
)

func (s *Server) registerArticleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listArticles",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles",
		Summary:     "List articles",
		Description: "Returns the current user's articles, newest first, optionally filtered",
		Tags:        []string{"Articles"},
		Security:    bearerSecurity,
	}, s.handleListArticles)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createArticle",
		Method:        http.MethodPost,
		Path:          "/api/v1/articles",
		Summary:       "Create article",
		Description:   "Saves an article. Tag names are resolved to tags, creating missing ones",
		Tags:          []string{"Articles"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerSecurity,
	}, s.handleCreateArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getArticle",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Get article",
		Description: "Returns an article with its tag names resolved",
		Tags:        []string{"Articles"},
		Security:    bearerSecurity,
	}, s.handleGetArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateArticle",
		Method:      http.MethodPatch,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Update article",
		Description: "Applies a partial update. tag_ids, when present, replaces the tag set",
		Tags:        []string{"Articles"},
		Security:    bearerSecurity,
	}, s.handleUpdateArticle)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteArticle",
		Method:        http.MethodDelete,
		Path:          "/api/v1/articles/{id}",
		Summary:       "Delete article",
		Description:   "Deletes an article and its highlights",
		Tags:          []string{"Articles"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerSecurity,
	}, s.handleDeleteArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "attachTag",
		Method:      http.MethodPut,
		Path:        "/api/v1/articles/{id}/tags/{tagId}",
		Summary:     "Attach tag",
		Description: "Adds a tag to an article. Attaching an existing tag is a no-op",
		Tags:        []string{"Articles"},
		Security:    bearerSecurity,
	}, s.handleAttachTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/articles/{id}/tags/{tagId}",
		Summary:     "Detach tag",
		Description: "Removes a tag from an article. The tag itself is kept",
		Tags:        []string{"Articles"},
		Security:    bearerSecurity,
	}, s.handleDetachTag)
}

// === DTOs ===

// ArticleResponse contains article data in API responses.
type ArticleResponse struct {
	ID             string    `json:"id" doc:"Article ID"`
	URL            string    `json:"url" doc:"Source URL"`
	Title          string    `json:"title" doc:"Title"`
	Excerpt        string    `json:"excerpt,omitempty" doc:"Short plain-text summary"`
	Content        string    `json:"content,omitempty" doc:"Markdown content"`
	ReadingMinutes int       `json:"reading_minutes" doc:"Estimated reading time"`
	Status         string    `json:"status" doc:"Reading queue"`
	IsFavorite     bool      `json:"is_favorite" doc:"Favorite flag"`
	TagIDs         []string  `json:"tag_ids" doc:"Tag IDs"`
	TagNames       []string  `json:"tag_names" doc:"Tag names, aligned with tag_ids"`
	CreatedAt      time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time `json:"updated_at" doc:"Last update time"`
}

// ListArticlesInput contains filters for listing articles.
type ListArticlesInput struct {
	Status   string `query:"status" doc:"Only articles in this queue"`
	Favorite string `query:"favorite" doc:"true or false"`
	Tag      string `query:"tag" doc:"Only articles carrying this tag ID"`
	Stack    string `query:"stack" doc:"Only articles matching this stack; excludes the other filters"`
	Q        string `query:"q" doc:"Free-text search over title, excerpt and content"`
	Limit    int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size (default 100)"`
	Cursor   string `query:"cursor" doc:"next_cursor from the previous page"`
}

// ListArticlesResponse contains a list of articles.
type ListArticlesResponse struct {
	Articles   []ArticleResponse `json:"articles" doc:"List of articles"`
	NextCursor string            `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool              `json:"has_more" doc:"Whether more articles follow this page"`
	Total      int               `json:"total" doc:"Articles matching the filters"`
}

// ListArticlesOutput wraps the list articles response for Huma.
type ListArticlesOutput struct {
	Body ListArticlesResponse
}

// CreateArticleRequest is the request body for creating an article.
type CreateArticleRequest struct {
	URL         string   `json:"url" minLength:"1" maxLength:"2048" doc:"Source URL"`
	Title       string   `json:"title,omitempty" doc:"Title, defaults to the URL"`
	Excerpt     string   `json:"excerpt,omitempty" doc:"Summary, derived from content when empty"`
	Content     string   `json:"content,omitempty" doc:"Markdown content"`
	ContentHTML string   `json:"content_html,omitempty" doc:"HTML content, converted to markdown"`
	Status      string   `json:"status,omitempty" doc:"Initial queue, defaults to inbox"`
	IsFavorite  bool     `json:"is_favorite,omitempty" doc:"Favorite flag"`
	TagIDs      []string `json:"tag_ids,omitempty" doc:"Existing tag IDs"`
	TagNames    []string `json:"tag_names,omitempty" doc:"Tag names, created when missing"`
}

// CreateArticleInput wraps the create article request for Huma.
type CreateArticleInput struct {
	Body CreateArticleRequest
}

// ArticleOutput wraps the article response for Huma.
type ArticleOutput struct {
	Body ArticleResponse
}

// ArticlePathInput identifies one article.
type ArticlePathInput struct {
	ID string `path:"id" doc:"Article ID"`
}

// UpdateArticleRequest is the request body for updating an article.
type UpdateArticleRequest struct {
	Title       *string   `json:"title,omitempty" doc:"Title"`
	Excerpt     *string   `json:"excerpt,omitempty" doc:"Summary"`
	Content     *string   `json:"content,omitempty" doc:"Markdown content"`
	ContentHTML *string   `json:"content_html,omitempty" doc:"HTML content, converted to markdown"`
	Status      *string   `json:"status,omitempty" doc:"Reading queue"`
	IsFavorite  *bool     `json:"is_favorite,omitempty" doc:"Favorite flag"`
	TagIDs      *[]string `json:"tag_ids,omitempty" doc:"Replacement tag set"`
}

// UpdateArticleInput wraps the update article request for Huma.
type UpdateArticleInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body UpdateArticleRequest
}

// ArticleTagInput identifies an article and a tag.
type ArticleTagInput struct {
	ID    string `path:"id" doc:"Article ID"`
	TagID string `path:"tagId" doc:"Tag ID"`
}

// ArticleTagResponse is the result of attaching or detaching a tag.
type ArticleTagResponse struct {
	Article ArticleResponse `json:"article" doc:"The article after the change"`
	Changed bool            `json:"changed" doc:"False when the call was a no-op"`
}

// ArticleTagOutput wraps the attach and detach response for Huma.
type ArticleTagOutput struct {
	Body ArticleTagResponse
}

func toArticleResponse(v *domain.ArticleView) ArticleResponse {
	tagIDs := v.Tags
	if tagIDs == nil {
		tagIDs = []string{}
	}
	tagNames := v.TagNames
	if tagNames == nil {
		tagNames = []string{}
	}
	return ArticleResponse{
		ID:             v.ID,
		URL:            v.URL,
		Title:          v.Title,
		Excerpt:        v.Excerpt,
		Content:        v.Content,
		ReadingMinutes: v.ReadingMinutes,
		Status:         string(v.Status),
		IsFavorite:     v.IsFavorite,
		TagIDs:         tagIDs,
		TagNames:       tagNames,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

func toArticleResponses(views []*domain.ArticleView) []ArticleResponse {
	resp := make([]ArticleResponse, len(views))
	for i, v := range views {
		resp[i] = toArticleResponse(v)
	}
	return resp
}

// === Handlers ===

func (s *Server) handleListArticles(ctx context.Context, input *ListArticlesInput) (*ListArticlesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if input.Stack != "" {
		if input.Status != "" || input.Favorite != "" || input.Tag != "" || input.Q != "" {
			return nil, domainerrors.Validation("stack cannot be combined with other filters")
		}
		views, err := s.services.Stack.StackArticles(ctx, userID, input.Stack)
		if err != nil {
			return nil, err
		}
		return paginateArticles(views, input.Limit, input.Cursor)
	}

	filters := make(map[string]string, 3)
	for name, value := range map[string]string{
		domain.FilterStatus:   input.Status,
		domain.FilterFavorite: input.Favorite,
		domain.FilterTag:      input.Tag,
	} {
		if strings.TrimSpace(value) != "" {
			filters[name] = value
		}
	}
	filter, err := domain.ParseFilters(filters)
	if err != nil {
		return nil, err
	}

	views, err := s.services.Article.ListArticles(ctx, userID, service.ListArticlesOptions{
		Filter: filter,
		Query:  input.Q,
	})
	if err != nil {
		return nil, err
	}

	return paginateArticles(views, input.Limit, input.Cursor)
}

func paginateArticles(views []*domain.ArticleView, limit int, cursor string) (*ListArticlesOutput, error) {
	page, err := store.Paginate(views, store.PaginationParams{Limit: limit, Cursor: cursor},
		func(v *domain.ArticleView) string { return v.ID })
	if err != nil {
		return nil, domainerrors.Validation("invalid cursor")
	}
	return &ListArticlesOutput{Body: ListArticlesResponse{
		Articles:   toArticleResponses(page.Items),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}}, nil
}

func (s *Server) handleCreateArticle(ctx context.Context, input *CreateArticleInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := input.Body
	view, err := s.services.Article.CreateArticle(ctx, userID, service.CreateArticleInput{
		URL:         body.URL,
		Title:       body.Title,
		Excerpt:     body.Excerpt,
		Content:     body.Content,
		ContentHTML: body.ContentHTML,
		Status:      body.Status,
		IsFavorite:  body.IsFavorite,
		TagIDs:      body.TagIDs,
		TagNames:    body.TagNames,
	})
	if err != nil {
		return nil, err
	}

	return &ArticleOutput{Body: toArticleResponse(view)}, nil
}

func (s *Server) handleGetArticle(ctx context.Context, input *ArticlePathInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Article.GetArticle(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ArticleOutput{Body: toArticleResponse(view)}, nil
}

func (s *Server) handleUpdateArticle(ctx context.Context, input *UpdateArticleInput) (*ArticleOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := input.Body
	view, err := s.services.Article.UpdateArticle(ctx, userID, input.ID, service.UpdateArticleInput{
		Title:       body.Title,
		Excerpt:     body.Excerpt,
		Content:     body.Content,
		ContentHTML: body.ContentHTML,
		Status:      body.Status,
		IsFavorite:  body.IsFavorite,
		TagIDs:      body.TagIDs,
	})
	if err != nil {
		return nil, err
	}

	return &ArticleOutput{Body: toArticleResponse(view)}, nil
}

func (s *Server) handleDeleteArticle(ctx context.Context, input *ArticlePathInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Article.DeleteArticle(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAttachTag(ctx context.Context, input *ArticleTagInput) (*ArticleTagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, changed, err := s.services.Tag.AttachTag(ctx, userID, input.ID, input.TagID)
	if err != nil {
		return nil, err
	}

	return &ArticleTagOutput{Body: ArticleTagResponse{Article: toArticleResponse(view), Changed: changed}}, nil
}

func (s *Server) handleDetachTag(ctx context.Context, input *ArticleTagInput) (*ArticleTagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, changed, err := s.services.Tag.DetachTag(ctx, userID, input.ID, input.TagID)
	if err != nil {
		return nil, err
	}

	return &ArticleTagOutput{Body: ArticleTagResponse{Article: toArticleResponse(view), Changed: changed}}, nil
}
