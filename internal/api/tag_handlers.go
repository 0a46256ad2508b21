package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags for the current user, most used first",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Description:   "Creates a new tag. Names are unique per user, ignoring case and spacing",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerSecurity,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID with its article count",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Update tag",
		Description: "Renames or recolors a tag",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and removes it from every article that carried it",
		Tags:        []string{"Tags"},
		Security:    bearerSecurity,
	}, s.handleDeleteTag)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID           string    `json:"id" doc:"Tag ID"`
	Name         string    `json:"name" doc:"Tag name"`
	Color        string    `json:"color,omitempty" doc:"Display color"`
	ArticleCount int       `json:"article_count" doc:"Number of articles carrying the tag"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt    time.Time `json:"updated_at" doc:"Last update time"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name  string `json:"name" minLength:"1" maxLength:"200" doc:"Tag name"`
	Color string `json:"color,omitempty" maxLength:"20" doc:"Display color"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// TagPathInput identifies one tag.
type TagPathInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// UpdateTagRequest is the request body for updating a tag.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" doc:"Tag name"`
	Color *string `json:"color,omitempty" doc:"Display color, empty to clear"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	ID   string `path:"id" doc:"Tag ID"`
	Body UpdateTagRequest
}

// DeleteTagResponse lists what a tag deletion removed.
type DeleteTagResponse struct {
	TagID      string   `json:"tag_id" doc:"Deleted tag ID"`
	ArticleIDs []string `json:"article_ids" doc:"Articles the tag was removed from"`
}

// DeleteTagOutput wraps the delete tag response for Huma.
type DeleteTagOutput struct {
	Body DeleteTagResponse
}

func toTagResponse(t *domain.Tag, count int) TagResponse {
	return TagResponse{
		ID:           t.ID,
		Name:         t.Name,
		Color:        t.Color,
		ArticleCount: count,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toTagResponse(t.Tag, t.ArticleCount)
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.services.Tag.CreateTag(ctx, userID, input.Body.Name, input.Body.Color)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t, 0)}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagPathInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.services.Tag.GetTag(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t.Tag, t.ArticleCount)}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Tag.UpdateTag(ctx, userID, input.ID, service.UpdateTagInput{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	}); err != nil {
		return nil, err
	}

	// Re-read for the article count.
	t, err := s.services.Tag.GetTag(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: toTagResponse(t.Tag, t.ArticleCount)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagPathInput) (*DeleteTagOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	deletion, err := s.services.Tag.DeleteTag(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	articleIDs := deletion.ArticleIDs
	if articleIDs == nil {
		articleIDs = []string{}
	}

	return &DeleteTagOutput{
		Body: DeleteTagResponse{
			TagID:      deletion.TagID,
			ArticleIDs: articleIDs,
		},
	}, nil
}
