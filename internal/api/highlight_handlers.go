package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/service"
)

func (s *Server) registerHighlightRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listHighlights",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}/highlights",
		Summary:     "List highlights",
		Description: "Returns the highlights of an article in position order",
		Tags:        []string{"Highlights"},
		Security:    bearerSecurity,
	}, s.handleListHighlights)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createHighlight",
		Method:        http.MethodPost,
		Path:          "/api/v1/articles/{id}/highlights",
		Summary:       "Create highlight",
		Description:   "Marks a passage of an article",
		Tags:          []string{"Highlights"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerSecurity,
	}, s.handleCreateHighlight)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteHighlight",
		Method:        http.MethodDelete,
		Path:          "/api/v1/highlights/{id}",
		Summary:       "Delete highlight",
		Description:   "Deletes a highlight",
		Tags:          []string{"Highlights"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerSecurity,
	}, s.handleDeleteHighlight)
}

// === DTOs ===

// HighlightResponse contains highlight data in API responses.
type HighlightResponse struct {
	ID          string             `json:"id" doc:"Highlight ID"`
	ArticleID   string             `json:"article_id" doc:"Article ID"`
	Text        string             `json:"text" doc:"Highlighted text"`
	Annotations domain.Annotations `json:"annotations" doc:"User notes"`
	Color       string             `json:"color,omitempty" doc:"Display color"`
	Position    domain.Position    `json:"position" doc:"Character range in the article content"`
	CreatedAt   time.Time          `json:"created_at" doc:"Creation time"`
}

// ListHighlightsResponse contains a list of highlights.
type ListHighlightsResponse struct {
	Highlights []HighlightResponse `json:"highlights" doc:"List of highlights"`
}

// ListHighlightsOutput wraps the list highlights response for Huma.
type ListHighlightsOutput struct {
	Body ListHighlightsResponse
}

// AnnotationsRequest carries the optional notes of a new highlight.
type AnnotationsRequest struct {
	Title string  `json:"title,omitempty" doc:"Short title"`
	Note  *string `json:"note,omitempty" doc:"Free-form note"`
}

// CreateHighlightRequest is the request body for creating a highlight.
type CreateHighlightRequest struct {
	Text        string             `json:"text" minLength:"1" doc:"Highlighted text"`
	Annotations AnnotationsRequest `json:"annotations,omitempty" doc:"User notes"`
	Color       string             `json:"color,omitempty" doc:"Display color"`
	Position    domain.Position    `json:"position" doc:"Character range in the article content"`
}

// CreateHighlightInput wraps the create highlight request for Huma.
type CreateHighlightInput struct {
	ArticleID string `path:"id" doc:"Article ID"`
	Body      CreateHighlightRequest
}

// HighlightOutput wraps the highlight response for Huma.
type HighlightOutput struct {
	Body HighlightResponse
}

// HighlightPathInput identifies one highlight.
type HighlightPathInput struct {
	ID string `path:"id" doc:"Highlight ID"`
}

func toHighlightResponse(h *domain.Highlight) HighlightResponse {
	return HighlightResponse{
		ID:          h.ID,
		ArticleID:   h.ArticleID,
		Text:        h.Text,
		Annotations: h.Annotations,
		Color:       h.Color,
		Position:    h.Position,
		CreatedAt:   h.CreatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListHighlights(ctx context.Context, input *ArticlePathInput) (*ListHighlightsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	highlights, err := s.services.Highlight.ListHighlights(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]HighlightResponse, len(highlights))
	for i, h := range highlights {
		resp[i] = toHighlightResponse(h)
	}

	return &ListHighlightsOutput{Body: ListHighlightsResponse{Highlights: resp}}, nil
}

func (s *Server) handleCreateHighlight(ctx context.Context, input *CreateHighlightInput) (*HighlightOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	annotations := domain.Annotations{
		Title: input.Body.Annotations.Title,
		Note:  input.Body.Annotations.Note,
	}
	h, err := s.services.Highlight.CreateHighlight(ctx, userID, input.ArticleID, service.CreateHighlightInput{
		Text:        input.Body.Text,
		Annotations: annotations,
		Color:       input.Body.Color,
		Position:    input.Body.Position,
	})
	if err != nil {
		return nil, err
	}

	return &HighlightOutput{Body: toHighlightResponse(h)}, nil
}

func (s *Server) handleDeleteHighlight(ctx context.Context, input *HighlightPathInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Highlight.DeleteHighlight(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
