package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curatorapp/curator-server/internal/domain"
)

func (s *Server) registerBulkRoutes() {
	register := func(id, path, summary, desc string, handler func(context.Context, *BulkInput) (*BulkOutput, error)) {
		huma.Register(s.api, huma.Operation{
			OperationID: id,
			Method:      http.MethodPost,
			Path:        path,
			Summary:     summary,
			Description: desc,
			Tags:        []string{"Bulk"},
			Security:    bearerSecurity,
		}, handler)
	}

	register("bulkFavorite", "/api/v1/bulk/favorite", "Favorite articles",
		"Marks every selected article as a favorite", s.handleBulkFavorite)
	register("bulkUnfavorite", "/api/v1/bulk/unfavorite", "Unfavorite articles",
		"Clears the favorite flag on every selected article", s.handleBulkUnfavorite)
	register("bulkTag", "/api/v1/bulk/tag", "Tag articles",
		"Resolves tag names once, creating missing tags, and attaches them to every selected article", s.handleBulkTag)
	register("bulkStatus", "/api/v1/bulk/status", "Change status",
		"Moves every selected article to one queue", s.handleBulkStatus)
	register("bulkAdvance", "/api/v1/bulk/advance", "Advance status",
		"Moves every selected article one queue forward; archived articles stay put", s.handleBulkAdvance)
	register("bulkDelete", "/api/v1/bulk/delete", "Delete articles",
		"Deletes every selected article with its highlights", s.handleBulkDelete)
}

// === DTOs ===

// BulkRequest selects the articles of a bulk operation. Status is read by
// /bulk/status and TagNames by /bulk/tag; other actions ignore them.
type BulkRequest struct {
	ArticleIDs []string `json:"article_ids" minItems:"1" doc:"Articles to act on; repeats are ignored"`
	Status     string   `json:"status,omitempty" doc:"Target queue for /bulk/status"`
	TagNames   []string `json:"tag_names,omitempty" doc:"Tag names for /bulk/tag"`
}

// BulkInput wraps the bulk request for Huma.
type BulkInput struct {
	Body BulkRequest
}

// BulkOutput wraps the per-article outcomes for Huma. Partial failure is
// still a 200; callers inspect each outcome.
type BulkOutput struct {
	Body *domain.BulkResult
}

func bulkOutput(result *domain.BulkResult, err error) (*BulkOutput, error) {
	if err != nil {
		return nil, err
	}
	return &BulkOutput{Body: result}, nil
}

// === Handlers ===

func (s *Server) handleBulkFavorite(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return bulkOutput(s.services.Bulk.BulkFavorite(ctx, userID, input.Body.ArticleIDs))
}

func (s *Server) handleBulkUnfavorite(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return bulkOutput(s.services.Bulk.BulkUnfavorite(ctx, userID, input.Body.ArticleIDs))
}

func (s *Server) handleBulkTag(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return bulkOutput(s.services.Bulk.BulkTag(ctx, userID, input.Body.ArticleIDs, input.Body.TagNames))
}

func (s *Server) handleBulkStatus(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return bulkOutput(s.services.Bulk.BulkStatusChange(ctx, userID, input.Body.ArticleIDs, input.Body.Status))
}

func (s *Server) handleBulkAdvance(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return bulkOutput(s.services.Bulk.BulkAdvanceStatus(ctx, userID, input.Body.ArticleIDs))
}

func (s *Server) handleBulkDelete(ctx context.Context, input *BulkInput) (*BulkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	return bulkOutput(s.services.Bulk.BulkDelete(ctx, userID, input.Body.ArticleIDs))
}
