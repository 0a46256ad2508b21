package api

import "github.com/curatorapp/curator-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth      *service.AuthService
	Tag       *service.TagService
	Article   *service.ArticleService
	Highlight *service.HighlightService
	Stack     *service.StackService
	Bulk      *service.BulkService
}
