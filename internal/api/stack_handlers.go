package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/service"
)

func (s *Server) registerStackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listStacks",
		Method:      http.MethodGet,
		Path:        "/api/v1/stacks",
		Summary:     "List stacks",
		Description: "Returns the current user's saved searches",
		Tags:        []string{"Stacks"},
		Security:    bearerSecurity,
	}, s.handleListStacks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createStack",
		Method:        http.MethodPost,
		Path:          "/api/v1/stacks",
		Summary:       "Create stack",
		Description:   "Saves a search. Filters accept status, favorite and tag",
		Tags:          []string{"Stacks"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerSecurity,
	}, s.handleCreateStack)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStack",
		Method:      http.MethodGet,
		Path:        "/api/v1/stacks/{id}",
		Summary:     "Get stack",
		Description: "Returns a stack by ID",
		Tags:        []string{"Stacks"},
		Security:    bearerSecurity,
	}, s.handleGetStack)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteStack",
		Method:        http.MethodDelete,
		Path:          "/api/v1/stacks/{id}",
		Summary:       "Delete stack",
		Description:   "Deletes a stack. Articles are not affected",
		Tags:          []string{"Stacks"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerSecurity,
	}, s.handleDeleteStack)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStackArticles",
		Method:      http.MethodGet,
		Path:        "/api/v1/stacks/{id}/articles",
		Summary:     "Get stack articles",
		Description: "Returns the articles a stack currently matches",
		Tags:        []string{"Stacks"},
		Security:    bearerSecurity,
	}, s.handleGetStackArticles)
}

// === DTOs ===

// StackResponse contains stack data in API responses.
type StackResponse struct {
	ID        string            `json:"id" doc:"Stack ID"`
	Name      string            `json:"name" doc:"Stack name"`
	Query     string            `json:"query" doc:"Free-text query"`
	Filters   map[string]string `json:"filters" doc:"Exact-match filters"`
	CreatedAt time.Time         `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time         `json:"updated_at" doc:"Last update time"`
}

// ListStacksResponse contains a list of stacks.
type ListStacksResponse struct {
	Stacks []StackResponse `json:"stacks" doc:"List of stacks"`
}

// ListStacksOutput wraps the list stacks response for Huma.
type ListStacksOutput struct {
	Body ListStacksResponse
}

// CreateStackRequest is the request body for creating a stack.
type CreateStackRequest struct {
	Name    string            `json:"name" minLength:"1" doc:"Stack name"`
	Query   string            `json:"query,omitempty" doc:"Free-text query"`
	Filters map[string]string `json:"filters,omitempty" doc:"Exact-match filters: status, favorite, tag"`
}

// CreateStackInput wraps the create stack request for Huma.
type CreateStackInput struct {
	Body CreateStackRequest
}

// StackOutput wraps the stack response for Huma.
type StackOutput struct {
	Body StackResponse
}

// StackPathInput identifies one stack.
type StackPathInput struct {
	ID string `path:"id" doc:"Stack ID"`
}

// StackArticlesInput identifies a stack and the page of its articles.
type StackArticlesInput struct {
	ID     string `path:"id" doc:"Stack ID"`
	Limit  int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size (default 100)"`
	Cursor string `query:"cursor" doc:"next_cursor from the previous page"`
}

func toStackResponse(st *domain.Stack) StackResponse {
	filters := st.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	return StackResponse{
		ID:        st.ID,
		Name:      st.Name,
		Query:     st.Query,
		Filters:   filters,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleListStacks(ctx context.Context, _ *struct{}) (*ListStacksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stacks, err := s.services.Stack.ListStacks(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]StackResponse, len(stacks))
	for i, st := range stacks {
		resp[i] = toStackResponse(st)
	}

	return &ListStacksOutput{Body: ListStacksResponse{Stacks: resp}}, nil
}

func (s *Server) handleCreateStack(ctx context.Context, input *CreateStackInput) (*StackOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.services.Stack.CreateStack(ctx, userID, service.CreateStackInput{
		Name:    input.Body.Name,
		Query:   input.Body.Query,
		Filters: input.Body.Filters,
	})
	if err != nil {
		return nil, err
	}

	return &StackOutput{Body: toStackResponse(st)}, nil
}

func (s *Server) handleGetStack(ctx context.Context, input *StackPathInput) (*StackOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.services.Stack.GetStack(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &StackOutput{Body: toStackResponse(st)}, nil
}

func (s *Server) handleDeleteStack(ctx context.Context, input *StackPathInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Stack.DeleteStack(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetStackArticles(ctx context.Context, input *StackArticlesInput) (*ListArticlesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.services.Stack.StackArticles(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return paginateArticles(views, input.Limit, input.Cursor)
}
