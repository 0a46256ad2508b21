package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/id"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

// StackService manages saved searches and evaluates them.
type StackService struct {
	store     *store.Store
	articles  *ArticleService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewStackService creates a new stack service.
func NewStackService(store *store.Store, articles *ArticleService, validator *validation.Validator, logger *slog.Logger) *StackService {
	return &StackService{store: store, articles: articles, validator: validator, logger: logger}
}

// CreateStackInput holds the fields of a new stack.
type CreateStackInput struct {
	Name    string            `json:"name" validate:"required,max=100"`
	Query   string            `json:"query" validate:"max=500"`
	Filters map[string]string `json:"filters"`
}

// CreateStack saves a stack. Unknown filter names are rejected, and a tag
// filter must name one of the caller's tags.
func (s *StackService) CreateStack(ctx context.Context, userID string, in CreateStackInput) (*domain.Stack, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	filter, err := domain.ParseFilters(in.Filters)
	if err != nil {
		return nil, err
	}
	if filter.TagID != "" {
		tag, err := s.store.GetTag(ctx, filter.TagID)
		if err != nil || !tag.OwnedBy(userID) {
			return nil, errors.ValidationWithDetails("tag filter references an unknown tag",
				map[string]string{"tag": filter.TagID})
		}
	}

	stackID, err := id.Generate(id.PrefixStack)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate stack id")
	}
	filters := in.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	stack := &domain.Stack{
		Owned:   domain.Owned{ID: stackID, UserID: userID},
		Name:    in.Name,
		Query:   strings.TrimSpace(in.Query),
		Filters: filters,
	}
	stack.InitTimestamps()

	if err := s.store.Stacks.Create(ctx, stack.ID, stack); err != nil {
		return nil, storeError(err, hideForeign)
	}
	s.logger.Info("stack created", "stack_id", stack.ID, "user_id", userID)
	return stack, nil
}

// GetStack returns one of the user's stacks.
func (s *StackService) GetStack(ctx context.Context, userID, stackID string) (*domain.Stack, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	stack, err := s.store.Stacks.Get(ctx, stackID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	if !stack.OwnedBy(userID) {
		return nil, errors.NotFoundf("stack not found")
	}
	return stack, nil
}

// ListStacks returns the user's stacks ordered by name.
func (s *StackService) ListStacks(ctx context.Context, userID string) ([]*domain.Stack, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	stacks, err := s.store.ListStacksByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	if stacks == nil {
		stacks = []*domain.Stack{}
	}
	return stacks, nil
}

// DeleteStack removes one of the user's stacks. Articles are not affected.
func (s *StackService) DeleteStack(ctx context.Context, userID, stackID string) error {
	if _, err := s.GetStack(ctx, userID, stackID); err != nil {
		return err
	}
	if err := s.store.Stacks.Delete(ctx, stackID); err != nil {
		return storeError(err, hideForeign)
	}
	s.logger.Info("stack deleted", "stack_id", stackID, "user_id", userID)
	return nil
}

// StackArticles evaluates a stack: its query through the search index, then
// its filters, newest first.
func (s *StackService) StackArticles(ctx context.Context, userID, stackID string) ([]*domain.ArticleView, error) {
	stack, err := s.GetStack(ctx, userID, stackID)
	if err != nil {
		return nil, err
	}
	filter, err := domain.ParseFilters(stack.Filters)
	if err != nil {
		return nil, err
	}
	return s.articles.ListArticles(ctx, userID, ListArticlesOptions{Filter: filter, Query: stack.Query})
}
