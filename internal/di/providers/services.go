package providers

import (
	"github.com/samber/do/v2"

	"github.com/curatorapp/curator-server/internal/auth"
	"github.com/curatorapp/curator-server/internal/config"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/logger"
	"github.com/curatorapp/curator-server/internal/service"
	"github.com/curatorapp/curator-server/internal/validation"
)

// ProvideKeyLocker provides the keyed mutexes shared by the tag and bulk services.
func ProvideKeyLocker(i do.Injector) (*keylock.Locker, error) {
	return keylock.New(), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, v, log.Logger), nil
}

// ProvideTagService provides the tag service, which owns every article-tag mutation.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	locks := do.MustInvoke[*keylock.Locker](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, locks, sseHandle.Manager, log.Logger), nil
}

// ProvideArticleService provides the article service.
func ProvideArticleService(i do.Injector) (*service.ArticleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tags := do.MustInvoke[*service.TagService](i)
	locks := do.MustInvoke[*keylock.Locker](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewArticleService(
		storeHandle.Store,
		tags,
		locks,
		indexHandle.SearchIndex,
		v,
		sseHandle.Manager,
		log.Logger,
	), nil
}

// ProvideHighlightService provides the highlight service.
func ProvideHighlightService(i do.Injector) (*service.HighlightService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHighlightService(storeHandle.Store, v, sseHandle.Manager, log.Logger), nil
}

// ProvideStackService provides the saved-search stack service.
func ProvideStackService(i do.Injector) (*service.StackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	articles := do.MustInvoke[*service.ArticleService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStackService(storeHandle.Store, articles, v, log.Logger), nil
}

// ProvideBulkService provides the bulk operation coordinator.
func ProvideBulkService(i do.Injector) (*service.BulkService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tags := do.MustInvoke[*service.TagService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBulkService(storeHandle.Store, tags, sseHandle.Manager, cfg.Bulk.Concurrency, log.Logger), nil
}
