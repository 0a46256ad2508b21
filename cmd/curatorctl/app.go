package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/curatorapp/curator-server/internal/auth"
	"github.com/curatorapp/curator-server/internal/config"
	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/logger"
	"github.com/curatorapp/curator-server/internal/search"
	"github.com/curatorapp/curator-server/internal/service"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

// app is the subset of the server the CLI needs, opened directly on the
// data directory.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	index    *search.SearchIndex
	tokens   *auth.TokenService
	auth     *service.AuthService
	tags     *service.TagService
	articles *service.ArticleService
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{Writer: w, Level: level}).Logger
}

// openApp loads the server config and opens its store and search index.
func openApp(logOut io.Writer) (*app, error) {
	var args []string
	if dataPath != "" {
		args = append(args, "-data-path", dataPath)
	}
	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}

	log := newLogger(logOut)

	st, err := store.New(filepath.Join(cfg.Data.Path, "db"), log)
	if err != nil {
		return nil, fmt.Errorf("open database (is the server running?): %w", err)
	}
	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.Data.Path, Logger: log})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	st.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(cfg.Data.Path)
	if err != nil {
		_ = index.Close()
		_ = st.Close()
		return nil, err
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		_ = index.Close()
		_ = st.Close()
		return nil, err
	}

	locks := keylock.New()
	v := validation.New()
	tags := service.NewTagService(st, locks, nil, log)

	return &app{
		cfg:      cfg,
		logger:   log,
		store:    st,
		index:    index,
		tokens:   tokens,
		auth:     service.NewAuthService(st, tokens, v, log),
		tags:     tags,
		articles: service.NewArticleService(st, tags, locks, index, v, nil, log),
	}, nil
}

func (a *app) Close() {
	_ = a.index.Close()
	_ = a.store.Close()
}

// lookupUser accepts a user id or an email address.
func (a *app) lookupUser(ctx context.Context, ref string) (*domain.User, error) {
	if strings.Contains(ref, "@") {
		return a.auth.GetUserByEmail(ctx, ref)
	}
	return a.auth.GetUser(ctx, ref)
}
