package seed

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/keylock"
	"github.com/curatorapp/curator-server/internal/parity"
	"github.com/curatorapp/curator-server/internal/search"
	"github.com/curatorapp/curator-server/internal/service"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

const testUser = "usr-seedtest"

const seedJSON = `{
  "tags": [
    {"name": "Go", "color": "#00ADD8"},
    {"name": "reading"}
  ],
  "articles": [
    {"url": "https://example.com/one", "title": "One", "tags": ["go", "Reading"]},
    {"url": "https://example.com/two", "status": "Daily", "is_favorite": true}
  ]
}`

type fixture struct {
	base, working string
	tags          *service.TagService
	articles      *service.ArticleService
	importer      *Importer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	tmp := t.TempDir()
	st, err := store.New(filepath.Join(tmp, "db"), logger)
	require.NoError(t, err)
	index, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	st.SetSearchIndexer(index)
	t.Cleanup(func() {
		_ = index.Close()
		_ = st.Close()
	})

	locks := keylock.New()
	tags := service.NewTagService(st, locks, nil, logger)
	articles := service.NewArticleService(st, tags, locks, index, validation.New(), nil, logger)

	f := &fixture{
		base:     filepath.Join(tmp, "base"),
		working:  filepath.Join(tmp, "working"),
		tags:     tags,
		articles: articles,
	}
	require.NoError(t, os.MkdirAll(f.base, 0o755))
	require.NoError(t, os.MkdirAll(f.working, 0o755))

	checker := parity.NewChecker(f.base, f.working, logger)
	f.importer = NewImporter(checker, f.working, tags, articles, logger)
	return f
}

func (f *fixture) write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImport_AtParity(t *testing.T) {
	f := setup(t)
	f.write(t, f.base, "seed.json", seedJSON)
	f.write(t, f.working, "seed.json", seedJSON)
	ctx := context.Background()

	result, err := f.importer.Import(ctx, Options{UserID: testUser})
	require.NoError(t, err)
	assert.True(t, result.Imported)
	assert.Equal(t, 2, result.TagsCreated)
	assert.Equal(t, 2, result.ArticlesCreated)

	tags, err := f.tags.ListTags(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	views, err := f.articles.ListArticles(ctx, testUser, service.ListArticlesOptions{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	for _, v := range views {
		switch v.URL {
		case "https://example.com/one":
			assert.ElementsMatch(t, []string{"Go", "reading"}, v.TagNames)
		case "https://example.com/two":
			assert.Equal(t, "daily", string(v.Status))
			assert.True(t, v.IsFavorite)
		}
	}
}

func TestImport_ReusesExistingTags(t *testing.T) {
	f := setup(t)
	f.write(t, f.base, "seed.json", seedJSON)
	f.write(t, f.working, "seed.json", seedJSON)
	ctx := context.Background()

	_, err := f.tags.CreateTag(ctx, testUser, "GO", "")
	require.NoError(t, err)

	result, err := f.importer.Import(ctx, Options{UserID: testUser})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TagsCreated)
	assert.Equal(t, 1, result.TagsReused)

	tags, err := f.tags.ListTags(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestImport_RefusedWithoutParity(t *testing.T) {
	f := setup(t)
	f.write(t, f.base, "seed.json", `{"tags":[{"name":"go"}],"articles":[]}`)
	f.write(t, f.working, "seed.json", seedJSON)
	ctx := context.Background()

	result, err := f.importer.Import(ctx, Options{UserID: testUser})
	require.Error(t, err)

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "seed", mismatch.Dataset)
	assert.False(t, result.Imported)
	assert.False(t, result.Report.Match())

	tags, err := f.tags.ListTags(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestImport_DanglingTagReference(t *testing.T) {
	f := setup(t)
	bad := `{"tags":[{"name":"go"}],"articles":[{"url":"https://example.com/x","tags":["rust"]}]}`
	f.write(t, f.base, "seed.json", bad)
	f.write(t, f.working, "seed.json", bad)
	ctx := context.Background()

	_, err := f.importer.Import(ctx, Options{UserID: testUser})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	views, err := f.articles.ListArticles(ctx, testUser, service.ListArticlesOptions{})
	require.NoError(t, err)
	assert.Empty(t, views, "nothing is written when integrity fails")
}

func TestImport_DryRun(t *testing.T) {
	f := setup(t)
	f.write(t, f.base, "seed.json", seedJSON)
	f.write(t, f.working, "seed.json", seedJSON)
	ctx := context.Background()

	result, err := f.importer.Import(ctx, Options{UserID: testUser, DryRun: true})
	require.NoError(t, err)
	assert.False(t, result.Imported)
	assert.True(t, result.Report.Match())

	tags, err := f.tags.ListTags(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestImport_TOMLDataset(t *testing.T) {
	f := setup(t)
	f.write(t, f.base, "seed.json", `{"tags":[{"name":"go"}],"articles":[{"url":"https://example.com/x","tags":["go"]}]}`)
	f.write(t, f.working, "seed.toml", `
[[tags]]
name = "go"

[[articles]]
url = "https://example.com/x"
tags = ["go"]
`)

	result, err := f.importer.Import(context.Background(), Options{UserID: testUser})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ArticlesCreated)
}

func TestBundleValidate(t *testing.T) {
	tests := []struct {
		name     string
		bundle   Bundle
		problems int
	}{
		{
			name:   "clean",
			bundle: Bundle{Tags: []TagRecord{{Name: "go"}}, Articles: []ArticleRecord{{URL: "https://x", Tags: []string{" GO "}}}},
		},
		{
			name:     "duplicate tag by normalized name",
			bundle:   Bundle{Tags: []TagRecord{{Name: "Machine Learning"}, {Name: "machine  learning"}}},
			problems: 1,
		},
		{
			name:     "empty tag name",
			bundle:   Bundle{Tags: []TagRecord{{Name: "  "}}},
			problems: 1,
		},
		{
			name:     "unknown tag and bad status",
			bundle:   Bundle{Articles: []ArticleRecord{{URL: "https://x", Status: "someday", Tags: []string{"go"}}}},
			problems: 2,
		},
		{
			name:     "missing url",
			bundle:   Bundle{Articles: []ArticleRecord{{}}},
			problems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bundle.Validate()
			if tt.problems == 0 {
				assert.NoError(t, err)
				return
			}
			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Len(t, domainErr.Details, tt.problems)
		})
	}
}
