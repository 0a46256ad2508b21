package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/parity"
	"github.com/curatorapp/curator-server/internal/service"
)

// DefaultDataset is the dataset imported when Options.Dataset is empty.
const DefaultDataset = "seed"

// MismatchError is returned when the working dataset differs from base.
type MismatchError struct {
	Dataset  string
	Mismatch parity.Result
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dataset %s is not at parity with base: %s", e.Dataset, e.Mismatch)
}

// Options selects what to import and for whom.
type Options struct {
	Dataset string
	UserID  string
	// DryRun runs the parity gate and integrity checks without writing.
	DryRun bool
}

// Result summarizes an import.
type Result struct {
	Report          *parity.Report `json:"report"`
	TagsCreated     int            `json:"tags_created"`
	TagsReused      int            `json:"tags_reused"`
	ArticlesCreated int            `json:"articles_created"`
	Imported        bool           `json:"imported"`
}

// Importer writes a parity-checked seed dataset through the services, so
// imported data passes the same validation and locking as API writes.
type Importer struct {
	checker  *parity.Checker
	workDir  string
	tags     *service.TagService
	articles *service.ArticleService
	logger   *slog.Logger
}

// NewImporter creates an importer reading the working copy from workingDir.
func NewImporter(checker *parity.Checker, workingDir string, tags *service.TagService, articles *service.ArticleService, logger *slog.Logger) *Importer {
	return &Importer{
		checker:  checker,
		workDir:  workingDir,
		tags:     tags,
		articles: articles,
		logger:   logger,
	}
}

// Import checks parity for the dataset and, on a match, creates its tags
// and articles for opts.UserID. Tags that already exist are reused. On a
// mismatch the returned Result carries the report and the error is a
// *MismatchError.
func (im *Importer) Import(ctx context.Context, opts Options) (*Result, error) {
	if opts.UserID == "" {
		return nil, errors.Validation("user id is required")
	}
	if opts.Dataset == "" {
		opts.Dataset = DefaultDataset
	}

	report, err := im.checker.Check(ctx, opts.Dataset)
	if err != nil {
		return nil, fmt.Errorf("parity check: %w", err)
	}
	result := &Result{Report: report}
	if !report.Match() {
		first := report.Mismatches()[0]
		im.logger.Warn("seed import refused", "dataset", opts.Dataset, "verdict", first.Verdict)
		return result, &MismatchError{Dataset: opts.Dataset, Mismatch: first}
	}

	ds, _, err := parity.Load(im.workDir, opts.Dataset)
	if err != nil {
		return nil, err
	}
	bundle, err := Decode(ds)
	if err != nil {
		return nil, err
	}
	if err := bundle.Validate(); err != nil {
		return result, err
	}
	if opts.DryRun {
		return result, nil
	}

	for _, t := range bundle.Tags {
		_, err := im.tags.CreateTag(ctx, opts.UserID, t.Name, t.Color)
		switch {
		case err == nil:
			result.TagsCreated++
		case errors.Is(err, errors.ErrAlreadyExists):
			result.TagsReused++
		default:
			return result, fmt.Errorf("create tag %q: %w", t.Name, err)
		}
	}

	for i, a := range bundle.Articles {
		in := service.CreateArticleInput{
			URL:        a.URL,
			Title:      a.Title,
			Excerpt:    a.Excerpt,
			Content:    a.Content,
			IsFavorite: a.IsFavorite,
			TagNames:   a.Tags,
		}
		if a.Status != "" {
			status, _ := domain.ParseStatus(a.Status)
			in.Status = string(status)
		}
		if _, err := im.articles.CreateArticle(ctx, opts.UserID, in); err != nil {
			return result, fmt.Errorf("create article %d (%s): %w", i, a.URL, err)
		}
		result.ArticlesCreated++
	}

	result.Imported = true
	im.logger.Info("seed imported",
		"dataset", opts.Dataset,
		"user_id", opts.UserID,
		"tags_created", result.TagsCreated,
		"tags_reused", result.TagsReused,
		"articles", result.ArticlesCreated,
	)
	return result, nil
}
