package progress

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/pkg/repository"
)

// System computes certification progress on demand.
type System interface {
	Handler() *Handler
	Category(ctx context.Context, categoryID uuid.UUID) (*Category, error)
	Contest(ctx context.Context, contestID uuid.UUID) (*Contest, error)
}

type aggregator struct {
	db          *sql.DB
	logger      *slog.Logger
	concurrency int
}

// New creates a progress aggregator. concurrency bounds the categories
// loaded in parallel for contest progress.
func New(db *sql.DB, logger *slog.Logger, concurrency int) System {
	if concurrency < 1 {
		concurrency = 1
	}
	return &aggregator{
		db:          db,
		logger:      logger.With("system", "progress"),
		concurrency: concurrency,
	}
}

func (a *aggregator) Handler() *Handler {
	return NewHandler(a, a.logger)
}

func (a *aggregator) Category(ctx context.Context, categoryID uuid.UUID) (*Category, error) {
	in, err := Load(ctx, a.db, categoryID)
	if err != nil {
		return nil, err
	}
	c := Compute(in)
	return &c, nil
}

func (a *aggregator) Contest(ctx context.Context, contestID uuid.UUID) (*Contest, error) {
	exists, err := repository.Exists(ctx, a.db, "SELECT 1 FROM contests WHERE id = $1", contestID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, events.ErrContestNotFound
	}

	ids, err := events.ContestCategoryIDs(ctx, a.db, contestID)
	if err != nil {
		return nil, err
	}

	categories := make([]Category, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			in, err := Load(gctx, a.db, id)
			if err != nil {
				return err
			}
			categories[i] = Compute(in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	board, err := BoardCertification(ctx, a.db, contestID)
	if err != nil {
		return nil, err
	}

	c := Summarize(contestID, categories, board)
	return &c, nil
}
