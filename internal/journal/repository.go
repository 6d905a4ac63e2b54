package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JaimeStill/docriver/pkg/pagination"
	"github.com/JaimeStill/docriver/pkg/query"
	"github.com/JaimeStill/docriver/pkg/repository"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	repository.Querier
	repository.Executor
	repository.Beginner
}

const insertEntry = `
	INSERT INTO submissions(id, realm, tx, kind, status, message, documents)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, realm, tx, kind, status, message, documents, created_at`

type repo struct {
	db         DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a journal backed by db.
func New(db DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "journal"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Entry, error) {
	args := cmd.args(uuid.New())

	e, err := repository.WithTx(ctx, r.db, func(tx pgx.Tx) (Entry, error) {
		return repository.QueryOne(ctx, tx, insertEntry, args, scanEntry)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "outcome recorded", "id", e.ID, "realm", e.Realm, "kind", e.Kind)
	return &e, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "tx", "message")
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderBy(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("id", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Purge(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, fmt.Errorf("%w: purge requires a cutoff", ErrInvalid)
	}

	tag, err := r.db.Exec(ctx, "DELETE FROM submissions WHERE created_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("purge entries: %w", err)
	}

	r.logger.InfoContext(ctx, "journal purged", "before", before, "removed", tag.RowsAffected())
	return tag.RowsAffected(), nil
}
