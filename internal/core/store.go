package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/refdata/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the relational store used by the service. Queries runs outside
// any transaction; Begin opens one.
type Store interface {
	Queries() database.Querier
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an open transaction. Rollback after Commit is a no-op.
type Tx interface {
	Queries() database.Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PgStore implements Store on a pgx pool.
type PgStore struct {
	pool *pgxpool.Pool
	q    *database.Queries
}

// NewPgStore wraps pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, q: database.New(pool)}
}

func (s *PgStore) Queries() database.Querier {
	return s.q
}

func (s *PgStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgTx{tx: tx, q: s.q.WithTx(tx)}, nil
}

type pgTx struct {
	tx pgx.Tx
	q  *database.Queries
}

func (t *pgTx) Queries() database.Querier {
	return t.q
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
