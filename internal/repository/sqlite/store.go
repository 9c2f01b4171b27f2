package sqlite

import (
	"context"
	"database/sql"

	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/repository"
)

// queryer is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every repository works both standalone and inside Atomic.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type store struct {
	db *sql.DB // nil when this store is transaction-backed
	q  queryer
}

// NewStore creates a SQLite-backed Store.
func NewStore(db *sql.DB) repository.Store {
	return &store{db: db, q: db}
}

func (s *store) Players() repository.PlayerRepository {
	return &playerRepository{q: s.q}
}

func (s *store) Games() repository.GameRepository {
	return &gameRepository{q: s.q}
}

func (s *store) Moves() repository.MoveRepository {
	return &moveRepository{q: s.q}
}

func (s *store) Results() repository.ResultRepository {
	return &resultRepository{q: s.q}
}

func (s *store) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	// Already inside a transaction; reuse it.
	if s.db == nil {
		return fn(s)
	}

	log := logger.FromContext(ctx).WithPrefix("store")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(&store{q: tx}); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	log.Debug("transaction committed")
	return nil
}
