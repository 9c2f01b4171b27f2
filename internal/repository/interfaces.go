package repository

import (
	"context"
	"errors"

	"github.com/akhil-rawat/chesschain/internal/models"
)

// Sentinel errors surfaced by implementations so callers can react without
// knowing the storage engine.
var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when an optimistic update loses a race
	// (the game's version changed since it was read).
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicateResult is returned when a result already exists for a game.
	ErrDuplicateResult = errors.New("result already recorded")
)

// PlayerRepository handles player data access
type PlayerRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Player, error)
	GetByAddress(ctx context.Context, address string) (*models.Player, error)
	Upsert(ctx context.Context, username, address string) (*models.Player, error)
}

// GameRepository handles game data access
type GameRepository interface {
	Get(ctx context.Context, id int64) (*models.Game, error)
	// GetDetailed returns the game with both player records populated.
	GetDetailed(ctx context.Context, id int64) (*models.Game, error)
	ListWaiting(ctx context.Context) ([]models.Game, error)
	// ListRecentCompleted returns the most recently finished games with
	// players and result populated, newest first.
	ListRecentCompleted(ctx context.Context, limit int) ([]models.Game, error)
	Insert(ctx context.Context, game models.Game) (int64, error)
	// Update persists mutable game state guarded by the version counter.
	// A stale version yields ErrVersionConflict; on success the version on
	// the passed game is bumped to match the stored row.
	Update(ctx context.Context, game *models.Game) error
}

// MoveRepository handles the append-only move ledger
type MoveRepository interface {
	Append(ctx context.Context, move models.Move) (int64, error)
	ListForGame(ctx context.Context, gameID int64) ([]models.Move, error)
	CountForGame(ctx context.Context, gameID int64) (int, error)
}

// ResultRepository handles immutable result records
type ResultRepository interface {
	// Insert records a result. A second result for the same game yields
	// ErrDuplicateResult.
	Insert(ctx context.Context, result models.Result) (int64, error)
	GetForGame(ctx context.Context, gameID int64) (*models.Result, error)
}

// Store groups the repositories and provides transactional execution.
type Store interface {
	Players() PlayerRepository
	Games() GameRepository
	Moves() MoveRepository
	Results() ResultRepository
	// Atomic runs fn against a store whose repositories share one
	// transaction. fn returning an error rolls everything back.
	Atomic(ctx context.Context, fn func(Store) error) error
}
