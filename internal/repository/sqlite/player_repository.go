package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository"
)

type playerRepository struct {
	q queryer
}

const playerColumns = "id, username, address, created_at, updated_at"

func (r *playerRepository) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("getting player: id=%d", id)

	var p models.Player
	err := r.q.QueryRowContext(ctx, `
SELECT `+playerColumns+`
FROM players
WHERE id = ?
`, id).Scan(&p.ID, &p.Username, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("player not found: id=%d", id)
			return nil, repository.ErrNotFound
		}
		log.Error("failed to get player: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) GetByAddress(ctx context.Context, address string) (*models.Player, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("getting player: address=%s", address)

	var p models.Player
	err := r.q.QueryRowContext(ctx, `
SELECT `+playerColumns+`
FROM players
WHERE address = ?
`, address).Scan(&p.ID, &p.Username, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("player not found: address=%s", address)
			return nil, repository.ErrNotFound
		}
		log.Error("failed to get player: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *playerRepository) Upsert(ctx context.Context, username, address string) (*models.Player, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("upserting player: address=%s", address)

	var p models.Player
	err := r.q.QueryRowContext(ctx, `
INSERT INTO players (username, address)
VALUES (?, ?)
ON CONFLICT(address) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
RETURNING `+playerColumns+`
`, username, address).Scan(&p.ID, &p.Username, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		log.Error("failed to upsert player: %v", err)
		return nil, err
	}
	log.Debug("player ready: id=%d, username=%s", p.ID, p.Username)
	return &p, nil
}
