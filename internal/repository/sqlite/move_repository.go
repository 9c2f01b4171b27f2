package sqlite

import (
	"context"

	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/models"
)

type moveRepository struct {
	q queryer
}

func (r *moveRepository) Append(ctx context.Context, m models.Move) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("move_repo")
	log.Debug("appending move: game_id=%d, move=%s, number=%d", m.GameID, m.Move, m.MoveNumber)

	res, err := r.q.ExecContext(ctx, `
INSERT INTO game_moves (game_id, player_id, move, san, fen, move_number)
VALUES (?, ?, ?, ?, ?, ?)
`, m.GameID, m.PlayerID, m.Move, m.SAN, m.FEN, m.MoveNumber)
	if err != nil {
		log.Error("failed to append move: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get move id: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *moveRepository) ListForGame(ctx context.Context, gameID int64) ([]models.Move, error) {
	log := logger.FromContext(ctx).WithPrefix("move_repo")
	log.Debug("listing moves: game_id=%d", gameID)

	rows, err := r.q.QueryContext(ctx, `
SELECT id, game_id, player_id, move, san, fen, move_number, created_at
FROM game_moves
WHERE game_id = ?
ORDER BY move_number ASC
`, gameID)
	if err != nil {
		log.Error("failed to list moves: %v", err)
		return nil, err
	}
	defer rows.Close()

	var moves []models.Move
	for rows.Next() {
		var m models.Move
		if err := rows.Scan(&m.ID, &m.GameID, &m.PlayerID, &m.Move, &m.SAN, &m.FEN, &m.MoveNumber, &m.CreatedAt); err != nil {
			log.Error("failed to scan move row: %v", err)
			return nil, err
		}
		moves = append(moves, m)
	}
	log.Debug("found %d moves", len(moves))
	return moves, rows.Err()
}

func (r *moveRepository) CountForGame(ctx context.Context, gameID int64) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("move_repo")

	var count int
	err := r.q.QueryRowContext(ctx, `
SELECT COUNT(*) FROM game_moves WHERE game_id = ?
`, gameID).Scan(&count)
	if err != nil {
		log.Error("failed to count moves: %v", err)
		return 0, err
	}
	return count, nil
}
