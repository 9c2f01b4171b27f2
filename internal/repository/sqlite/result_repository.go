package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository"
)

type resultRepository struct {
	q queryer
}

func (r *resultRepository) Insert(ctx context.Context, res models.Result) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")
	log.Debug("recording result: game_id=%d, result=%s", res.GameID, res.Result)

	execRes, err := r.q.ExecContext(ctx, `
INSERT INTO game_results (game_id, winner_id, result, ended_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(game_id) DO NOTHING
`, res.GameID, int64PtrNull(res.WinnerID), string(res.Result), res.EndedAt)
	if err != nil {
		log.Error("failed to record result: %v", err)
		return 0, err
	}
	n, err := execRes.RowsAffected()
	if err != nil {
		log.Error("failed to read rows affected: %v", err)
		return 0, err
	}
	if n == 0 {
		log.Warn("result already recorded: game_id=%d", res.GameID)
		return 0, repository.ErrDuplicateResult
	}
	id, err := execRes.LastInsertId()
	if err != nil {
		log.Error("failed to get result id: %v", err)
		return 0, err
	}
	log.Debug("result recorded: id=%d", id)
	return id, nil
}

func (r *resultRepository) GetForGame(ctx context.Context, gameID int64) (*models.Result, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")
	log.Debug("getting result: game_id=%d", gameID)

	var res models.Result
	var winnerID sql.NullInt64
	err := r.q.QueryRowContext(ctx, `
SELECT id, game_id, winner_id, result, ended_at, created_at
FROM game_results
WHERE game_id = ?
`, gameID).Scan(&res.ID, &res.GameID, &winnerID, &res.Result, &res.EndedAt, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no result for game_id=%d", gameID)
			return nil, repository.ErrNotFound
		}
		log.Error("failed to get result: %v", err)
		return nil, err
	}
	res.WinnerID = nullInt64Ptr(winnerID)
	return &res, nil
}
