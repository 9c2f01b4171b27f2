package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository"
)

type gameRepository struct {
	q queryer
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%d", id)

	row := r.q.QueryRowContext(ctx, `
SELECT id, player1_id, player2_id, wager_amount, time_control, status, fen,
       current_turn, draw_offered, contract_address, transaction_hash, network,
       wager_status, version, created_at, last_move_at
FROM games
WHERE id = ?
`, id)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("game not found: id=%d", id)
			return nil, repository.ErrNotFound
		}
		log.Error("failed to get game: %v", err)
		return nil, err
	}
	log.Debug("game found: status=%s, turn=%s", g.Status, g.CurrentTurn)
	return g, nil
}

func (r *gameRepository) GetDetailed(ctx context.Context, id int64) (*models.Game, error) {
	g, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	players := &playerRepository{q: r.q}
	if g.Player1, err = players.GetByID(ctx, g.Player1ID); err != nil {
		return nil, err
	}
	if g.Player2ID != nil {
		if g.Player2, err = players.GetByID(ctx, *g.Player2ID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (r *gameRepository) ListWaiting(ctx context.Context) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing waiting games")

	query := sqlBuilder.Select(
		"g.id", "g.player1_id", "g.player2_id", "g.wager_amount", "g.time_control",
		"g.status", "g.fen", "g.current_turn", "g.draw_offered", "g.contract_address",
		"g.transaction_hash", "g.network", "g.wager_status", "g.version",
		"g.created_at", "g.last_move_at",
		"p.id", "p.username", "p.address", "p.created_at", "p.updated_at",
	).
		From("games g").
		Join("players p ON p.id = g.player1_id").
		Where(squirrel.Eq{"g.status": string(models.GameStatusWaiting)}).
		OrderBy("g.created_at DESC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list waiting games: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var g models.Game
		var p models.Player
		var player2ID sql.NullInt64
		if err := rows.Scan(
			&g.ID, &g.Player1ID, &player2ID, &g.WagerAmount, &g.TimeControl,
			&g.Status, &g.FEN, &g.CurrentTurn, &g.DrawOffered, &g.ContractAddress,
			&g.TransactionHash, &g.Network, &g.WagerStatus, &g.Version,
			&g.CreatedAt, &g.LastMoveAt,
			&p.ID, &p.Username, &p.Address, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		g.Player2ID = nullInt64Ptr(player2ID)
		g.Player1 = &p
		games = append(games, g)
	}
	log.Debug("found %d waiting games", len(games))
	return games, rows.Err()
}

func (r *gameRepository) ListRecentCompleted(ctx context.Context, limit int) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing recent completed games: limit=%d", limit)

	if limit <= 0 {
		limit = 5
	}

	query := sqlBuilder.Select(
		"g.id", "g.player1_id", "g.player2_id", "g.wager_amount", "g.time_control",
		"g.status", "g.fen", "g.current_turn", "g.draw_offered", "g.contract_address",
		"g.transaction_hash", "g.network", "g.wager_status", "g.version",
		"g.created_at", "g.last_move_at",
		"p1.id", "p1.username", "p1.address", "p1.created_at", "p1.updated_at",
		"p2.id", "p2.username", "p2.address", "p2.created_at", "p2.updated_at",
		"res.id", "res.game_id", "res.winner_id", "res.result", "res.ended_at", "res.created_at",
	).
		From("games g").
		Join("game_results res ON res.game_id = g.id").
		Join("players p1 ON p1.id = g.player1_id").
		LeftJoin("players p2 ON p2.id = g.player2_id").
		Where(squirrel.Eq{"g.status": string(models.GameStatusCompleted)}).
		OrderBy("res.ended_at DESC").
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list recent games: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var g models.Game
		var p1 models.Player
		var res models.Result
		var player2ID, winnerID, p2ID sql.NullInt64
		var p2Username, p2Address sql.NullString
		var p2CreatedAt, p2UpdatedAt sql.NullTime
		if err := rows.Scan(
			&g.ID, &g.Player1ID, &player2ID, &g.WagerAmount, &g.TimeControl,
			&g.Status, &g.FEN, &g.CurrentTurn, &g.DrawOffered, &g.ContractAddress,
			&g.TransactionHash, &g.Network, &g.WagerStatus, &g.Version,
			&g.CreatedAt, &g.LastMoveAt,
			&p1.ID, &p1.Username, &p1.Address, &p1.CreatedAt, &p1.UpdatedAt,
			&p2ID, &p2Username, &p2Address, &p2CreatedAt, &p2UpdatedAt,
			&res.ID, &res.GameID, &winnerID, &res.Result, &res.EndedAt, &res.CreatedAt,
		); err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		g.Player2ID = nullInt64Ptr(player2ID)
		g.Player1 = &p1
		if p2ID.Valid {
			g.Player2 = &models.Player{
				ID:        p2ID.Int64,
				Username:  p2Username.String,
				Address:   p2Address.String,
				CreatedAt: p2CreatedAt.Time,
				UpdatedAt: p2UpdatedAt.Time,
			}
		}
		res.WinnerID = nullInt64Ptr(winnerID)
		g.Result = &res
		games = append(games, g)
	}
	log.Debug("found %d recent completed games", len(games))
	return games, rows.Err()
}

func (r *gameRepository) Insert(ctx context.Context, g models.Game) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("inserting game: player1_id=%d, wager=%s", g.Player1ID, g.WagerAmount)

	res, err := r.q.ExecContext(ctx, `
INSERT INTO games (
    player1_id, wager_amount, time_control, status, fen, current_turn,
    contract_address, transaction_hash, network, wager_status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, g.Player1ID, g.WagerAmount, g.TimeControl, string(g.Status), g.FEN,
		string(g.CurrentTurn), g.ContractAddress, g.TransactionHash, g.Network, g.WagerStatus)
	if err != nil {
		log.Error("failed to insert game: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get game id: %v", err)
		return 0, err
	}
	log.Debug("game inserted: id=%d", id)
	return id, nil
}

func (r *gameRepository) Update(ctx context.Context, g *models.Game) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("updating game: id=%d, status=%s, version=%d", g.ID, g.Status, g.Version)

	res, err := r.q.ExecContext(ctx, `
UPDATE games
SET player2_id = ?, status = ?, fen = ?, current_turn = ?, draw_offered = ?,
    wager_status = ?, last_move_at = ?, version = version + 1
WHERE id = ? AND version = ?
`, int64PtrNull(g.Player2ID), string(g.Status), g.FEN, string(g.CurrentTurn),
		g.DrawOffered, g.WagerStatus, g.LastMoveAt, g.ID, g.Version)
	if err != nil {
		log.Error("failed to update game: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		log.Error("failed to read rows affected: %v", err)
		return err
	}
	if n == 0 {
		log.Warn("stale game update: id=%d, version=%d", g.ID, g.Version)
		return repository.ErrVersionConflict
	}
	g.Version++
	return nil
}
