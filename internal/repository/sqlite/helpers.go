package sqlite

import (
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/akhil-rawat/chesschain/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Helper functions shared across repository implementations

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (*models.Game, error) {
	var g models.Game
	var player2ID sql.NullInt64
	err := s.Scan(
		&g.ID, &g.Player1ID, &player2ID, &g.WagerAmount, &g.TimeControl,
		&g.Status, &g.FEN, &g.CurrentTurn, &g.DrawOffered, &g.ContractAddress,
		&g.TransactionHash, &g.Network, &g.WagerStatus, &g.Version,
		&g.CreatedAt, &g.LastMoveAt,
	)
	if err != nil {
		return nil, err
	}
	g.Player2ID = nullInt64Ptr(player2ID)
	return &g, nil
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func int64PtrNull(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
