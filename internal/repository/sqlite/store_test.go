package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository"
	"github.com/akhil-rawat/chesschain/internal/repository/sqlite"
	"github.com/akhil-rawat/chesschain/internal/rules"
	"github.com/akhil-rawat/chesschain/internal/testutil"
)

type StoreSuite struct {
	suite.Suite
	db    *sql.DB
	store repository.Store
}

func (s *StoreSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.store = sqlite.NewStore(s.db)
}

func (s *StoreSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *StoreSuite) newPlayer(address string) *models.Player {
	p, err := s.store.Players().Upsert(context.Background(), "Player_"+address, address)
	s.Require().NoError(err)
	return p
}

func (s *StoreSuite) newGame(p1 *models.Player) int64 {
	id, err := s.store.Games().Insert(context.Background(), models.Game{
		Player1ID:   p1.ID,
		WagerAmount: "0.1",
		TimeControl: "10",
		Status:      models.GameStatusWaiting,
		FEN:         rules.StartingFEN,
		CurrentTurn: models.TurnWhite,
		WagerStatus: models.WagerStatusPending,
	})
	s.Require().NoError(err)
	return id
}

func (s *StoreSuite) TestPlayerUpsert_Idempotent() {
	ctx := context.Background()

	first, err := s.store.Players().Upsert(ctx, "Player_abc123", "0xabc123")
	s.Require().NoError(err)
	s.Assert().Greater(first.ID, int64(0))

	second, err := s.store.Players().Upsert(ctx, "SomethingElse", "0xabc123")
	s.Require().NoError(err)
	s.Assert().Equal(first.ID, second.ID)
	s.Assert().Equal("Player_abc123", second.Username)
}

func (s *StoreSuite) TestPlayerGetByAddress_NotFound() {
	_, err := s.store.Players().GetByAddress(context.Background(), "0xmissing")
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestGameInsertAndGet() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	id := s.newGame(p1)

	g, err := s.store.Games().Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(p1.ID, g.Player1ID)
	s.Assert().Nil(g.Player2ID)
	s.Assert().Equal(models.GameStatusWaiting, g.Status)
	s.Assert().Equal(rules.StartingFEN, g.FEN)
	s.Assert().Equal(models.TurnWhite, g.CurrentTurn)
	s.Assert().Equal(int64(0), g.Version)
}

func (s *StoreSuite) TestGameGet_NotFound() {
	_, err := s.store.Games().Get(context.Background(), 99999)
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestGameUpdate_BumpsVersion() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	p2 := s.newPlayer("0xbbb")
	id := s.newGame(p1)

	g, err := s.store.Games().Get(ctx, id)
	s.Require().NoError(err)

	g.Player2ID = &p2.ID
	g.Status = models.GameStatusInProgress
	g.LastMoveAt = time.Now().UTC()
	s.Require().NoError(s.store.Games().Update(ctx, g))
	s.Assert().Equal(int64(1), g.Version)

	stored, err := s.store.Games().Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(models.GameStatusInProgress, stored.Status)
	s.Require().NotNil(stored.Player2ID)
	s.Assert().Equal(p2.ID, *stored.Player2ID)
	s.Assert().Equal(int64(1), stored.Version)
}

func (s *StoreSuite) TestGameUpdate_StaleVersionConflicts() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	id := s.newGame(p1)

	fresh, err := s.store.Games().Get(ctx, id)
	s.Require().NoError(err)
	stale, err := s.store.Games().Get(ctx, id)
	s.Require().NoError(err)

	fresh.DrawOffered = true
	s.Require().NoError(s.store.Games().Update(ctx, fresh))

	stale.DrawOffered = true
	err = s.store.Games().Update(ctx, stale)
	s.Assert().ErrorIs(err, repository.ErrVersionConflict)
}

func (s *StoreSuite) TestMoveLedger_AppendAndList() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	id := s.newGame(p1)

	ledger := []struct {
		uci string
		san string
	}{
		{"e2e4", "e4"},
		{"e7e5", "e5"},
		{"g1f3", "Nf3"},
	}
	for i, mv := range ledger {
		_, err := s.store.Moves().Append(ctx, models.Move{
			GameID:     id,
			PlayerID:   p1.ID,
			Move:       mv.uci,
			SAN:        mv.san,
			FEN:        rules.StartingFEN,
			MoveNumber: i + 1,
		})
		s.Require().NoError(err)
	}

	moves, err := s.store.Moves().ListForGame(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(moves, 3)
	for i, m := range moves {
		s.Assert().Equal(i+1, m.MoveNumber)
		s.Assert().Equal(ledger[i].uci, m.Move)
		s.Assert().Equal(ledger[i].san, m.SAN)
	}

	count, err := s.store.Moves().CountForGame(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(3, count)
}

func (s *StoreSuite) TestMoveLedger_DuplicateNumberRejected() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	id := s.newGame(p1)

	_, err := s.store.Moves().Append(ctx, models.Move{GameID: id, PlayerID: p1.ID, Move: "e2e4", SAN: "e4", FEN: rules.StartingFEN, MoveNumber: 1})
	s.Require().NoError(err)

	_, err = s.store.Moves().Append(ctx, models.Move{GameID: id, PlayerID: p1.ID, Move: "d2d4", SAN: "d4", FEN: rules.StartingFEN, MoveNumber: 1})
	s.Assert().Error(err)
}

func (s *StoreSuite) TestResult_DuplicateRejected() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	id := s.newGame(p1)

	_, err := s.store.Results().Insert(ctx, models.Result{
		GameID:  id,
		Result:  models.ResultDraw,
		EndedAt: time.Now().UTC(),
	})
	s.Require().NoError(err)

	_, err = s.store.Results().Insert(ctx, models.Result{
		GameID:   id,
		WinnerID: &p1.ID,
		Result:   models.ResultWhiteWins,
		EndedAt:  time.Now().UTC(),
	})
	s.Assert().ErrorIs(err, repository.ErrDuplicateResult)

	stored, err := s.store.Results().GetForGame(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(models.ResultDraw, stored.Result)
	s.Assert().Nil(stored.WinnerID)
}

func (s *StoreSuite) TestListWaiting() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	s.newGame(p1)
	s.newGame(p1)

	games, err := s.store.Games().ListWaiting(ctx)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	for _, g := range games {
		s.Assert().Equal(models.GameStatusWaiting, g.Status)
		s.Require().NotNil(g.Player1)
		s.Assert().Equal(p1.Username, g.Player1.Username)
	}
}

func (s *StoreSuite) TestListRecentCompleted() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")
	p2 := s.newPlayer("0xbbb")

	for i := 0; i < 3; i++ {
		id := s.newGame(p1)
		g, err := s.store.Games().Get(ctx, id)
		s.Require().NoError(err)
		g.Player2ID = &p2.ID
		g.Status = models.GameStatusCompleted
		s.Require().NoError(s.store.Games().Update(ctx, g))
		_, err = s.store.Results().Insert(ctx, models.Result{
			GameID:   id,
			WinnerID: &p1.ID,
			Result:   models.ResultWhiteWins,
			EndedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		s.Require().NoError(err)
	}

	games, err := s.store.Games().ListRecentCompleted(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	for _, g := range games {
		s.Require().NotNil(g.Result)
		s.Assert().Equal(models.ResultWhiteWins, g.Result.Result)
		s.Require().NotNil(g.Player2)
		s.Assert().Equal(p2.Username, g.Player2.Username)
	}
}

func (s *StoreSuite) TestAtomic_RollsBackOnError() {
	ctx := context.Background()
	p1 := s.newPlayer("0xaaa")

	boom := errors.New("boom")
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		_, err := st.Games().Insert(ctx, models.Game{
			Player1ID:   p1.ID,
			WagerAmount: "0.1",
			TimeControl: "10",
			Status:      models.GameStatusWaiting,
			FEN:         rules.StartingFEN,
			CurrentTurn: models.TurnWhite,
			WagerStatus: models.WagerStatusPending,
		})
		s.Require().NoError(err)
		return boom
	})
	s.Assert().ErrorIs(err, boom)

	games, err := s.store.Games().ListWaiting(ctx)
	s.Require().NoError(err)
	s.Assert().Empty(games)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}
