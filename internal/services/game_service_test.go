package services_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	apperrors "github.com/akhil-rawat/chesschain/internal/errors"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository/sqlite"
	"github.com/akhil-rawat/chesschain/internal/rules"
	"github.com/akhil-rawat/chesschain/internal/services"
	"github.com/akhil-rawat/chesschain/internal/testutil"
)

const (
	whiteAddr = "0xWhitePlayerAddress000000000000000000aaa111"
	blackAddr = "0xBlackPlayerAddress000000000000000000bbb222"
	otherAddr = "0xOutsiderAddress00000000000000000000ccc333"
)

type GameServiceSuite struct {
	suite.Suite
	db      *sql.DB
	players services.PlayerService
	games   services.GameService
}

func (s *GameServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	store := sqlite.NewStore(s.db)
	s.players = services.NewPlayerService(store)
	s.games = services.NewGameService(store, 5)
}

func (s *GameServiceSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *GameServiceSuite) register(address string) *models.Player {
	p, err := s.players.RegisterPlayer(context.Background(), address, "")
	s.Require().NoError(err)
	return p
}

// startedGame registers both players, creates a game and joins it.
func (s *GameServiceSuite) startedGame() *models.Game {
	ctx := context.Background()
	s.register(whiteAddr)
	s.register(blackAddr)

	created, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
		TimeControl:    "10",
	})
	s.Require().NoError(err)

	joined, err := s.games.JoinGame(ctx, created.ID, blackAddr)
	s.Require().NoError(err)
	return joined
}

func (s *GameServiceSuite) assertCode(err error, code string) {
	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok, "expected AppError, got %T: %v", err, err)
	s.Assert().Equal(code, appErr.Code)
}

func (s *GameServiceSuite) TestRegisterPlayer_DerivesUsername() {
	p := s.register(whiteAddr)
	s.Assert().Equal("Player_aaa111", p.Username)
	s.Assert().Equal(strings.ToLower(whiteAddr), p.Address)

	again := s.register(whiteAddr)
	s.Assert().Equal(p.ID, again.ID)
}

func (s *GameServiceSuite) TestCreateGame_StartsWaitingWithInitialPosition() {
	ctx := context.Background()
	s.register(whiteAddr)

	g, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "1.0",
		TimeControl:    "5",
	})
	s.Require().NoError(err)

	s.Assert().Equal(models.GameStatusWaiting, g.Status)
	s.Assert().Equal(rules.StartingFEN, g.FEN)
	s.Assert().Equal(models.TurnWhite, g.CurrentTurn)
	s.Assert().Nil(g.Player2ID)
	s.Assert().False(g.DrawOffered)
	s.Assert().Equal("1.0", g.WagerAmount)
	s.Require().NotNil(g.Player1)
	s.Assert().Equal("Player_aaa111", g.Player1.Username)
}

func (s *GameServiceSuite) TestCreateGame_RegistersCreatorOnFirstContact() {
	g, err := s.games.CreateGame(context.Background(), services.CreateGameParams{
		CreatorAddress: otherAddr,
		WagerAmount:    "0.1",
		TimeControl:    "10",
	})
	s.Require().NoError(err)
	s.Require().NotNil(g.Player1)
	s.Assert().Equal("Player_ccc333", g.Player1.Username)
	s.Assert().Equal(strings.ToLower(otherAddr), g.Player1.Address)
}

func (s *GameServiceSuite) TestCreateGame_MissingWagerRejected() {
	s.register(whiteAddr)

	_, err := s.games.CreateGame(context.Background(), services.CreateGameParams{
		CreatorAddress: whiteAddr,
		TimeControl:    "10",
	})
	s.assertCode(err, apperrors.ErrCodeValidation)

	_, err = s.games.CreateGame(context.Background(), services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
	})
	s.assertCode(err, apperrors.ErrCodeValidation)

	waiting, err := s.games.ListActiveGames(context.Background())
	s.Require().NoError(err)
	s.Assert().Empty(waiting)
}

func (s *GameServiceSuite) TestJoinGame_Starts() {
	g := s.startedGame()

	s.Assert().Equal(models.GameStatusInProgress, g.Status)
	s.Require().NotNil(g.Player2ID)
	s.Assert().Equal(models.TurnWhite, g.CurrentTurn)
}

func (s *GameServiceSuite) TestJoinGame_RegistersJoinerOnFirstContact() {
	ctx := context.Background()
	s.register(whiteAddr)
	created, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
		TimeControl:    "10",
	})
	s.Require().NoError(err)

	// The joiner never registered; joining creates the player record.
	joined, err := s.games.JoinGame(ctx, created.ID, otherAddr)
	s.Require().NoError(err)
	s.Assert().Equal(models.GameStatusInProgress, joined.Status)
	s.Require().NotNil(joined.Player2)
	s.Assert().Equal("Player_ccc333", joined.Player2.Username)
	s.Assert().Equal(strings.ToLower(otherAddr), joined.Player2.Address)
}

func (s *GameServiceSuite) TestJoinGame_CreatorCannotJoinOwnGame() {
	ctx := context.Background()
	s.register(whiteAddr)
	g, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
		TimeControl:    "10",
	})
	s.Require().NoError(err)

	_, err = s.games.JoinGame(ctx, g.ID, whiteAddr)
	s.assertCode(err, apperrors.ErrCodeConflict)
}

func (s *GameServiceSuite) TestJoinGame_AlreadyStarted() {
	g := s.startedGame()
	s.register(otherAddr)

	_, err := s.games.JoinGame(context.Background(), g.ID, otherAddr)
	s.assertCode(err, apperrors.ErrCodeInvalidState)
}

func (s *GameServiceSuite) TestMakeMove_AppliesAndFlipsTurn() {
	ctx := context.Background()
	g := s.startedGame()

	after, err := s.games.MakeMove(ctx, g.ID, whiteAddr, "e2e4")
	s.Require().NoError(err)

	s.Assert().True(strings.HasPrefix(after.FEN, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b"))
	s.Assert().Equal(models.TurnBlack, after.CurrentTurn)
	s.Require().Len(after.Moves, 1)
	s.Assert().Equal("e2e4", after.Moves[0].Move)
	s.Assert().Equal("e4", after.Moves[0].SAN)
	s.Assert().Equal(1, after.Moves[0].MoveNumber)
	s.Assert().Equal(models.GameStatusInProgress, after.Status)
}

func (s *GameServiceSuite) TestMakeMove_OutOfTurn() {
	g := s.startedGame()

	_, err := s.games.MakeMove(context.Background(), g.ID, blackAddr, "e7e5")
	s.assertCode(err, apperrors.ErrCodeTurnViolation)
}

func (s *GameServiceSuite) TestMakeMove_IllegalMove() {
	g := s.startedGame()

	_, err := s.games.MakeMove(context.Background(), g.ID, whiteAddr, "e2e5")
	s.assertCode(err, apperrors.ErrCodeIllegalMove)

	// Ledger must stay untouched.
	full, err := s.games.GetGame(context.Background(), g.ID)
	s.Require().NoError(err)
	s.Assert().Empty(full.Moves)
	s.Assert().Equal(rules.StartingFEN, full.FEN)
}

func (s *GameServiceSuite) TestMakeMove_MalformedMove() {
	g := s.startedGame()

	_, err := s.games.MakeMove(context.Background(), g.ID, whiteAddr, "pawn to e4")
	s.assertCode(err, apperrors.ErrCodeValidation)
}

func (s *GameServiceSuite) TestMakeMove_BeforeJoin() {
	ctx := context.Background()
	s.register(whiteAddr)
	g, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
		TimeControl:    "10",
	})
	s.Require().NoError(err)

	_, err = s.games.MakeMove(ctx, g.ID, whiteAddr, "e2e4")
	s.assertCode(err, apperrors.ErrCodeInvalidState)
}

func (s *GameServiceSuite) TestMakeMove_NonParticipant() {
	g := s.startedGame()
	s.register(otherAddr)

	_, err := s.games.MakeMove(context.Background(), g.ID, otherAddr, "e2e4")
	s.assertCode(err, apperrors.ErrCodeNotFound)
}

func (s *GameServiceSuite) TestMakeMove_FoolsMateEndsGame() {
	ctx := context.Background()
	g := s.startedGame()

	moves := []struct {
		addr string
		move string
	}{
		{whiteAddr, "f2f3"},
		{blackAddr, "e7e5"},
		{whiteAddr, "g2g4"},
		{blackAddr, "d8h4"},
	}
	var final *models.Game
	for _, m := range moves {
		var err error
		final, err = s.games.MakeMove(ctx, g.ID, m.addr, m.move)
		s.Require().NoError(err)
	}

	s.Assert().Equal(models.GameStatusCompleted, final.Status)
	s.Require().NotNil(final.Result)
	s.Assert().Equal(models.ResultBlackWins, final.Result.Result)
	s.Require().NotNil(final.Result.WinnerID)
	s.Require().NotNil(final.Player2ID)
	s.Assert().Equal(*final.Player2ID, *final.Result.WinnerID)
	s.Require().Len(final.Moves, 4)
	s.Assert().Equal("d8h4", final.Moves[3].Move)
	s.Assert().Equal("Qh4#", final.Moves[3].SAN)

	// No further moves once completed.
	_, err := s.games.MakeMove(ctx, g.ID, whiteAddr, "a2a3")
	s.assertCode(err, apperrors.ErrCodeInvalidState)
}

func (s *GameServiceSuite) TestMakeMove_LedgerReplaysToCurrentPosition() {
	ctx := context.Background()
	g := s.startedGame()

	seq := []struct {
		addr string
		move string
	}{
		{whiteAddr, "e2e4"},
		{blackAddr, "c7c5"},
		{whiteAddr, "g1f3"},
		{blackAddr, "d7d6"},
	}
	var final *models.Game
	for _, m := range seq {
		var err error
		final, err = s.games.MakeMove(ctx, g.ID, m.addr, m.move)
		s.Require().NoError(err)
	}

	s.Require().Len(final.Moves, 4)
	for i, m := range final.Moves {
		s.Assert().Equal(i+1, m.MoveNumber)
	}
	// The game position is exactly the position after the last ledger entry.
	s.Assert().Equal(final.Moves[3].FEN, final.FEN)

	// The persisted entries themselves replay move by move.
	fen := rules.StartingFEN
	for _, m := range final.Moves {
		res, err := rules.ApplyMove(fen, m.Move)
		s.Require().NoError(err)
		s.Assert().Equal(m.FEN, res.FEN)
		fen = res.FEN
	}
	s.Assert().Equal(final.FEN, fen)
}

func (s *GameServiceSuite) TestResign_OtherPlayerWins() {
	ctx := context.Background()
	g := s.startedGame()

	final, err := s.games.Resign(ctx, g.ID, whiteAddr)
	s.Require().NoError(err)

	s.Assert().Equal(models.GameStatusCompleted, final.Status)
	s.Require().NotNil(final.Result)
	s.Assert().Equal(models.ResultBlackWins, final.Result.Result)
	s.Require().NotNil(final.Result.WinnerID)
	s.Assert().Equal(*final.Player2ID, *final.Result.WinnerID)
}

func (s *GameServiceSuite) TestResign_CompletedGameRejected() {
	ctx := context.Background()
	g := s.startedGame()

	_, err := s.games.Resign(ctx, g.ID, whiteAddr)
	s.Require().NoError(err)

	_, err = s.games.Resign(ctx, g.ID, blackAddr)
	s.assertCode(err, apperrors.ErrCodeInvalidState)
}

func (s *GameServiceSuite) TestResign_NonParticipant() {
	g := s.startedGame()
	s.register(otherAddr)

	_, err := s.games.Resign(context.Background(), g.ID, otherAddr)
	s.assertCode(err, apperrors.ErrCodeNotFound)
}

func (s *GameServiceSuite) TestDraw_OfferAndAccept() {
	ctx := context.Background()
	g := s.startedGame()

	offered, err := s.games.OfferDraw(ctx, g.ID, whiteAddr)
	s.Require().NoError(err)
	s.Assert().True(offered.DrawOffered)
	s.Assert().True(offered.LastMoveAt.After(g.LastMoveAt))

	final, err := s.games.AcceptDraw(ctx, g.ID, blackAddr)
	s.Require().NoError(err)
	s.Assert().Equal(models.GameStatusCompleted, final.Status)
	s.Assert().False(final.DrawOffered)
	s.Require().NotNil(final.Result)
	s.Assert().Equal(models.ResultDraw, final.Result.Result)
	s.Assert().Nil(final.Result.WinnerID)
}

func (s *GameServiceSuite) TestDraw_AcceptWithoutOffer() {
	g := s.startedGame()

	_, err := s.games.AcceptDraw(context.Background(), g.ID, blackAddr)
	s.assertCode(err, apperrors.ErrCodeNoOffer)
}

func (s *GameServiceSuite) TestDraw_MoveClearsPendingOffer() {
	ctx := context.Background()
	g := s.startedGame()

	_, err := s.games.OfferDraw(ctx, g.ID, blackAddr)
	s.Require().NoError(err)

	after, err := s.games.MakeMove(ctx, g.ID, whiteAddr, "e2e4")
	s.Require().NoError(err)
	s.Assert().False(after.DrawOffered)

	_, err = s.games.AcceptDraw(ctx, g.ID, blackAddr)
	s.assertCode(err, apperrors.ErrCodeNoOffer)
}

func (s *GameServiceSuite) TestDraw_NonParticipant() {
	g := s.startedGame()
	s.register(otherAddr)

	_, err := s.games.OfferDraw(context.Background(), g.ID, otherAddr)
	s.assertCode(err, apperrors.ErrCodeNotFound)
}

func (s *GameServiceSuite) TestListActiveGames() {
	ctx := context.Background()
	s.register(whiteAddr)
	s.register(blackAddr)

	g1, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
		TimeControl:    "10",
	})
	s.Require().NoError(err)
	g2, err := s.games.CreateGame(ctx, services.CreateGameParams{
		CreatorAddress: whiteAddr,
		WagerAmount:    "0.5",
		TimeControl:    "10",
	})
	s.Require().NoError(err)
	_, err = s.games.JoinGame(ctx, g2.ID, blackAddr)
	s.Require().NoError(err)

	waiting, err := s.games.ListActiveGames(ctx)
	s.Require().NoError(err)
	s.Require().Len(waiting, 1)
	s.Assert().Equal(g1.ID, waiting[0].ID)
}

func (s *GameServiceSuite) TestListRecentGames_Player1Perspective() {
	ctx := context.Background()
	g := s.startedGame()

	final, err := s.games.Resign(ctx, g.ID, whiteAddr)
	s.Require().NoError(err)

	recent, err := s.games.ListRecentGames(ctx)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Assert().Equal("defeat", recent[0].Result)
	s.Assert().Equal(strings.ToLower(blackAddr), recent[0].Opponent)
	s.Assert().Equal("0.5", recent[0].Amount)
	s.Assert().True(recent[0].Timestamp.Equal(final.LastMoveAt))
}

func (s *GameServiceSuite) TestGetGame_NotFound() {
	_, err := s.games.GetGame(context.Background(), 99999)
	s.assertCode(err, apperrors.ErrCodeNotFound)
}

// Two concurrent moves for the same side: exactly one may land.
func (s *GameServiceSuite) TestMakeMove_ConcurrentMovesSerialized() {
	ctx := context.Background()
	g := s.startedGame()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	moves := []string{"e2e4", "d2d4"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.games.MakeMove(ctx, g.ID, whiteAddr, moves[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		appErr, ok := err.(*apperrors.AppError)
		s.Require().True(ok, "unexpected error type: %v", err)
		s.Assert().Contains([]string{
			apperrors.ErrCodeTurnViolation,
			apperrors.ErrCodeIllegalMove,
			apperrors.ErrCodeConflict,
		}, appErr.Code)
	}
	s.Assert().Equal(1, succeeded)

	full, err := s.games.GetGame(ctx, g.ID)
	s.Require().NoError(err)
	s.Require().Len(full.Moves, 1)
	s.Assert().Equal(models.TurnBlack, full.CurrentTurn)
}

func TestGameServiceSuite(t *testing.T) {
	suite.Run(t, new(GameServiceSuite))
}
