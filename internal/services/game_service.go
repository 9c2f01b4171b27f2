package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/akhil-rawat/chesschain/internal/errors"
	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository"
	"github.com/akhil-rawat/chesschain/internal/rules"
)

// CreateGameParams carries everything needed to open a game. Wager fields are
// recorded as-is; the server never interprets them.
type CreateGameParams struct {
	CreatorAddress  string
	WagerAmount     string
	TimeControl     string
	ContractAddress string
	TransactionHash string
	Network         string
}

// GameService is the authoritative game state machine. Every mutating
// operation runs inside one store transaction: the game row, the move ledger
// and the result record change together or not at all.
type GameService interface {
	CreateGame(ctx context.Context, params CreateGameParams) (*models.Game, error)
	JoinGame(ctx context.Context, gameID int64, address string) (*models.Game, error)
	MakeMove(ctx context.Context, gameID int64, address, move string) (*models.Game, error)
	Resign(ctx context.Context, gameID int64, address string) (*models.Game, error)
	OfferDraw(ctx context.Context, gameID int64, address string) (*models.Game, error)
	AcceptDraw(ctx context.Context, gameID int64, address string) (*models.Game, error)
	GetGame(ctx context.Context, gameID int64) (*models.Game, error)
	ListActiveGames(ctx context.Context) ([]models.Game, error)
	ListRecentGames(ctx context.Context) ([]models.GameSummary, error)
}

type gameService struct {
	store       repository.Store
	recentLimit int
}

// NewGameService creates a new GameService
func NewGameService(store repository.Store, recentLimit int) GameService {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &gameService{store: store, recentLimit: recentLimit}
}

func (s *gameService) CreateGame(ctx context.Context, params CreateGameParams) (*models.Game, error) {
	log := logger.FromContext(ctx)

	address := normalizeAddress(params.CreatorAddress)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	wager := strings.TrimSpace(params.WagerAmount)
	if wager == "" {
		return nil, apperrors.NewValidationError("wager_amount", "cannot be empty")
	}
	timeControl := strings.TrimSpace(params.TimeControl)
	if timeControl == "" {
		return nil, apperrors.NewValidationError("time_control", "cannot be empty")
	}

	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		creator, err := resolvePlayer(ctx, st, address)
		if err != nil {
			return err
		}

		game := models.Game{
			Player1ID:       creator.ID,
			WagerAmount:     wager,
			TimeControl:     timeControl,
			Status:          models.GameStatusWaiting,
			FEN:             rules.StartingFEN,
			CurrentTurn:     models.TurnWhite,
			ContractAddress: params.ContractAddress,
			TransactionHash: params.TransactionHash,
			Network:         params.Network,
			WagerStatus:     models.WagerStatusPending,
		}
		id, err := st.Games().Insert(ctx, game)
		if err != nil {
			return apperrors.NewInternalError(err)
		}

		out, err = st.Games().GetDetailed(ctx, id)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("game created: id=%d, player1_id=%d, wager=%s", out.ID, out.Player1ID, out.WagerAmount)
	return out, nil
}

func (s *gameService) JoinGame(ctx context.Context, gameID int64, address string) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("joining game: id=%d, address=%s", gameID, address)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		joiner, err := resolvePlayer(ctx, st, address)
		if err != nil {
			return err
		}

		game, err := s.loadGame(ctx, st, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusWaiting {
			return apperrors.NewInvalidStateError("game is not open for joining")
		}
		if game.Player1ID == joiner.ID {
			return apperrors.NewConflictError("cannot join your own game")
		}

		game.Player2ID = &joiner.ID
		game.Status = models.GameStatusInProgress
		game.LastMoveAt = time.Now().UTC()
		if err := s.saveGame(ctx, st, game); err != nil {
			return err
		}

		out, err = st.Games().GetDetailed(ctx, gameID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("game joined: id=%d, player2_id=%d", out.ID, *out.Player2ID)
	return out, nil
}

func (s *gameService) MakeMove(ctx context.Context, gameID int64, address, move string) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("making move: game_id=%d, address=%s, move=%s", gameID, address, move)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		player, err := st.Players().GetByAddress(ctx, address)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFoundError("player", address)
			}
			return apperrors.NewInternalError(err)
		}

		game, err := s.loadGame(ctx, st, gameID)
		if err != nil {
			return err
		}
		switch game.Status {
		case models.GameStatusWaiting:
			return apperrors.NewInvalidStateError("game has not started yet")
		case models.GameStatusCompleted:
			return apperrors.NewInvalidStateError("game is already completed")
		}
		if !isParticipant(game, player.ID) {
			return apperrors.NewNotFoundError("game", gameID)
		}

		moverTurn := game.CurrentTurn
		moverID := game.Player1ID
		if moverTurn == models.TurnBlack {
			moverID = *game.Player2ID
		}
		if player.ID != moverID {
			return apperrors.NewTurnViolationError()
		}

		res, err := rules.ApplyMove(game.FEN, move)
		if err != nil {
			switch {
			case errors.Is(err, rules.ErrMalformedMove):
				return apperrors.NewValidationError("move", "must be coordinate notation like e2e4 or a7a8q")
			case errors.Is(err, rules.ErrIllegalMove):
				return apperrors.NewIllegalMoveError(move)
			default:
				return apperrors.NewInternalError(err)
			}
		}

		count, err := st.Moves().CountForGame(ctx, gameID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if _, err := st.Moves().Append(ctx, models.Move{
			GameID:     gameID,
			PlayerID:   player.ID,
			Move:       res.UCI,
			SAN:        res.SAN,
			FEN:        res.FEN,
			MoveNumber: count + 1,
		}); err != nil {
			return apperrors.NewInternalError(err)
		}

		game.FEN = res.FEN
		game.CurrentTurn = moverTurn.Opposite()
		game.DrawOffered = false
		game.LastMoveAt = time.Now().UTC()

		if res.Termination != rules.TerminationNone {
			game.Status = models.GameStatusCompleted

			var winnerID *int64
			tag := models.ResultDraw
			if res.Termination == rules.TerminationCheckmate {
				winnerID = &player.ID
				if moverTurn == models.TurnWhite {
					tag = models.ResultWhiteWins
				} else {
					tag = models.ResultBlackWins
				}
			}
			if err := s.recordResult(ctx, st, gameID, winnerID, tag); err != nil {
				return err
			}
			log.Info("game over: id=%d, termination=%s, result=%s", gameID, res.Termination, tag)
		}

		if err := s.saveGame(ctx, st, game); err != nil {
			return err
		}

		out, err = s.loadFull(ctx, st, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gameService) Resign(ctx context.Context, gameID int64, address string) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("resigning game: id=%d, address=%s", gameID, address)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		player, err := st.Players().GetByAddress(ctx, address)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFoundError("player", address)
			}
			return apperrors.NewInternalError(err)
		}

		game, err := s.loadGame(ctx, st, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusInProgress {
			return apperrors.NewInvalidStateError("game is not in progress")
		}
		if !isParticipant(game, player.ID) {
			return apperrors.NewNotFoundError("game", gameID)
		}

		// The other player wins. Player1 plays white.
		winnerID := game.Player1ID
		tag := models.ResultWhiteWins
		if player.ID == game.Player1ID {
			winnerID = *game.Player2ID
			tag = models.ResultBlackWins
		}

		game.Status = models.GameStatusCompleted
		game.DrawOffered = false
		game.LastMoveAt = time.Now().UTC()

		if err := s.recordResult(ctx, st, gameID, &winnerID, tag); err != nil {
			return err
		}
		if err := s.saveGame(ctx, st, game); err != nil {
			return err
		}

		log.Info("game resigned: id=%d, loser_id=%d, result=%s", gameID, player.ID, tag)
		out, err = s.loadFull(ctx, st, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gameService) OfferDraw(ctx context.Context, gameID int64, address string) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("offering draw: game_id=%d, address=%s", gameID, address)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		player, err := st.Players().GetByAddress(ctx, address)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFoundError("player", address)
			}
			return apperrors.NewInternalError(err)
		}

		game, err := s.loadGame(ctx, st, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusInProgress {
			return apperrors.NewInvalidStateError("game is not in progress")
		}
		if !isParticipant(game, player.ID) {
			return apperrors.NewNotFoundError("game", gameID)
		}

		game.DrawOffered = true
		game.LastMoveAt = time.Now().UTC()
		if err := s.saveGame(ctx, st, game); err != nil {
			return err
		}

		out, err = st.Games().GetDetailed(ctx, gameID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gameService) AcceptDraw(ctx context.Context, gameID int64, address string) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("accepting draw: game_id=%d, address=%s", gameID, address)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		player, err := st.Players().GetByAddress(ctx, address)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFoundError("player", address)
			}
			return apperrors.NewInternalError(err)
		}

		game, err := s.loadGame(ctx, st, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusInProgress {
			return apperrors.NewInvalidStateError("game is not in progress")
		}
		if !isParticipant(game, player.ID) {
			return apperrors.NewNotFoundError("game", gameID)
		}
		if !game.DrawOffered {
			return apperrors.NewNoOfferError()
		}

		game.Status = models.GameStatusCompleted
		game.DrawOffered = false
		game.LastMoveAt = time.Now().UTC()

		if err := s.recordResult(ctx, st, gameID, nil, models.ResultDraw); err != nil {
			return err
		}
		if err := s.saveGame(ctx, st, game); err != nil {
			return err
		}

		log.Info("draw agreed: game_id=%d", gameID)
		out, err = s.loadFull(ctx, st, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gameService) GetGame(ctx context.Context, gameID int64) (*models.Game, error) {
	var out *models.Game
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		var err error
		out, err = s.loadFull(ctx, st, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gameService) ListActiveGames(ctx context.Context) ([]models.Game, error) {
	log := logger.FromContext(ctx)

	games, err := s.store.Games().ListWaiting(ctx)
	if err != nil {
		log.Error("failed to list waiting games: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return games, nil
}

func (s *gameService) ListRecentGames(ctx context.Context) ([]models.GameSummary, error) {
	log := logger.FromContext(ctx)

	games, err := s.store.Games().ListRecentCompleted(ctx, s.recentLimit)
	if err != nil {
		log.Error("failed to list recent games: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	summaries := make([]models.GameSummary, 0, len(games))
	for _, g := range games {
		opponent := "Unknown"
		if g.Player2 != nil {
			opponent = g.Player2.Address
		}
		summaries = append(summaries, models.GameSummary{
			ID:        strconv.FormatInt(g.ID, 10),
			Opponent:  opponent,
			Result:    summaryResult(&g),
			Timestamp: g.LastMoveAt,
			Amount:    g.WagerAmount,
		})
	}
	return summaries, nil
}

// summaryResult renders the outcome from player1's perspective.
func summaryResult(g *models.Game) string {
	res := g.Result
	if res.Result == models.ResultDraw || res.WinnerID == nil {
		return "draw"
	}
	if *res.WinnerID == g.Player1ID {
		return "victory"
	}
	return "defeat"
}

// resolvePlayer returns the player for address, creating the record on first
// contact the same way registration does.
func resolvePlayer(ctx context.Context, st repository.Store, address string) (*models.Player, error) {
	player, err := st.Players().GetByAddress(ctx, address)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}
	player, err = st.Players().Upsert(ctx, defaultUsername(address), address)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return player, nil
}

func (s *gameService) loadGame(ctx context.Context, st repository.Store, gameID int64) (*models.Game, error) {
	game, err := st.Games().Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("game", gameID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return game, nil
}

// loadFull returns the game with players, the ordered move ledger and the
// result (when one exists).
func (s *gameService) loadFull(ctx context.Context, st repository.Store, gameID int64) (*models.Game, error) {
	game, err := st.Games().GetDetailed(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("game", gameID)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if game.Moves, err = st.Moves().ListForGame(ctx, gameID); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	result, err := st.Results().GetForGame(ctx, gameID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}
	game.Result = result
	return game, nil
}

func (s *gameService) saveGame(ctx context.Context, st repository.Store, game *models.Game) error {
	if err := st.Games().Update(ctx, game); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflictError("game was modified concurrently, retry")
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *gameService) recordResult(ctx context.Context, st repository.Store, gameID int64, winnerID *int64, tag models.ResultTag) error {
	_, err := st.Results().Insert(ctx, models.Result{
		GameID:   gameID,
		WinnerID: winnerID,
		Result:   tag,
		EndedAt:  time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			return apperrors.NewConflictError("result already recorded for this game")
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func isParticipant(g *models.Game, playerID int64) bool {
	if g.Player1ID == playerID {
		return true
	}
	return g.Player2ID != nil && *g.Player2ID == playerID
}
