package api

import (
	"net/http"

	"github.com/akhil-rawat/chesschain/internal/errors"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/services"
)

type createGameRequest struct {
	Address         string `json:"address"`
	WagerAmount     string `json:"wager_amount"`
	TimeControl     string `json:"time_control"`
	ContractAddress string `json:"contract_address"`
	TransactionHash string `json:"transaction_hash"`
	Network         string `json:"network"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.CreateGame(r.Context(), services.CreateGameParams{
		CreatorAddress:  req.Address,
		WagerAmount:     req.WagerAmount,
		TimeControl:     req.TimeControl,
		ContractAddress: req.ContractAddress,
		TransactionHash: req.TransactionHash,
		Network:         req.Network,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, game)
}

func (s *Server) handleActiveGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.GameService.ListActiveGames(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if games == nil {
		games = []models.Game{}
	}
	respondJSON(w, r, http.StatusOK, games)
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.GameService.ListRecentGames(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if games == nil {
		games = []models.GameSummary{}
	}
	respondJSON(w, r, http.StatusOK, games)
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.GetGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, game)
}

type joinGameRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req joinGameRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.JoinGame(r.Context(), id, req.Address)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, game)
}

type makeMoveRequest struct {
	Address string `json:"address"`
	Move    string `json:"move"`
}

func (s *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req makeMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.MakeMove(r.Context(), id, req.Address, req.Move)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, game)
}

type resignRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req resignRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.Resign(r.Context(), id, req.Address)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, game)
}

type drawRequest struct {
	Address string `json:"address"`
	Action  string `json:"action"`
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	id, err := gameIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req drawRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	var game *models.Game
	switch req.Action {
	case "offer":
		game, err = s.GameService.OfferDraw(r.Context(), id, req.Address)
	case "accept":
		game, err = s.GameService.AcceptDraw(r.Context(), id, req.Address)
	default:
		err = errors.NewBadRequestError("action must be \"offer\" or \"accept\"")
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, game)
}
