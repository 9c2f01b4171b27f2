package api

import (
	"github.com/akhil-rawat/chesschain/internal/services"
)

// Server holds the services the HTTP handlers dispatch to.
type Server struct {
	PlayerService services.PlayerService
	GameService   services.GameService
}

// NewServer creates a new Server
func NewServer(playerService services.PlayerService, gameService services.GameService) *Server {
	return &Server{
		PlayerService: playerService,
		GameService:   gameService,
	}
}
