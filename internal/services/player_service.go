package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/akhil-rawat/chesschain/internal/errors"
	"github.com/akhil-rawat/chesschain/internal/logger"
	"github.com/akhil-rawat/chesschain/internal/models"
	"github.com/akhil-rawat/chesschain/internal/repository"
)

// PlayerService handles player registration and lookup by wallet address
type PlayerService interface {
	RegisterPlayer(ctx context.Context, address, username string) (*models.Player, error)
	GetPlayerByAddress(ctx context.Context, address string) (*models.Player, error)
}

type playerService struct {
	store repository.Store
}

// NewPlayerService creates a new PlayerService
func NewPlayerService(store repository.Store) PlayerService {
	return &playerService{store: store}
}

func (s *playerService) RegisterPlayer(ctx context.Context, address, username string) (*models.Player, error) {
	log := logger.FromContext(ctx)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = defaultUsername(address)
	}
	log.Debug("registering player: address=%s, username=%s", address, username)

	player, err := s.store.Players().Upsert(ctx, username, address)
	if err != nil {
		log.Error("failed to register player: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return player, nil
}

func (s *playerService) GetPlayerByAddress(ctx context.Context, address string) (*models.Player, error) {
	log := logger.FromContext(ctx)

	address = normalizeAddress(address)
	if address == "" {
		return nil, apperrors.NewValidationError("address", "cannot be empty")
	}

	player, err := s.store.Players().GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("player", address)
		}
		log.Error("failed to get player: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return player, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// defaultUsername derives a display name from the tail of the address.
func defaultUsername(address string) string {
	suffix := address
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "Player_" + suffix
}
