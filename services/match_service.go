package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/matchmaking-system/models"
	"github.com/Dosada05/matchmaking-system/repositories"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

type MatchService interface {
	// History returns recent matches newest first, optionally filtered to
	// matches the given player took part in. Limit is clamped to
	// [1, 100]; zero or negative means the default of 50.
	History(ctx context.Context, playerID *int, limit int) ([]models.Match, error)
	// LastForPlayer returns the player's most recent match with both team
	// rosters resolved to (username, mmr) — the lobby view.
	LastForPlayer(ctx context.Context, playerID int) (*models.Match, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
}

func NewMatchService(matchRepo repositories.MatchRepository) MatchService {
	return &matchService{
		matchRepo: matchRepo,
	}
}

func (s *matchService) History(ctx context.Context, playerID *int, limit int) ([]models.Match, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	matches, err := s.matchRepo.ListRecent(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if matches == nil {
		return []models.Match{}, nil
	}
	return matches, nil
}

func (s *matchService) LastForPlayer(ctx context.Context, playerID int) (*models.Match, error) {
	match, err := s.matchRepo.GetLastForPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load last match for player %d: %w", playerID, err)
	}
	return match, nil
}
