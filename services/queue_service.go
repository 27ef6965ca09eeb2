package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/matchmaking-system/matchmaking"
	"github.com/Dosada05/matchmaking-system/models"
	"github.com/Dosada05/matchmaking-system/repositories"
)

// QueueNotifier pushes queue events to clients waiting on a game mode.
// Satisfied by *matchmaking.Hub.
type QueueNotifier interface {
	BroadcastToRoom(room string, event interface{})
}

type QueueService interface {
	// Join puts the player into the mode's queue (reusing an already
	// active ticket), synchronously triggers a matchmaking run for the
	// mode and returns the ticket's state after that run. The returned
	// ticket may therefore already be matched.
	Join(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error)
	// Cancel cancels the player's active ticket, if any, and reports
	// whether one was affected. Matched tickets are never touched.
	Cancel(ctx context.Context, playerID int, gameMode string) (bool, error)
	// Status returns the player's most recent ticket for the mode
	// regardless of its status.
	Status(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error)
}

type queueService struct {
	ticketRepo  repositories.TicketRepository
	matchmaking MatchmakingService
	notifier    QueueNotifier
}

func NewQueueService(
	ticketRepo repositories.TicketRepository,
	matchmakingService MatchmakingService,
	notifier QueueNotifier,
) QueueService {
	return &queueService{
		ticketRepo:  ticketRepo,
		matchmaking: matchmakingService,
		notifier:    notifier,
	}
}

func (s *queueService) Join(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	gameMode = strings.TrimSpace(gameMode)
	if gameMode == "" {
		return nil, fmt.Errorf("%w: game_mode is required", ErrValidationFailed)
	}

	ticket, err := s.ticketRepo.FindActive(ctx, playerID, gameMode)
	if err != nil {
		if !errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, fmt.Errorf("failed to look up active ticket: %w", err)
		}
		// Активного тикета нет — создаём новый.
		ticket, err = s.ticketRepo.Create(ctx, playerID, gameMode)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue ticket: %w", err)
		}
	}

	outcome, err := s.matchmaking.RunForGameMode(ctx, gameMode)
	if errors.Is(err, ErrQueueConflict) {
		// Отмена успела между чтением очереди и фиксацией; после отката
		// очередь консистентна, повторяем запуск один раз.
		outcome, err = s.matchmaking.RunForGameMode(ctx, gameMode)
	}
	if err != nil {
		return nil, err
	}
	if outcome.Formed && s.notifier != nil {
		s.notifier.BroadcastToRoom(gameMode, matchmaking.QueueEvent{
			Type:     matchmaking.EventMatchFormed,
			GameMode: gameMode,
			Payload:  outcome.Match,
		})
	}

	// Перечитываем тикет: он мог стать matched в рамках этого же вызова.
	ticket, err = s.ticketRepo.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read ticket after matchmaking run: %w", err)
	}

	return ticket, nil
}

func (s *queueService) Cancel(ctx context.Context, playerID int, gameMode string) (bool, error) {
	gameMode = strings.TrimSpace(gameMode)
	if gameMode == "" {
		return false, fmt.Errorf("%w: game_mode is required", ErrValidationFailed)
	}

	affected, err := s.ticketRepo.CancelActive(ctx, playerID, gameMode)
	if err != nil {
		return false, fmt.Errorf("failed to cancel active ticket: %w", err)
	}
	return affected > 0, nil
}

func (s *queueService) Status(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	gameMode = strings.TrimSpace(gameMode)
	if gameMode == "" {
		return nil, fmt.Errorf("%w: game_mode is required", ErrValidationFailed)
	}

	ticket, err := s.ticketRepo.FindLatest(ctx, playerID, gameMode)
	if err != nil {
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to look up latest ticket: %w", err)
	}
	return ticket, nil
}
