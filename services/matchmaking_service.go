package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Dosada05/matchmaking-system/matchmaking"
	"github.com/Dosada05/matchmaking-system/models"
	"github.com/Dosada05/matchmaking-system/repositories"
	"github.com/elliotchance/pie/v2"
)

// MatchOutcome is the result of one matchmaking run. Formed == false is
// the common case: not enough players waiting yet, nothing changed.
type MatchOutcome struct {
	Formed bool
	Match  *models.Match
}

type MatchmakingService interface {
	// RunForGameMode attempts to form exactly one match from the mode's
	// queue. Runs for the same mode are serialized; runs for different
	// modes proceed independently.
	RunForGameMode(ctx context.Context, gameMode string) (MatchOutcome, error)
}

type matchmakingService struct {
	ticketRepo repositories.TicketRepository
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	tx         repositories.Transactor
	logger     *slog.Logger

	playersPerTeam int
	teamsPerMatch  int

	mu        sync.Mutex
	modeLocks map[string]*sync.Mutex
}

func NewMatchmakingService(
	ticketRepo repositories.TicketRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	playersPerTeam int,
	teamsPerMatch int,
	logger *slog.Logger,
) MatchmakingService {
	return &matchmakingService{
		ticketRepo:     ticketRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		tx:             tx,
		logger:         logger,
		playersPerTeam: playersPerTeam,
		teamsPerMatch:  teamsPerMatch,
		modeLocks:      make(map[string]*sync.Mutex),
	}
}

// lockForMode returns the mutex serializing runs for one game mode.
// Holding it across fetch-resolve-commit guarantees each waiting ticket is
// consumed by at most one formed match.
func (s *matchmakingService) lockForMode(gameMode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.modeLocks[gameMode]
	if !ok {
		lock = &sync.Mutex{}
		s.modeLocks[gameMode] = lock
	}
	return lock
}

func (s *matchmakingService) RunForGameMode(ctx context.Context, gameMode string) (MatchOutcome, error) {
	lock := s.lockForMode(gameMode)
	lock.Lock()
	defer lock.Unlock()

	required := s.teamsPerMatch * s.playersPerTeam

	tickets, err := s.ticketRepo.FindWaiting(ctx, gameMode, required)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to fetch waiting tickets for mode %q: %w", gameMode, err)
	}
	if len(tickets) < required {
		return MatchOutcome{}, nil
	}

	playerIDs := pie.Map(tickets, func(t models.Ticket) int { return t.PlayerID })

	mmrByPlayer, err := s.playerRepo.ResolveMMR(ctx, playerIDs)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("failed to resolve ratings for mode %q: %w", gameMode, err)
	}
	if len(mmrByPlayer) != len(playerIDs) {
		// Тикет ссылается на несуществующего игрока; матч не собираем.
		return MatchOutcome{}, fmt.Errorf("%w: resolved %d of %d players in mode %q",
			ErrDataIntegrity, len(mmrByPlayer), len(playerIDs), gameMode)
	}

	totalMMR := 0
	candidates := make([]matchmaking.Candidate, 0, len(tickets))
	for _, ticket := range tickets {
		mmr := mmrByPlayer[ticket.PlayerID]
		totalMMR += mmr
		candidates = append(candidates, matchmaking.Candidate{Ticket: ticket, MMR: mmr})
	}
	avgMMR := int(math.Round(float64(totalMMR) / float64(len(candidates))))

	teams, err := matchmaking.Partition(candidates, s.teamsPerMatch, s.playersPerTeam)
	if err != nil {
		// Пул собран ровно под required, сюда попадать не должны.
		return MatchOutcome{}, fmt.Errorf("team partition failed for mode %q: %w", gameMode, err)
	}

	match := &models.Match{
		GameMode: gameMode,
		AvgMMR:   avgMMR,
		Status:   models.MatchGameStatusActive,
	}

	participants := make([]models.MatchParticipant, 0, required)
	ticketIDs := make([]int, 0, required)
	matchTeams := make([]models.MatchTeam, 0, s.teamsPerMatch)
	for i, team := range teams {
		matchTeam := models.MatchTeam{Name: matchmaking.TeamName(i)}
		for _, candidate := range team {
			participants = append(participants, models.MatchParticipant{
				PlayerID: candidate.Ticket.PlayerID,
				Team:     i + 1,
			})
			ticketIDs = append(ticketIDs, candidate.Ticket.ID)
			matchTeam.Players = append(matchTeam.Players, models.MatchPlayer{
				PlayerID: candidate.Ticket.PlayerID,
				MMR:      candidate.MMR,
			})
		}
		matchTeams = append(matchTeams, matchTeam)
	}

	// Матч и перевод тикетов в matched фиксируются одной транзакцией:
	// либо видно и то и другое, либо ничего.
	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		if createErr := s.matchRepo.Create(ctx, exec, match, participants); createErr != nil {
			return createErr
		}
		affected, markErr := s.ticketRepo.MarkMatched(ctx, exec, ticketIDs)
		if markErr != nil {
			return markErr
		}
		if affected != int64(len(ticketIDs)) {
			return fmt.Errorf("%w: marked %d of %d tickets in mode %q",
				ErrQueueConflict, affected, len(ticketIDs), gameMode)
		}
		return nil
	})
	if err != nil {
		return MatchOutcome{}, err
	}

	match.Teams = matchTeams

	s.logger.Info("match formed",
		slog.String("game_mode", gameMode),
		slog.Int("match_id", match.ID),
		slog.Int("avg_mmr", match.AvgMMR),
		slog.Int("players", len(participants)),
	)

	return MatchOutcome{Formed: true, Match: match}, nil
}
