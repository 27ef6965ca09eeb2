package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Dosada05/matchmaking-system/models"
	"github.com/Dosada05/matchmaking-system/repositories"
)

// In-memory repository fakes. All of them are safe for concurrent use so
// the queue tests can hammer Join from multiple goroutines.

type fakeTicketRepo struct {
	mu     sync.Mutex
	nextID int
	rows   []*models.Ticket

	// called inside MarkMatched before any row is flipped; lets tests
	// inject a conflicting write between fetch and commit
	beforeMarkMatched func()
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{}
}

var fakeClockStart = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func (f *fakeTicketRepo) Create(_ context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Уникальный частичный индекс: один in_queue тикет на (игрок, режим).
	// Как и настоящий репозиторий, отдаём победивший тикет.
	for _, t := range f.rows {
		if t.PlayerID == playerID && t.GameMode == gameMode && t.Status == models.TicketStatusInQueue {
			copied := *t
			return &copied, nil
		}
	}
	f.nextID++
	ticket := &models.Ticket{
		ID:        f.nextID,
		PlayerID:  playerID,
		GameMode:  gameMode,
		Status:    models.TicketStatusInQueue,
		CreatedAt: fakeClockStart.Add(time.Duration(f.nextID) * time.Millisecond),
	}
	f.rows = append(f.rows, ticket)
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id int) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.rows {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTicketNotFound
}

func (f *fakeTicketRepo) FindActive(_ context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		t := f.rows[i]
		if t.PlayerID == playerID && t.GameMode == gameMode && t.Status == models.TicketStatusInQueue {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTicketNotFound
}

func (f *fakeTicketRepo) FindLatest(_ context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		t := f.rows[i]
		if t.PlayerID == playerID && t.GameMode == gameMode {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTicketNotFound
}

func (f *fakeTicketRepo) FindWaiting(_ context.Context, gameMode string, limit int) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	waiting := make([]models.Ticket, 0, limit)
	for _, t := range f.rows { // rows are already in creation order
		if t.GameMode == gameMode && t.Status == models.TicketStatusInQueue {
			waiting = append(waiting, *t)
			if len(waiting) == limit {
				break
			}
		}
	}
	return waiting, nil
}

func (f *fakeTicketRepo) MarkMatched(_ context.Context, _ repositories.SQLExecutor, ticketIDs []int) (int64, error) {
	if f.beforeMarkMatched != nil {
		f.beforeMarkMatched()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[int]bool, len(ticketIDs))
	for _, id := range ticketIDs {
		ids[id] = true
	}
	var affected int64
	for _, t := range f.rows {
		if ids[t.ID] && t.Status == models.TicketStatusInQueue {
			t.Status = models.TicketStatusMatched
			affected++
		}
	}
	return affected, nil
}

func (f *fakeTicketRepo) CancelActive(_ context.Context, playerID int, gameMode string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var affected int64
	for _, t := range f.rows {
		if t.PlayerID == playerID && t.GameMode == gameMode && t.Status == models.TicketStatusInQueue {
			t.Status = models.TicketStatusCancelled
			affected++
		}
	}
	return affected, nil
}

func (f *fakeTicketRepo) countByStatus(gameMode string, status models.TicketStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, t := range f.rows {
		if t.GameMode == gameMode && t.Status == status {
			count++
		}
	}
	return count
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player)}
}

func (f *fakePlayerRepo) addPlayer(mmr int) *models.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	player := &models.Player{
		ID:       f.nextID,
		Username: "player_" + strconv.Itoa(f.nextID),
		MMR:      mmr,
		Region:   "eu",
	}
	f.players[player.ID] = player
	return player
}

func (f *fakePlayerRepo) removePlayer(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.players, id)
}

func (f *fakePlayerRepo) Create(_ context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.players {
		if existing.Username == player.Username {
			return repositories.ErrPlayerUsernameConflict
		}
	}
	f.nextID++
	player.ID = f.nextID
	player.MMR = models.DefaultMMR
	player.CreatedAt = fakeClockStart
	copied := *player
	f.players[player.ID] = &copied
	return nil
}

func (f *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	player, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (f *fakePlayerRepo) GetByUsername(_ context.Context, username string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, player := range f.players {
		if player.Username == username {
			copied := *player
			return &copied, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) ResolveMMR(_ context.Context, playerIDs []int) (map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mmrByPlayer := make(map[int]int, len(playerIDs))
	for _, id := range playerIDs {
		if player, ok := f.players[id]; ok {
			mmrByPlayer[id] = player.MMR
		}
	}
	return mmrByPlayer, nil
}

type createdMatch struct {
	match        models.Match
	participants []models.MatchParticipant
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	created []createdMatch

	lastMatch  *models.Match // returned by GetLastForPlayer when set
	lastLimit  int
	lastFilter *int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{}
}

func (f *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match, participants []models.MatchParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	match.ID = f.nextID
	match.CreatedAt = fakeClockStart
	rows := make([]models.MatchParticipant, len(participants))
	copy(rows, participants)
	for i := range rows {
		rows[i].MatchID = match.ID
	}
	f.created = append(f.created, createdMatch{match: *match, participants: rows})
	return nil
}

func (f *fakeMatchRepo) ListRecent(_ context.Context, playerID *int, limit int) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastFilter = playerID
	matches := make([]models.Match, 0, len(f.created))
	for i := len(f.created) - 1; i >= 0 && len(matches) < limit; i-- {
		matches = append(matches, f.created[i].match)
	}
	return matches, nil
}

func (f *fakeMatchRepo) GetLastForPlayer(_ context.Context, _ int) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastMatch == nil {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *f.lastMatch
	return &copied, nil
}

func (f *fakeMatchRepo) matchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeTransactor runs the function without a real transaction; commit and
// rollback behavior belongs to repositories.NewTransactor and Postgres.
type fakeTransactor struct{}

func (fakeTransactor) InTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []struct {
		room  string
		event interface{}
	}
}

func (f *fakeNotifier) BroadcastToRoom(room string, event interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, struct {
		room  string
		event interface{}
	}{room, event})
}
