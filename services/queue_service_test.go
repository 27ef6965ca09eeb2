package services

import (
	"context"
	"testing"

	"github.com/Dosada05/matchmaking-system/matchmaking"
	"github.com/Dosada05/matchmaking-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type queueFixture struct {
	tickets  *fakeTicketRepo
	players  *fakePlayerRepo
	matches  *fakeMatchRepo
	notifier *fakeNotifier
	queue    QueueService
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	f := &queueFixture{
		tickets:  newFakeTicketRepo(),
		players:  newFakePlayerRepo(),
		matches:  newFakeMatchRepo(),
		notifier: &fakeNotifier{},
	}
	engine := NewMatchmakingService(f.tickets, f.players, f.matches, fakeTransactor{}, 5, 2, testLogger())
	f.queue = NewQueueService(f.tickets, engine, f.notifier)
	return f
}

func TestJoin_CreatesTicket(t *testing.T) {
	f := newQueueFixture(t)
	player := f.players.addPlayer(1200)

	ticket, err := f.queue.Join(context.Background(), player.ID, testMode)
	require.NoError(t, err)

	assert.Equal(t, player.ID, ticket.PlayerID)
	assert.Equal(t, testMode, ticket.GameMode)
	assert.Equal(t, models.TicketStatusInQueue, ticket.Status)
	assert.NotZero(t, ticket.ID)
}

func TestJoin_IsIdempotentWhileTicketActive(t *testing.T) {
	f := newQueueFixture(t)
	player := f.players.addPlayer(1200)

	first, err := f.queue.Join(context.Background(), player.ID, testMode)
	require.NoError(t, err)
	second, err := f.queue.Join(context.Background(), player.ID, testMode)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.tickets.countByStatus(testMode, models.TicketStatusInQueue))
}

func TestJoin_ConcurrentSamePlayerHoldsOneTicket(t *testing.T) {
	f := newQueueFixture(t)
	player := f.players.addPlayer(1200)

	// Игрок жмёт Join с нескольких вкладок одновременно: активный тикет
	// должен остаться ровно один, и все вызовы видят именно его.
	tickets := make([]*models.Ticket, 6)
	var g errgroup.Group
	for i := range tickets {
		i := i
		g.Go(func() error {
			ticket, err := f.queue.Join(context.Background(), player.ID, testMode)
			if err != nil {
				return err
			}
			tickets[i] = ticket
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, f.tickets.countByStatus(testMode, models.TicketStatusInQueue))
	for _, ticket := range tickets[1:] {
		assert.Equal(t, tickets[0].ID, ticket.ID)
	}
}

func TestJoin_RequiresGameMode(t *testing.T) {
	f := newQueueFixture(t)
	player := f.players.addPlayer(1200)

	_, err := f.queue.Join(context.Background(), player.ID, "  ")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestJoin_TenthPlayerTriggersMatch(t *testing.T) {
	f := newQueueFixture(t)

	mmrs := []int{2000, 1900, 1100, 1050, 1000, 1000, 950, 900, 800}
	for _, mmr := range mmrs {
		player := f.players.addPlayer(mmr)
		ticket, err := f.queue.Join(context.Background(), player.ID, testMode)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusInQueue, ticket.Status)
	}
	assert.Equal(t, 0, f.matches.matchCount())

	// Десятый игрок замыкает кворум: его же вызов собирает матч.
	last := f.players.addPlayer(700)
	ticket, err := f.queue.Join(context.Background(), last.ID, testMode)
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusMatched, ticket.Status)
	assert.Equal(t, 1, f.matches.matchCount())
	assert.Equal(t, 10, f.tickets.countByStatus(testMode, models.TicketStatusMatched))

	// Клиенты в комнате режима получили пуш о собранном матче.
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, testMode, f.notifier.events[0].room)
	event, ok := f.notifier.events[0].event.(matchmaking.QueueEvent)
	require.True(t, ok)
	assert.Equal(t, matchmaking.EventMatchFormed, event.Type)
}

func TestJoin_RetriesRunAfterMidRunCancel(t *testing.T) {
	f := newQueueFixture(t)

	// Десять игроков уже ждут.
	waiting := make([]*models.Player, 0, 10)
	for i := 0; i < 10; i++ {
		player := f.players.addPlayer(1000 + i*25)
		waiting = append(waiting, player)
		_, err := f.tickets.Create(context.Background(), player.ID, testMode)
		require.NoError(t, err)
	}

	// Первый из них отменяется ровно между чтением очереди и фиксацией.
	f.tickets.beforeMarkMatched = func() {
		f.tickets.beforeMarkMatched = nil
		_, err := f.tickets.CancelActive(context.Background(), waiting[0].ID, testMode)
		require.NoError(t, err)
	}

	// Одиннадцатый Join переживает конфликт: после отката повторный запуск
	// собирает матч из оставшихся десяти, клиент не видит ошибки.
	eleventh := f.players.addPlayer(1400)
	ticket, err := f.queue.Join(context.Background(), eleventh.ID, testMode)
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusMatched, ticket.Status)
	assert.Equal(t, 1, f.matches.matchCount())
	assert.Equal(t, 10, f.tickets.countByStatus(testMode, models.TicketStatusMatched))
	assert.Equal(t, 1, f.tickets.countByStatus(testMode, models.TicketStatusCancelled))
	assert.Equal(t, 0, f.tickets.countByStatus(testMode, models.TicketStatusInQueue))
}

func TestCancel_OnlyAffectsActiveTickets(t *testing.T) {
	f := newQueueFixture(t)
	player := f.players.addPlayer(1200)

	// Нечего отменять.
	cancelled, err := f.queue.Cancel(context.Background(), player.ID, testMode)
	require.NoError(t, err)
	assert.False(t, cancelled)

	_, err = f.queue.Join(context.Background(), player.ID, testMode)
	require.NoError(t, err)

	cancelled, err = f.queue.Cancel(context.Background(), player.ID, testMode)
	require.NoError(t, err)
	assert.True(t, cancelled)

	// Повторная отмена — no-op.
	cancelled, err = f.queue.Cancel(context.Background(), player.ID, testMode)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancel_DoesNotTouchMatchedTicket(t *testing.T) {
	f := newQueueFixture(t)

	var lastPlayerID int
	for _, mmr := range []int{2000, 1900, 1100, 1050, 1000, 1000, 950, 900, 800, 700} {
		player := f.players.addPlayer(mmr)
		lastPlayerID = player.ID
		_, err := f.queue.Join(context.Background(), player.ID, testMode)
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.matches.matchCount())

	cancelled, err := f.queue.Cancel(context.Background(), lastPlayerID, testMode)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Equal(t, 10, f.tickets.countByStatus(testMode, models.TicketStatusMatched))
}

func TestStatus_ReturnsLatestTicket(t *testing.T) {
	f := newQueueFixture(t)
	player := f.players.addPlayer(1200)

	_, err := f.queue.Status(context.Background(), player.ID, testMode)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	joined, err := f.queue.Join(context.Background(), player.ID, testMode)
	require.NoError(t, err)

	ticket, err := f.queue.Status(context.Background(), player.ID, testMode)
	require.NoError(t, err)
	assert.Equal(t, joined.ID, ticket.ID)
	assert.Equal(t, models.TicketStatusInQueue, ticket.Status)

	// После отмены статус остаётся доступен: возвращается последний тикет.
	_, err = f.queue.Cancel(context.Background(), player.ID, testMode)
	require.NoError(t, err)

	ticket, err = f.queue.Status(context.Background(), player.ID, testMode)
	require.NoError(t, err)
	assert.Equal(t, joined.ID, ticket.ID)
	assert.Equal(t, models.TicketStatusCancelled, ticket.Status)
}

// TestJoin_ConcurrentJoinsFormExactlyOneMatch is the linearizability
// property: with enough waiting players for exactly one match, concurrent
// joins must not double-consume tickets or create a second match.
func TestJoin_ConcurrentJoinsFormExactlyOneMatch(t *testing.T) {
	f := newQueueFixture(t)

	// Девять игроков уже ждут в очереди.
	for i := 0; i < 9; i++ {
		player := f.players.addPlayer(1000 + i*50)
		_, err := f.queue.Join(context.Background(), player.ID, testMode)
		require.NoError(t, err)
	}

	// Ещё пять джойнятся одновременно; кворум на десяти.
	var g errgroup.Group
	for i := 0; i < 5; i++ {
		player := f.players.addPlayer(1500 + i*10)
		g.Go(func() error {
			_, err := f.queue.Join(context.Background(), player.ID, testMode)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, f.matches.matchCount())
	assert.Equal(t, 10, f.tickets.countByStatus(testMode, models.TicketStatusMatched))
	assert.Equal(t, 4, f.tickets.countByStatus(testMode, models.TicketStatusInQueue))
	assert.Equal(t, 0, f.tickets.countByStatus(testMode, models.TicketStatusCancelled))
}
