package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/matchmaking-system/models"
	"github.com/lib/pq"
)

var ErrTicketNotFound = errors.New("queue ticket not found")

type TicketRepository interface {
	// Create inserts a new in_queue ticket for the player in the mode. The
	// store enforces at most one in_queue ticket per (player, mode); when a
	// concurrent insert wins the race, Create returns that existing ticket.
	Create(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error)
	GetByID(ctx context.Context, id int) (*models.Ticket, error)
	// FindActive returns the player's in_queue ticket for the mode, if any.
	FindActive(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error)
	// FindLatest returns the most recently created ticket regardless of status.
	FindLatest(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error)
	// FindWaiting returns up to limit in_queue tickets for the mode,
	// oldest first (FIFO).
	FindWaiting(ctx context.Context, gameMode string, limit int) ([]models.Ticket, error)
	// MarkMatched flips the given tickets to matched, but only those still
	// in_queue. Returns how many rows actually changed so the caller can
	// detect tickets consumed or cancelled underneath it.
	MarkMatched(ctx context.Context, exec SQLExecutor, ticketIDs []int) (int64, error)
	// CancelActive cancels the player's in_queue ticket(s) for the mode
	// and reports how many were affected.
	CancelActive(ctx context.Context, playerID int, gameMode string) (int64, error)
}

type postgresTicketRepository struct {
	db *sql.DB
}

func NewPostgresTicketRepository(db *sql.DB) TicketRepository {
	return &postgresTicketRepository{db: db}
}

func (r *postgresTicketRepository) Create(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	query := `
		INSERT INTO queue_tickets (player_id, game_mode, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	ticket := &models.Ticket{
		PlayerID: playerID,
		GameMode: gameMode,
		Status:   models.TicketStatusInQueue,
	}
	err := r.db.QueryRowContext(ctx, query, playerID, gameMode, models.TicketStatusInQueue).
		Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "queue_tickets_one_active_idx" {
			// Параллельный Join того же игрока успел первым; возвращаем
			// его тикет вместо второго активного.
			return r.FindActive(ctx, playerID, gameMode)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id int) (*models.Ticket, error) {
	query := `
		SELECT id, player_id, game_mode, status, created_at
		FROM queue_tickets
		WHERE id = $1`
	return r.scanTicket(ctx, query, id)
}

func (r *postgresTicketRepository) FindActive(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	query := `
		SELECT id, player_id, game_mode, status, created_at
		FROM queue_tickets
		WHERE player_id = $1
		  AND game_mode = $2
		  AND status = $3
		ORDER BY created_at DESC
		LIMIT 1`
	return r.scanTicket(ctx, query, playerID, gameMode, models.TicketStatusInQueue)
}

func (r *postgresTicketRepository) FindLatest(ctx context.Context, playerID int, gameMode string) (*models.Ticket, error) {
	query := `
		SELECT id, player_id, game_mode, status, created_at
		FROM queue_tickets
		WHERE player_id = $1
		  AND game_mode = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return r.scanTicket(ctx, query, playerID, gameMode)
}

func (r *postgresTicketRepository) FindWaiting(ctx context.Context, gameMode string, limit int) ([]models.Ticket, error) {
	// Secondary order by id keeps FIFO deterministic when created_at
	// timestamps collide.
	query := `
		SELECT id, player_id, game_mode, status, created_at
		FROM queue_tickets
		WHERE game_mode = $1
		  AND status = $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, gameMode, models.TicketStatusInQueue, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0, limit)
	for rows.Next() {
		var ticket models.Ticket
		if scanErr := rows.Scan(
			&ticket.ID,
			&ticket.PlayerID,
			&ticket.GameMode,
			&ticket.Status,
			&ticket.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tickets = append(tickets, ticket)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *postgresTicketRepository) MarkMatched(ctx context.Context, exec SQLExecutor, ticketIDs []int) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, nil
	}
	if exec == nil {
		exec = r.db
	}

	query := `
		UPDATE queue_tickets
		SET status = $1
		WHERE id = ANY($2)
		  AND status = $3`

	result, err := exec.ExecContext(ctx, query,
		models.TicketStatusMatched,
		pq.Array(ticketIDs),
		models.TicketStatusInQueue,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresTicketRepository) CancelActive(ctx context.Context, playerID int, gameMode string) (int64, error) {
	query := `
		UPDATE queue_tickets
		SET status = $1
		WHERE player_id = $2
		  AND game_mode = $3
		  AND status = $4`

	result, err := r.db.ExecContext(ctx, query,
		models.TicketStatusCancelled,
		playerID,
		gameMode,
		models.TicketStatusInQueue,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresTicketRepository) scanTicket(ctx context.Context, query string, args ...interface{}) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.PlayerID,
		&ticket.GameMode,
		&ticket.Status,
		&ticket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}
