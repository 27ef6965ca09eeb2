package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/matchmaking-system/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrPlayerUsernameConflict = errors.New("player username conflict")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByUsername(ctx context.Context, username string) (*models.Player, error)
	// ResolveMMR returns the current rating for every requested player id.
	// Ids that do not resolve are simply absent from the map; the caller
	// decides whether a shortfall is fatal.
	ResolveMMR(ctx context.Context, playerIDs []int) (map[int]int, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (username, password_hash, region)
		VALUES ($1, $2, $3)
		RETURNING id, mmr, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.Username,
		player.PasswordHash,
		player.Region,
	).Scan(&player.ID, &player.MMR, &player.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "players_username_key" {
				return ErrPlayerUsernameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, username, password_hash, mmr, region, created_at
		FROM players
		WHERE id = $1`
	return r.scanPlayer(ctx, query, id)
}

func (r *postgresPlayerRepository) GetByUsername(ctx context.Context, username string) (*models.Player, error) {
	query := `
		SELECT id, username, password_hash, mmr, region, created_at
		FROM players
		WHERE username = $1`
	return r.scanPlayer(ctx, query, username)
}

func (r *postgresPlayerRepository) ResolveMMR(ctx context.Context, playerIDs []int) (map[int]int, error) {
	query := `
		SELECT id, mmr
		FROM players
		WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player ratings: %w", err)
	}
	defer rows.Close()

	mmrByPlayer := make(map[int]int, len(playerIDs))
	for rows.Next() {
		var id, mmr int
		if scanErr := rows.Scan(&id, &mmr); scanErr != nil {
			return nil, scanErr
		}
		mmrByPlayer[id] = mmr
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return mmrByPlayer, nil
}

func (r *postgresPlayerRepository) scanPlayer(ctx context.Context, query string, args ...interface{}) (*models.Player, error) {
	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&player.ID,
		&player.Username,
		&player.PasswordHash,
		&player.MMR,
		&player.Region,
		&player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}
