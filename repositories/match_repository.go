package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/matchmaking-system/matchmaking"
	"github.com/Dosada05/matchmaking-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPlayerInvalid = errors.New("match roster references an invalid player")
)

type MatchRepository interface {
	// Create inserts the match row and its full roster. Callers that need
	// atomicity with other writes pass the surrounding transaction as exec.
	Create(ctx context.Context, exec SQLExecutor, match *models.Match, participants []models.MatchParticipant) error
	// ListRecent returns recent matches newest first, optionally only those
	// a given player took part in.
	ListRecent(ctx context.Context, playerID *int, limit int) ([]models.Match, error)
	// GetLastForPlayer returns the player's most recent match with both
	// rosters resolved to (username, mmr), grouped per team.
	GetLastForPlayer(ctx context.Context, playerID int) (*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match, participants []models.MatchParticipant) error {
	if exec == nil {
		exec = r.db
	}

	query := `
		INSERT INTO matches (game_mode, avg_mmr, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.GameMode,
		match.AvgMMR,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	rosterQuery := `
		INSERT INTO match_players (match_id, player_id, team)
		VALUES ($1, $2, $3)`

	for _, p := range participants {
		if _, err := exec.ExecContext(ctx, rosterQuery, match.ID, p.PlayerID, p.Team); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return fmt.Errorf("%w: player %d", ErrMatchPlayerInvalid, p.PlayerID)
			}
			return fmt.Errorf("failed to insert roster row (player %d, team %d): %w", p.PlayerID, p.Team, err)
		}
	}

	return nil
}

func (r *postgresMatchRepository) ListRecent(ctx context.Context, playerID *int, limit int) ([]models.Match, error) {
	var queryBuilder strings.Builder
	args := make([]interface{}, 0, 2)

	if playerID != nil {
		queryBuilder.WriteString(`
		SELECT m.id, m.game_mode, m.avg_mmr, m.status, m.created_at
		FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		WHERE mp.player_id = $1`)
		args = append(args, *playerID)
	} else {
		queryBuilder.WriteString(`
		SELECT id, game_mode, avg_mmr, status, created_at
		FROM matches`)
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC LIMIT $")
	queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := rows.Scan(
			&match.ID,
			&match.GameMode,
			&match.AvgMMR,
			&match.Status,
			&match.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

func (r *postgresMatchRepository) GetLastForPlayer(ctx context.Context, playerID int) (*models.Match, error) {
	matchQuery := `
		SELECT m.id, m.game_mode, m.avg_mmr, m.status, m.created_at, p.region
		FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		JOIN players p        ON p.id = mp.player_id
		WHERE mp.player_id = $1
		ORDER BY m.created_at DESC
		LIMIT 1`

	match := &models.Match{}
	err := r.db.QueryRowContext(ctx, matchQuery, playerID).Scan(
		&match.ID,
		&match.GameMode,
		&match.AvgMMR,
		&match.Status,
		&match.CreatedAt,
		&match.Region,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	rosterQuery := `
		SELECT mp.team, p.username, p.mmr
		FROM match_players mp
		JOIN players p ON p.id = mp.player_id
		WHERE mp.match_id = $1
		ORDER BY mp.team ASC, p.mmr DESC`

	rows, err := r.db.QueryContext(ctx, rosterQuery, match.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teamsByNumber := make(map[int]*models.MatchTeam)
	maxTeam := 0
	for rows.Next() {
		var team int
		var player models.MatchPlayer
		if scanErr := rows.Scan(&team, &player.Username, &player.MMR); scanErr != nil {
			return nil, scanErr
		}
		if _, ok := teamsByNumber[team]; !ok {
			teamsByNumber[team] = &models.MatchTeam{Name: matchmaking.TeamName(team - 1)}
		}
		teamsByNumber[team].Players = append(teamsByNumber[team].Players, player)
		if team > maxTeam {
			maxTeam = team
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	match.Teams = make([]models.MatchTeam, 0, maxTeam)
	for team := 1; team <= maxTeam; team++ {
		if t, ok := teamsByNumber[team]; ok {
			match.Teams = append(match.Teams, *t)
		}
	}

	return match, nil
}
