package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/matchmaking-system/models"
	"github.com/Dosada05/matchmaking-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	defaultRegion     = "eu"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Player, error)
	Login(ctx context.Context, input LoginInput) (*models.Player, error)
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authService struct {
	playerRepo repositories.PlayerRepository
}

func NewAuthService(playerRepo repositories.PlayerRepository) AuthService {
	return &authService{
		playerRepo: playerRepo,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Player, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	region := strings.TrimSpace(input.Region)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidationFailed)
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if region == "" {
		region = defaultRegion
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Region:       region,
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerUsernameConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	player.PasswordHash = ""
	return player, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			// Не раскрываем, существует ли такой игрок.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find player by username: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	player.PasswordHash = ""
	return player, nil
}
