package services

import "errors"

// Общие ошибки сервисного слоя, используемые в маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Аутентификация
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrPasswordTooShort   = errors.New("password is too short")

	// Сущности
	ErrPlayerNotFound = errors.New("player not found")
	ErrTicketNotFound = errors.New("queue ticket not found")
	ErrMatchNotFound  = errors.New("match not found")

	// ErrDataIntegrity: a waiting ticket points at a player the store
	// cannot resolve. The match-formation attempt is aborted with no state
	// changes; this is an internal failure, not a "queue not full yet".
	ErrDataIntegrity = errors.New("queue ticket references an unknown player")

	// ErrQueueConflict: the waiting set changed between being read and
	// being consumed (fewer tickets flipped to matched than expected).
	// The transaction is rolled back; the caller may retry the whole call.
	ErrQueueConflict = errors.New("queue changed during match formation")
)
