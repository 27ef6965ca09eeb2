package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const playerContextKey contextKey = "player"

const jwtClaimPlayerID = "user_id"

// Authenticate verifies the Bearer token and stores its claims in the
// request context. Handlers read the player identity back via
// PlayerIDFromContext instead of trusting ids in request payloads.
func Authenticate(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PlayerIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(playerContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("player claims not found in context or invalid type")
	}

	idClaim, ok := claims[jwtClaimPlayerID]
	if !ok {
		return 0, fmt.Errorf("missing %q claim in token", jwtClaimPlayerID)
	}

	// encoding/json раскодирует числовые claims в float64.
	idFloat, ok := idClaim.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid type for %q claim: expected number, got %T", jwtClaimPlayerID, idClaim)
	}
	if idFloat != float64(int(idFloat)) {
		return 0, fmt.Errorf("%q claim is not an integer: %f", jwtClaimPlayerID, idFloat)
	}

	playerID := int(idFloat)
	if playerID <= 0 {
		return 0, fmt.Errorf("invalid player id value in %q claim: %d", jwtClaimPlayerID, playerID)
	}

	return playerID, nil
}
