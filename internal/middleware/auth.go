package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/volcanocoin/backend/internal/models"
)

// CallerKey is the request-context key carrying the authenticated
// caller's canonical account address.
const CallerKey = "callerAddress"

// AuthMiddleware authenticates bearer tokens whose "address" claim
// names the caller's account. The address is normalized to canonical
// lower-case hex before it reaches a handler; role checks themselves
// stay inside the ledger engine.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		addr, err := validateToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CallerKey, addr.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerAddress extracts the authenticated address from a request
// context.
func CallerAddress(ctx context.Context) (models.Address, bool) {
	s, ok := ctx.Value(CallerKey).(string)
	if !ok || s == "" {
		return models.Address{}, false
	}

	addr, err := models.ParseAddress(s)
	if err != nil {
		return models.Address{}, false
	}
	return addr, true
}

// IssueToken mints a bearer token for an account. Used by operator
// tooling and tests; token issuance for real wallets happens outside
// this service.
func IssueToken(address models.Address) (string, error) {
	expiryHours := viper.GetInt("jwt.expiry_hours")
	if expiryHours == 0 {
		expiryHours = 24
	}

	claims := jwt.MapClaims{
		"address": address.String(),
		"exp":     time.Now().Add(time.Duration(expiryHours) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func validateToken(tokenString string) (models.Address, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return models.Address{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Address{}, fmt.Errorf("invalid token claims")
	}

	raw, _ := claims["address"].(string)
	return models.ParseAddress(raw)
}
