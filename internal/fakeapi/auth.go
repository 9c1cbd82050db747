package fakeapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

// AuthHandle rejects requests without a valid bearer token and passes the user to next.
func (s *Server) AuthHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		u, err := s.verify(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

// IssueToken signs a token for the account registered under email, as a successful login would.
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return "", fmt.Errorf("%s: no such account", email)
	}
	return s.sign(u.id)
}

// sign issues a token for userID. Callers must hold s.mu.
func (s *Server) sign(userID int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"gen": s.generation,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) verify(raw string) (*user, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(sub)
	if err != nil {
		return nil, err
	}
	gen, _ := claims["gen"].(float64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if int(gen) != s.generation {
		return nil, fmt.Errorf("token revoked")
	}
	for _, u := range s.users {
		if u.id == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %d not found", id)
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(ctxKey{}).(*user)
	return u
}
