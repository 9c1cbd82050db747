// Package fakeapi provides an in-memory implementation of the QR Forge HTTP contract for tests.
package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/speps/go-hashids/v2"
	"golang.org/x/crypto/bcrypt"
)

// Route names used by Hits.
const (
	RouteSignup   = "POST /api/auth/signup"
	RouteLogin    = "POST /api/auth/login"
	RouteLogout   = "POST /api/auth/logout"
	RouteMe       = "GET /api/user/me"
	RouteDeleteMe = "DELETE /api/user/me"
	RouteHistory  = "GET /api/qr/history"
	RouteCreate   = "POST /api/qr"
	RoutePreview  = "POST /api/qr/preview"
	RouteDownload = "GET /api/qr/{id}/download"
	RouteDelete   = "DELETE /api/qr/{id}"
	RouteExport   = "GET /api/export/csv"
)

const (
	saltKey   = "qr forge items"
	minLength = 5
	tokenTTL  = time.Hour
)

type user struct {
	id        int
	fullName  string
	email     string
	hash      []byte
	createdAt time.Time
}

type item struct {
	id        int
	userID    int
	title     string
	url       string
	fg        string
	bg        string
	size      int
	padding   int
	radius    int
	overlay   *string
	createdAt time.Time
}

// Server keeps users, items and request counters in memory.
type Server struct {
	router *chi.Mux
	secret []byte
	hashID *hashids.HashID

	mu          sync.Mutex
	users       map[string]*user
	items       map[int]*item
	nextUser    int
	nextItem    int
	generation  int
	lastCreated time.Time
	hits        map[string]int
}

// New initializes a Server with every route of the contract registered.
func New() *Server {
	hd := hashids.NewData()
	hd.Salt = saltKey
	hd.MinLength = minLength
	hashID, err := hashids.NewWithData(hd)
	if err != nil {
		// static salt and length cannot fail
		panic(err)
	}
	s := &Server{
		secret: []byte("fakeapi signing key"),
		hashID: hashID,
		users:  make(map[string]*user),
		items:  make(map[int]*item),
		hits:   make(map[string]int),
	}
	r := chi.NewRouter()
	r.Use(CompressHandle)
	r.Use(DecompressHandle)
	r.Post("/api/auth/signup", s.count(RouteSignup, s.handleSignup))
	r.Post("/api/auth/login", s.count(RouteLogin, s.handleLogin))
	r.Post("/api/auth/logout", s.private(RouteLogout, s.handleLogout))
	r.Get("/api/user/me", s.private(RouteMe, s.handleMe))
	r.Delete("/api/user/me", s.private(RouteDeleteMe, s.handleDeleteMe))
	r.Get("/api/qr/history", s.private(RouteHistory, s.handleHistory))
	r.Post("/api/qr", s.private(RouteCreate, s.handleCreate))
	r.Post("/api/qr/preview", s.private(RoutePreview, s.handlePreview))
	r.Get("/api/qr/{id}/download", s.private(RouteDownload, s.handleDownload))
	r.Delete("/api/qr/{id}", s.private(RouteDelete, s.handleDelete))
	r.Get("/api/export/csv", s.private(RouteExport, s.handleExport))
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hits returns how many requests reached route, including rejected ones.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// ExpireAllSessions makes every token issued so far fail authorization.
func (s *Server) ExpireAllSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// ItemCount returns the number of stored items across all users.
func (s *Server) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// private counts the request and then requires a valid bearer token.
func (s *Server) private(route string, h http.HandlerFunc) http.HandlerFunc {
	return s.count(route, s.AuthHandle(h).ServeHTTP)
}

func (s *Server) count(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		s.mu.Unlock()
		h(w, r)
	}
}

// now returns a strictly increasing creation time so history order is stable.
// Callers must hold s.mu.
func (s *Server) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastCreated) {
		t = s.lastCreated.Add(time.Microsecond)
	}
	s.lastCreated = t
	return t
}

// Register creates an account directly, bypassing the signup route.
func (s *Server) Register(fullName, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	email = strings.ToLower(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return fmt.Errorf("%s: already registered", email)
	}
	s.nextUser++
	s.users[email] = &user{id: s.nextUser, fullName: fullName, email: email, hash: hash, createdAt: s.now()}
	return nil
}
