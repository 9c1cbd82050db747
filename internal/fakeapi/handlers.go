package fakeapi

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi"
	"golang.org/x/crypto/bcrypt"

	"github.com/danilovkiri/dk_go_qr_forge/internal/api/rest/modeldto"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

// DefaultTitle is stored for items created with a blank title.
const DefaultTitle = "Untitled QR"

const (
	detailItemNotFound = "QR item not found"
	detailBadFormat    = "format must be svg or png"
)

var (
	hexColor         = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	hexOrTransparent = regexp.MustCompile(`^(#[0-9a-fA-F]{6}|transparent)$`)
)

type userRead struct {
	ID        int               `json:"id"`
	Email     string            `json:"email"`
	FullName  string            `json:"full_name"`
	CreatedAt modelqr.Timestamp `json:"created_at"`
	UpdatedAt modelqr.Timestamp `json:"updated_at"`
}

type validationEntry struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req modeldto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string][]validationEntry{
			"detail": {{Loc: []string{"body", "email"}, Msg: "value is not a valid email address"}},
		})
		return
	}
	if len(req.Password) < 8 {
		writeDetail(w, http.StatusBadRequest, "Password must be at least 8 characters long")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	email := strings.ToLower(req.Email)

	s.mu.Lock()
	if _, ok := s.users[email]; ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusConflict, "Email already registered")
		return
	}
	s.nextUser++
	u := &user{id: s.nextUser, fullName: req.FullName, email: email, hash: hash, createdAt: s.now()}
	s.users[email] = u
	s.mu.Unlock()

	log.Println("HandleSignup: registered", email)
	writeJSON(w, http.StatusCreated, readUser(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req modeldto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(req.Email)]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := s.sign(u.id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, modeldto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, readUser(currentUser(r)))
}

func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	for id, it := range s.items {
		if it.userID == u.id {
			delete(s.items, id)
		}
	}
	delete(s.users, u.email)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	owned := s.ownedItems(u.id)
	out := make([]modelqr.Item, 0, len(owned))
	for _, it := range owned {
		out = append(out, s.toItem(it))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQR(w, r)
	if !ok {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}
	u := currentUser(r)
	s.mu.Lock()
	s.nextItem++
	it := &item{
		id:        s.nextItem,
		userID:    u.id,
		title:     title,
		url:       req.URL,
		fg:        req.ForegroundColor,
		bg:        req.BackgroundColor,
		size:      req.Size,
		padding:   req.Padding,
		radius:    req.BorderRadius,
		overlay:   req.OverlayText,
		createdAt: s.now(),
	}
	s.items[it.id] = it
	out := s.toItem(it)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQR(w, r)
	if !ok {
		return
	}
	png, err := renderPNG(req)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, modeldto.PreviewResponse{
		SVGData: renderSVG(req),
		PNGData: base64.StdEncoding.EncodeToString(png),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	it, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(modelqr.FormatSVG)
	}
	req := it.request()
	switch modelqr.Format(format) {
	case modelqr.FormatSVG:
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(renderSVG(req)))
	case modelqr.FormatPNG:
		png, err := renderPNG(req)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	default:
		writeDetail(w, http.StatusUnprocessableEntity, detailBadFormat)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	it, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.items, it.id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	owned := s.ownedItems(u.id)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=qr_items.csv")
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"title", "url", "created_at", "foreground_color", "background_color",
		"size", "padding", "border_radius", "overlay_text", "svg_file", "png_file",
	})
	for _, it := range owned {
		overlay := ""
		if it.overlay != nil {
			overlay = *it.overlay
		}
		_ = cw.Write([]string{
			it.title, it.url, it.createdAt.Format(time.RFC3339Nano),
			it.fg, it.bg, strconv.Itoa(it.size), strconv.Itoa(it.padding), strconv.Itoa(it.radius), overlay,
			fmt.Sprintf("qr-%d.svg", it.id), fmt.Sprintf("qr-%d.png", it.id),
		})
	}
	cw.Flush()
}

// ownedItems returns the items of userID, newest first. Callers must hold s.mu.
func (s *Server) ownedItems(userID int) []*item {
	var out []*item
	for _, it := range s.items {
		if it.userID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].createdAt.After(out[j].createdAt)
	})
	return out
}

func (s *Server) ownedItem(w http.ResponseWriter, r *http.Request) (*item, bool) {
	ids, err := s.hashID.DecodeWithError(chi.URLParam(r, "id"))
	if err != nil || len(ids) != 1 {
		writeDetail(w, http.StatusNotFound, detailItemNotFound)
		return nil, false
	}
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[ids[0]]
	if !ok || it.userID != u.id {
		writeDetail(w, http.StatusNotFound, detailItemNotFound)
		return nil, false
	}
	return it, true
}

// toItem converts a stored item to its wire form. Callers must hold s.mu.
func (s *Server) toItem(it *item) modelqr.Item {
	id, err := s.hashID.Encode([]int{it.id})
	if err != nil {
		id = strconv.Itoa(it.id)
	}
	return modelqr.Item{
		ID:              modelqr.ItemID(id),
		Title:           it.title,
		URL:             it.url,
		ForegroundColor: it.fg,
		BackgroundColor: it.bg,
		Size:            it.size,
		Padding:         it.padding,
		BorderRadius:    it.radius,
		OverlayText:     it.overlay,
		CreatedAt:       modelqr.Timestamp{Time: it.createdAt},
	}
}

func (it *item) request() modeldto.QRRequest {
	return modeldto.QRRequest{
		Title:           it.title,
		URL:             it.url,
		ForegroundColor: it.fg,
		BackgroundColor: it.bg,
		Size:            it.size,
		Padding:         it.padding,
		BorderRadius:    it.radius,
		OverlayText:     it.overlay,
	}
}

func readUser(u *user) userRead {
	return userRead{
		ID:        u.id,
		Email:     u.email,
		FullName:  u.fullName,
		CreatedAt: modelqr.Timestamp{Time: u.createdAt},
		UpdatedAt: modelqr.Timestamp{Time: u.createdAt},
	}
}

// decodeQR reads and validates a QR payload, answering 422 on failure.
func decodeQR(w http.ResponseWriter, r *http.Request) (modeldto.QRRequest, bool) {
	var req modeldto.QRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return req, false
	}
	var problems []validationEntry
	add := func(field, msg string) {
		problems = append(problems, validationEntry{Loc: []string{"body", field}, Msg: msg})
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("url", "Input should be a valid URL")
	}
	if !hexColor.MatchString(req.ForegroundColor) {
		add("foreground_color", "String should match pattern '^#[0-9a-fA-F]{6}$'")
	}
	if !hexOrTransparent.MatchString(req.BackgroundColor) {
		add("background_color", "String should match pattern '^(#[0-9a-fA-F]{6}|transparent)$'")
	}
	if req.Size < modelqr.MinSize || req.Size > modelqr.MaxSize {
		add("size", fmt.Sprintf("Input should be between %d and %d", modelqr.MinSize, modelqr.MaxSize))
	}
	if req.Padding < 0 || req.Padding > modelqr.MaxPadding {
		add("padding", fmt.Sprintf("Input should be between 0 and %d", modelqr.MaxPadding))
	}
	if req.BorderRadius < 0 || req.BorderRadius > modelqr.MaxBorderRadius {
		add("border_radius", fmt.Sprintf("Input should be between 0 and %d", modelqr.MaxBorderRadius))
	}
	if req.OverlayText != nil && utf8.RuneCountInString(*req.OverlayText) > modelqr.MaxOverlayRunes {
		add("overlay_text", fmt.Sprintf("String should have at most %d characters", modelqr.MaxOverlayRunes))
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string][]validationEntry{"detail": problems})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Writing response:", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
