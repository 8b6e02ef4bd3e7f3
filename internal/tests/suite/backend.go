package suite

import (
	"encoding/json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"magal/internal/model"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	AdminEmail    = "admin@magal.sn"
	AdminPassword = "Admin12345"
	UserEmail     = "modou@magal.sn"
	UserPassword  = "Password123"
)

var backendSecret = []byte("backend-test-secret")

// Call is one request seen by the backend.
type Call struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	user     model.User
	password string
}

// Backend is an in-process fake of the remote API, mounted under /api.
type Backend struct {
	*httptest.Server

	mu            sync.Mutex
	accounts      map[string]*account
	tokens        map[string]int64
	events        []model.Event
	places        []model.Place
	registrations map[int64]map[int64]bool
	favorites     map[int64]map[int64]bool
	unread        map[int64]int
	calls         []Call
	nextUserID    int64
	tokenTTL      time.Duration
	failRefresh   bool
	drops         map[string]bool
}

func NewBackend() *Backend {
	b := &Backend{
		accounts:      make(map[string]*account),
		tokens:        make(map[string]int64),
		registrations: make(map[int64]map[int64]bool),
		favorites:     make(map[int64]map[int64]bool),
		unread:        make(map[int64]int),
		drops:         make(map[string]bool),
		nextUserID:    3,
		tokenTTL:      time.Hour,
	}

	b.accounts[AdminEmail] = &account{
		user:     model.User{ID: 1, Name: "Mbacke", Surname: "Awa", Email: AdminEmail, Role: model.RoleAdmin},
		password: AdminPassword,
	}
	b.accounts[UserEmail] = &account{
		user:     model.User{ID: 2, Name: "Diop", Surname: "Modou", Email: UserEmail, Role: "user"},
		password: UserPassword,
	}
	b.unread[2] = 3

	for i := 1; i <= 12; i++ {
		capacity := 10
		left := capacity
		b.events = append(b.events, model.Event{
			ID:          int64(i),
			Title:       "Conference " + strconv.Itoa(i),
			Description: "Causerie sur le Magal",
			Type:        model.EventConference,
			DateTime:    "18/08/2026 20:00",
			Location:    "Grande Mosquee",
			Capacity:    &capacity,
			SeatsLeft:   &left,
			Active:      true,
		})
	}
	b.places = []model.Place{
		{ID: 1, Name: "Grande Mosquee de Touba", Type: model.PlaceMosque, Address: "Touba"},
		{ID: 2, Name: "Poste de sante Darou", Type: model.PlaceHealth, Address: "Darou Marnane"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("POST /api/auth/register", b.register)
	mux.HandleFunc("POST /api/auth/logout", b.authed(b.logout))
	mux.HandleFunc("POST /api/auth/refresh", b.authed(b.refresh))
	mux.HandleFunc("GET /api/auth/profile", b.authed(b.profile))
	mux.HandleFunc("GET /api/evenements", b.listEvents)
	mux.HandleFunc("GET /api/evenements/{id}", b.getEvent)
	mux.HandleFunc("POST /api/evenements/{id}/inscription", b.authed(b.joinEvent))
	mux.HandleFunc("DELETE /api/evenements/{id}/inscription", b.authed(b.leaveEvent))
	mux.HandleFunc("GET /api/mes-inscriptions", b.authed(b.myRegistrations))
	mux.HandleFunc("GET /api/points-interet", b.listPlaces)
	mux.HandleFunc("POST /api/points-interet/{id}/favori", b.authed(b.addFavorite))
	mux.HandleFunc("GET /api/mes-favoris", b.authed(b.myFavorites))
	mux.HandleFunc("GET /api/notifications/non-lues/count", b.authed(b.unreadCount))
	mux.HandleFunc("POST /api/images/evenements/upload", b.authed(b.upload))

	b.Server = httptest.NewServer(b.record(mux))
	return b
}

// BaseURL is the API root the client is configured with.
func (b *Backend) BaseURL() string {
	return b.URL + "/api"
}

// Calls returns a copy of the recorded requests.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsTo counts recorded requests to path (without the /api prefix).
func (b *Backend) CallsTo(method, path string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (b *Backend) SetTokenTTL(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenTTL = d
}

// SetFailRefresh makes /auth/refresh answer 401.
func (b *Backend) SetFailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// Drop makes the backend cut the connection of matching requests without
// answering, as a network failure would.
func (b *Backend) Drop(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drops[method+" "+path] = true
}

// RevokeAll invalidates every issued token, as a server-side expiry would.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]int64)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")

		b.mu.Lock()
		b.calls = append(b.calls, Call{
			Method:        r.Method,
			Path:          path,
			Authorization: r.Header.Get("Authorization"),
		})
		drop := b.drops[r.Method+" "+path]
		b.mu.Unlock()

		if drop {
			if conn, _, err := http.NewResponseController(w).Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *model.User, token string)

func (b *Backend) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, token := b.caller(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}
		h(w, r, user, token)
	}
}

func (b *Backend) caller(r *http.Request) (*model.User, string) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.tokens[token]
	if !ok {
		return nil, ""
	}
	for _, a := range b.accounts {
		if a.user.ID == id {
			u := a.user
			return &u, token
		}
	}
	return nil, ""
}

// issue must be called with mu held.
func (b *Backend) issue(userID int64) string {
	now := time.Now()
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
	}).SignedString(backendSecret)
	b.tokens[tok] = userID
	return tok
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad json"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[req.Email]
	if !ok || a.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Identifiants invalides"})
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{User: &a.user, AccessToken: b.issue(a.user.ID)})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad json"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.accounts[req.Email]; taken {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"email": {"The email has already been taken."}},
		})
		return
	}

	a := &account{
		user: model.User{
			ID:      b.nextUserID,
			Name:    req.Name,
			Surname: req.Surname,
			Email:   req.Email,
			Phone:   req.Phone,
			Role:    "user",
		},
		password: req.Password,
	}
	b.nextUserID++
	b.accounts[req.Email] = a

	writeJSON(w, http.StatusCreated, model.AuthResponse{User: &a.user, AccessToken: b.issue(a.user.ID)})
}

func (b *Backend) logout(w http.ResponseWriter, _ *http.Request, _ *model.User, token string) {
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deconnexion reussie"})
}

func (b *Backend) refresh(w http.ResponseWriter, _ *http.Request, user *model.User, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token has expired"})
		return
	}

	delete(b.tokens, token)
	writeJSON(w, http.StatusOK, model.RefreshResponse{AccessToken: b.issue(user.ID)})
}

func (b *Backend) profile(w http.ResponseWriter, _ *http.Request, user *model.User, _ string) {
	writeJSON(w, http.StatusOK, model.ProfileResponse{User: user})
}

func (b *Backend) listEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := b.caller(r)
	search := strings.ToLower(r.URL.Query().Get("search"))

	b.mu.Lock()
	var matched []model.Event
	for _, e := range b.events {
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			continue
		}
		if user != nil {
			e.Registered = b.registrations[user.ID][e.ID]
		}
		matched = append(matched, e)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, r))
}

func (b *Backend) getEvent(w http.ResponseWriter, r *http.Request) {
	user, _ := b.caller(r)

	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.event(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Evenement introuvable"})
		return
	}
	out := *e
	if user != nil {
		out.Registered = b.registrations[user.ID][e.ID]
	}
	writeJSON(w, http.StatusOK, model.Item[model.Event]{Data: &out})
}

// event must be called with mu held.
func (b *Backend) event(rawID string) (*model.Event, bool) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, false
	}
	for i := range b.events {
		if b.events[i].ID == id {
			return &b.events[i], true
		}
	}
	return nil, false
}

func (b *Backend) joinEvent(w http.ResponseWriter, r *http.Request, user *model.User, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.event(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Evenement introuvable"})
		return
	}
	if b.registrations[user.ID] == nil {
		b.registrations[user.ID] = make(map[int64]bool)
	}
	if !b.registrations[user.ID][e.ID] {
		b.registrations[user.ID][e.ID] = true
		e.RegisteredCount++
	}

	writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: "Inscription reussie"})
}

func (b *Backend) leaveEvent(w http.ResponseWriter, r *http.Request, user *model.User, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.event(r.PathValue("id"))
	if !ok || !b.registrations[user.ID][e.ID] {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Inscription introuvable"})
		return
	}
	delete(b.registrations[user.ID], e.ID)
	e.RegisteredCount--

	writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: "Desinscription reussie"})
}

func (b *Backend) myRegistrations(w http.ResponseWriter, r *http.Request, user *model.User, _ string) {
	b.mu.Lock()
	var regs []model.Registration
	for i := range b.events {
		if b.registrations[user.ID][b.events[i].ID] {
			e := b.events[i]
			e.Registered = true
			regs = append(regs, model.Registration{ID: int64(len(regs) + 1), Event: &e})
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(regs, r))
}

func (b *Backend) listPlaces(w http.ResponseWriter, r *http.Request) {
	user, _ := b.caller(r)
	kind := r.URL.Query().Get("type")

	b.mu.Lock()
	var matched []model.Place
	for _, p := range b.places {
		if kind != "" && string(p.Type) != kind {
			continue
		}
		if user != nil {
			p.Favorite = b.favorites[user.ID][p.ID]
		}
		matched = append(matched, p)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(matched, r))
}

func (b *Backend) addFavorite(w http.ResponseWriter, r *http.Request, user *model.User, _ string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Lieu introuvable"})
		return
	}

	b.mu.Lock()
	if b.favorites[user.ID] == nil {
		b.favorites[user.ID] = make(map[int64]bool)
	}
	b.favorites[user.ID][id] = true
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: "Ajoute aux favoris"})
}

func (b *Backend) myFavorites(w http.ResponseWriter, r *http.Request, user *model.User, _ string) {
	b.mu.Lock()
	var favs []model.Place
	for _, p := range b.places {
		// Флаг намеренно не ставим, как реальный сервер
		if b.favorites[user.ID][p.ID] {
			favs = append(favs, p)
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(favs, r))
}

func (b *Backend) unreadCount(w http.ResponseWriter, _ *http.Request, user *model.User, _ string) {
	b.mu.Lock()
	n := b.unread[user.ID]
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, model.UnreadCount{Count: n})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request, user *model.User, _ string) {
	if !user.IsAdmin() {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Acces reserve aux administrateurs"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"image": {"The image field is required."}},
		})
		return
	}
	defer file.Close()

	url := "/storage/evenements/" + r.FormValue("evenement_id") + "/" + header.Filename
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"url": url}})
}

func paginate[T any](items []T, r *http.Request) model.Page[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}

	last := (len(items) + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}

	from := min((page-1)*perPage, len(items))
	to := min(from+perPage, len(items))

	return model.Page[T]{
		Data: append([]T{}, items[from:to]...),
		Pagination: model.Pagination{
			CurrentPage: page,
			LastPage:    last,
			PerPage:     perPage,
			Total:       len(items),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
