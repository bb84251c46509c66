package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/airplane-seat-reservation/internal/config"
	"github.com/iliyamo/airplane-seat-reservation/internal/handler"
	"github.com/iliyamo/airplane-seat-reservation/internal/middleware"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository/memory"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
	"github.com/iliyamo/airplane-seat-reservation/internal/router"
	"github.com/iliyamo/airplane-seat-reservation/internal/utils"
)

const jwtSecret = "handler-test-secret"

// fakeUsers keeps accounts in memory and registers every new id with the
// reservation store, as the users table does for the MySQL repositories.
type fakeUsers struct {
	mu    sync.Mutex
	users map[uint64]model.User
	next  uint64
	res   *memory.Reservations

	rehashed int
}

func (f *fakeUsers) Create(_ context.Context, username, password, role string, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	f.next++
	f.users[f.next] = model.User{ID: f.next, Username: username, PasswordHash: hash, Role: role, IsActive: true}
	f.res.AddUser(f.next)
	return f.next, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == strings.ToLower(username) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	f.users[id] = u
	f.rehashed++
	return nil
}

type fakeTokens struct {
	mu     sync.Mutex
	owners map[string]uint64
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.owners[hash]
	if !ok {
		return 0, repository.ErrRefreshInvalid
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.owners, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, id := range f.owners {
		if id == userID {
			delete(f.owners, h)
		}
	}
	return nil
}

type HandlerTestSuite struct {
	suite.Suite

	E      *echo.Echo
	Inv    *memory.Inventory
	Res    *memory.Reservations
	Users  *fakeUsers
	Tokens *fakeTokens
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.Inv = memory.NewInventory(model.AirplaneTypes...)
	s.Res = memory.NewReservations()
	s.Users = &fakeUsers{users: map[uint64]model.User{}, res: s.Res}
	s.Tokens = &fakeTokens{owners: map[string]uint64{}}

	logger := log.New("test")
	logger.SetOutput(io.Discard)
	coord, err := reservation.New(s.Inv, s.Res, reservation.WithLogger(logger))
	s.Require().NoError(err)

	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: bcrypt.MinCost}
	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	e.Validator = handler.NewValidator()
	router.RegisterRoutes(e, nil)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, s.Users, s.Tokens), jwtSecret)
	router.RegisterPublic(e, handler.NewAirplaneHandler(coord), middleware.NewRedisCache(config.CacheConfig{}, nil))
	router.RegisterReservations(e, handler.NewReservationHandler(coord), jwtSecret, middleware.NewTokenBucket(config.RateLimitConfig{}, nil))
	router.RegisterAdmin(e, handler.NewAdminHandler(reservation.NewReconciler(coord)), jwtSecret)
	s.E = e
}

func (s *HandlerTestSuite) request(method, path, token string, body any) (int, map[string]any) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// register creates an account and returns its id and access token.
func (s *HandlerTestSuite) register(username string) (uint64, string) {
	code, out := s.request(http.MethodPost, "/api/users", "", map[string]string{"username": username, "password": "correct-horse"})
	s.Require().Equal(http.StatusCreated, code, out)
	user := out["user"].(map[string]any)
	access := out["access"].(map[string]any)
	return uint64(user["id"].(float64)), access["token"].(string)
}

func path(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func (s *HandlerTestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())
}

func (s *HandlerTestSuite) TestReserveAndCancelFlow() {
	idA, tokA := s.register("alice")
	idB, tokB := s.register("bob")

	code, out := s.request(http.MethodPut, path("/api/planes/1/user/%d", idA), tokA, map[string]any{"seats": []string{"1B", "1A"}})
	s.Equal(http.StatusOK, code, out)
	s.Equal([]any{"1A", "1B"}, out["seats"])

	code, out = s.request(http.MethodPut, path("/api/planes/local/user/%d", idB), tokB, map[string]any{"seats": []string{"1B", "1C"}})
	s.Equal(http.StatusConflict, code)
	s.Equal([]any{"1B"}, out["alreadyReserved"])

	code, _ = s.request(http.MethodPut, path("/api/planes/1/user/%d", idB), tokB, map[string]any{"seats": []string{"1C", "1D"}})
	s.Equal(http.StatusOK, code)

	code, out = s.request(http.MethodGet, "/api/planes/1", "", nil)
	s.Equal(http.StatusOK, code)
	s.Equal([]any{"1A", "1B", "1C", "1D"}, out["occupiedSeats"])
	s.EqualValues(60, out["totalSeats"])
	s.EqualValues(56, out["availableCount"])

	code, out = s.request(http.MethodDelete, path("/api/user/%d/planes/1", idA), tokA, nil)
	s.Equal(http.StatusOK, code)
	s.Equal([]any{"1A", "1B"}, out["seats"])

	code, out = s.request(http.MethodDelete, path("/api/user/%d/planes/1", idA), tokA, nil)
	s.Equal(http.StatusBadRequest, code, out)

	code, out = s.request(http.MethodGet, path("/api/users/%d/reservations", idB), tokB, nil)
	s.Equal(http.StatusOK, code)
	s.Len(out["items"], 1)

	code, out = s.request(http.MethodGet, "/api/admin/planes/1/audit", tokA, nil)
	s.Equal(http.StatusForbidden, code, out)
}

func (s *HandlerTestSuite) TestReserveErrors() {
	id, tok := s.register("carol")
	p := path("/api/planes/1/user/%d", id)

	code, out := s.request(http.MethodPut, p, tok, map[string]any{"seats": []string{"16A", "1A"}})
	s.Equal(http.StatusBadRequest, code)
	s.Equal([]any{"16A"}, out["invalidSeats"])

	code, out = s.request(http.MethodPut, p, tok, map[string]any{"seats": []string{}})
	s.Equal(http.StatusBadRequest, code)
	s.Equal([]any{}, out["invalidSeats"])

	code, _ = s.request(http.MethodPut, p, tok, map[string]any{"seats": []string{"2A"}})
	s.Equal(http.StatusOK, code)
	code, _ = s.request(http.MethodPut, p, tok, map[string]any{"seats": []string{"3A"}})
	s.Equal(http.StatusConflict, code)

	code, _ = s.request(http.MethodPut, path("/api/planes/9/user/%d", id), tok, map[string]any{"seats": []string{"1A"}})
	s.Equal(http.StatusNotFound, code)

	code, _ = s.request(http.MethodPut, path("/api/planes/1/user/%d", id+1), tok, map[string]any{"seats": []string{"1A"}})
	s.Equal(http.StatusForbidden, code, "users act on their own reservations only")

	code, _ = s.request(http.MethodPut, p, "", map[string]any{"seats": []string{"1A"}})
	s.Equal(http.StatusUnauthorized, code)
}

func (s *HandlerTestSuite) TestLayout() {
	code, out := s.request(http.MethodGet, "/api/planes/international/layout", "", nil)
	s.Equal(http.StatusOK, code)
	s.EqualValues(25, out["rows"])
	s.Equal([]any{"A", "B", "C", "D", "E", "F"}, out["columns"])
	s.Len(out["seats"], 150)

	code, _ = s.request(http.MethodGet, "/api/planes/jumbo/layout", "", nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *HandlerTestSuite) TestSessions() {
	code, out := s.request(http.MethodPost, "/api/users", "", map[string]string{"username": "x", "password": "short"})
	s.Equal(http.StatusBadRequest, code)
	s.Contains(out["fields"], "Username")

	_, _ = s.register("dave")
	code, _ = s.request(http.MethodPost, "/api/users", "", map[string]string{"username": "dave", "password": "correct-horse"})
	s.Equal(http.StatusConflict, code)

	code, _ = s.request(http.MethodPost, "/api/sessions", "", map[string]string{"username": "dave", "password": "wrong-horse"})
	s.Equal(http.StatusUnauthorized, code)

	code, out = s.request(http.MethodPost, "/api/sessions", "", map[string]string{"username": "Dave", "password": "correct-horse"})
	s.Require().Equal(http.StatusOK, code)
	access := out["access"].(map[string]any)["token"].(string)
	refresh := out["refresh"].(map[string]any)["token"].(string)

	code, out = s.request(http.MethodGet, "/api/sessions/current", access, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("dave", out["username"])

	code, out = s.request(http.MethodPost, "/api/sessions/refresh", "", map[string]string{"refresh_token": refresh})
	s.Require().Equal(http.StatusOK, code)
	rotated := out["refresh"].(map[string]any)["token"].(string)

	code, _ = s.request(http.MethodPost, "/api/sessions/refresh", "", map[string]string{"refresh_token": refresh})
	s.Equal(http.StatusUnauthorized, code, "refresh tokens are single use")

	code, _ = s.request(http.MethodDelete, "/api/sessions/current", access, nil)
	s.Equal(http.StatusNoContent, code)
	code, _ = s.request(http.MethodPost, "/api/sessions/refresh", "", map[string]string{"refresh_token": rotated})
	s.Equal(http.StatusUnauthorized, code, "logout revokes every session")
}

func (s *HandlerTestSuite) TestAdminAudit() {
	id, tok := s.register("erin")
	_, err := s.Users.Create(context.Background(), "root", "correct-horse", model.RoleAdmin, bcrypt.MinCost)
	s.Require().NoError(err)
	code, out := s.request(http.MethodPost, "/api/sessions", "", map[string]string{"username": "root", "password": "correct-horse"})
	s.Require().Equal(http.StatusOK, code)
	admin := out["access"].(map[string]any)["token"].(string)

	code, _ = s.request(http.MethodPut, path("/api/planes/2/user/%d", id), tok, map[string]any{"seats": []string{"4E"}})
	s.Require().Equal(http.StatusOK, code)

	code, out = s.request(http.MethodGet, "/api/admin/planes/2/audit", admin, nil)
	s.Equal(http.StatusOK, code)
	s.Equal(true, out["clean"])

	// A seat taken behind the coordinator's back shows up as orphaned.
	s0, err := s.Inv.Occupied(context.Background(), model.Regional)
	s.Require().NoError(err)
	s.Require().NoError(s.Inv.CompareAndSwapOccupied(context.Background(), model.Regional, s0, s0.Union(model.NewSeatSet("9A"))))

	code, out = s.request(http.MethodGet, "/api/admin/planes/2/audit", admin, nil)
	s.Equal(http.StatusOK, code)
	s.Equal(false, out["clean"])
	s.Equal([]any{"9A"}, out["report"].(map[string]any)["orphaned"])
}

func (s *HandlerTestSuite) TestLoginUpgradesPasswordCost() {
	id, err := s.Users.Create(context.Background(), "frank", "correct-horse", model.RoleCustomer, bcrypt.MinCost+1)
	s.Require().NoError(err)

	code, _ := s.request(http.MethodPost, "/api/sessions", "", map[string]string{"username": "frank", "password": "correct-horse"})
	s.Require().Equal(http.StatusOK, code)
	s.Equal(1, s.Users.rehashed)

	u, err := s.Users.GetByID(context.Background(), id)
	s.Require().NoError(err)
	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	s.Require().NoError(err)
	s.Equal(bcrypt.MinCost, cost)

	code, _ = s.request(http.MethodPost, "/api/sessions", "", map[string]string{"username": "frank", "password": "correct-horse"})
	s.Require().Equal(http.StatusOK, code)
	s.Equal(1, s.Users.rehashed, "hash already at the configured cost")
}
