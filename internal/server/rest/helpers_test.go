package rest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/metrics"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/workly/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/workly/internal/server/repositories/users"
	"github.com/dmitrijs2005/workly/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	r.byID[u.ID] = *u
	return u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = *u
	return u, nil
}

type memContracts struct {
	mu   sync.Mutex
	list []models.Contract
}

func (r *memContracts) Create(_ context.Context, c *models.Contract) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.list {
		if existing.UserID == c.UserID && existing.LinkHash == c.LinkHash {
			return nil, common.ErrorConflict
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.list = append(r.list, *c)
	return c, nil
}

func (r *memContracts) ListByUser(_ context.Context, userID string) ([]models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Contract, 0)
	for i := len(r.list) - 1; i >= 0; i-- {
		if r.list[i].UserID == userID {
			out = append(out, r.list[i])
		}
	}
	return out, nil
}

func (r *memContracts) FindByLinkForUpdate(_ context.Context, userID, linkHash string) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.list {
		if c.UserID == userID && c.LinkHash == linkHash {
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memContracts) UpdateStatus(_ context.Context, id string, status models.ContractStatus) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.list {
		if r.list[i].ID == id {
			r.list[i].Status = status
			c := r.list[i]
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

type testRepoManager struct {
	users     *memUsers
	refresh   *refreshtokens.RedisRepository
	contracts *memContracts
}

func (m *testRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *testRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *testRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.refresh }
func (m *testRepoManager) Contracts(dbx.DBTX) contracts.Repository         { return m.contracts }

type testEnv struct {
	app      *fiber.App
	mock     sqlmock.Sqlmock
	sessions *services.SessionService
	reg      *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rm := &testRepoManager{
		users:     &memUsers{byID: map[string]models.User{}},
		refresh:   refreshtokens.NewRedisRepository(client, time.Hour),
		contracts: &memContracts{},
	}

	log := logging.Nop{}
	reg := prometheus.NewRegistry()
	am := metrics.NewAuthMetrics(reg)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("secret", "workly-api", 15*time.Minute)
	refresh := services.NewRefreshTokenService(db, rm, 48*time.Hour, log)

	sessions := services.NewSessionService(db, rm, hasher, tokens, refresh, am, log)
	h := NewHandler(
		sessions,
		services.NewUserService(db, rm, hasher, am, log),
		services.NewContractService(db, rm),
		log,
	)

	return &testEnv{app: NewApp(h, reg, log), mock: mock, sessions: sessions, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	_ = resp.Body.Close()
	return resp, data
}

// signup registers a user and logs in, returning the session tokens.
func (e *testEnv) signup(t *testing.T, name, email, password, role string) sessionResponse {
	t.Helper()

	resp, _ := e.do(t, http.MethodPost, "/auth/register", "", registerRequest{Name: name, Email: email, Password: password, Role: role})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var s sessionResponse
	if err := json.Unmarshal(body, &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}
