package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/auth"
	"github.com/dmitrijs2005/workly/internal/server/metrics"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/repositories/contracts"
	"github.com/dmitrijs2005/workly/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/workly/internal/server/repositories/users"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// --- in-memory users ---

type memUsers struct {
	mu        sync.Mutex
	byID      map[string]models.User
	err       error
	createErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.User{}} }

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = *u
	return u, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if _, ok := r.byID[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for id, existing := range r.byID {
		if id != u.ID && existing.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	u.UpdatedAt = time.Now()
	r.byID[u.ID] = *u
	return u, nil
}

// --- in-memory refresh tokens ---

type memRefresh struct {
	mu     sync.Mutex
	byHash map[string]models.RefreshToken
	err    error
}

func newMemRefresh() *memRefresh { return &memRefresh{byHash: map[string]models.RefreshToken{}} }

func (r *memRefresh) Create(_ context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	stored := *t
	stored.Token = ""
	r.byHash[t.TokenHash] = stored
	return nil
}

func (r *memRefresh) Consume(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.byHash[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.byHash, hash)
	return &t, nil
}

func (r *memRefresh) Delete(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.byHash, hash)
	return nil
}

func (r *memRefresh) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for h, t := range r.byHash {
		if t.UserID == userID {
			delete(r.byHash, h)
			n++
		}
	}
	return n, nil
}

func (r *memRefresh) countFor(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.byHash {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// --- in-memory contracts ---

type memContracts struct {
	mu   sync.Mutex
	byID map[string]models.Contract
	seq  int
	err  error
}

func newMemContracts() *memContracts { return &memContracts{byID: map[string]models.Contract{}} }

func (r *memContracts) Create(_ context.Context, c *models.Contract) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, existing := range r.byID {
		if existing.UserID == c.UserID && existing.LinkHash == c.LinkHash {
			return nil, common.ErrorConflict
		}
	}
	r.seq++
	c.CreatedAt = time.Unix(int64(r.seq), 0)
	c.UpdatedAt = c.CreatedAt
	r.byID[c.ID] = *c
	return c, nil
}

func (r *memContracts) ListByUser(_ context.Context, userID string) ([]models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Contract, 0)
	for _, c := range r.byID {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memContracts) FindByLinkForUpdate(_ context.Context, userID, linkHash string) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, c := range r.byID {
		if c.UserID == userID && c.LinkHash == linkHash {
			c := c
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memContracts) UpdateStatus(_ context.Context, id string, status models.ContractStatus) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.Status = status
	r.byID[id] = c
	return &c, nil
}

type fakeRepoManager struct {
	u *memUsers
	r *memRefresh
	c *memContracts
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Contracts(dbx.DBTX) contracts.Repository         { return m.c }

// env wires every service over in-memory repositories and a sqlmock DB
// used only where a transaction is opened.
type env struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	rm       *fakeRepoManager
	clock    *fakeClock
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	reg      *prometheus.Registry
	metrics  *metrics.AuthMetrics
	refresh  *RefreshTokenService
	sessions *SessionService
	users    *UserService
	contract *ContractService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		db:    db,
		mock:  mock,
		rm:    &fakeRepoManager{u: newMemUsers(), r: newMemRefresh(), c: newMemContracts()},
		clock: &fakeClock{t: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
	}
	log := logging.Nop{}
	e.tokens = auth.NewTokenManager("k", "workly-api", 15*time.Minute).WithClock(e.clock.Now)
	e.hasher = auth.NewPasswordHasher(bcrypt.MinCost)
	e.reg = prometheus.NewRegistry()
	e.metrics = metrics.NewAuthMetrics(e.reg)
	e.refresh = NewRefreshTokenService(db, e.rm, 48*time.Hour, log).WithClock(e.clock.Now)
	e.sessions = NewSessionService(db, e.rm, e.hasher, e.tokens, e.refresh, e.metrics, log)
	e.users = NewUserService(db, e.rm, e.hasher, e.metrics, log)
	e.contract = NewContractService(db, e.rm)
	return e
}

func (e *env) register(t *testing.T, name, email, password, role string) *models.User {
	t.Helper()
	u, err := e.sessions.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password, Role: role})
	if err != nil {
		t.Fatalf("Register(%s) error: %v", email, err)
	}
	return u
}

// counter returns the value of the named counter series whose "result"
// label equals result, or the unlabelled series when result is empty.
func (e *env) counter(t *testing.T, name, result string) float64 {
	t.Helper()
	families, err := e.reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if result == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
