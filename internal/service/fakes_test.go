package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"go.uber.org/zap"
)

// The fakes below honour the same unique keys as the SQL schema so the
// services see ErrConflict exactly where Postgres would raise 23505.

type memDB struct {
	mu sync.Mutex

	seq         int64
	tenants     map[int64]*domain.Tenant
	users       map[int64]*domain.User
	memberships map[[2]int64]time.Time // {tenantID, userID}
	roles       map[int64]*domain.Role
	grants      map[[2]int64]bool // {userID, roleID}
	wallets     map[[2]int64]*domain.Wallet
}

func newMemDB() *memDB {
	return &memDB{
		tenants:     map[int64]*domain.Tenant{},
		users:       map[int64]*domain.User{},
		memberships: map[[2]int64]time.Time{},
		roles:       map[int64]*domain.Role{},
		grants:      map[[2]int64]bool{},
		wallets:     map[[2]int64]*domain.Wallet{},
	}
}

func (db *memDB) nextID() int64 {
	db.seq++
	return db.seq
}

type memTenantStore struct{ db *memDB }

func (s memTenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.tenants {
		if existing.Slug == t.Slug {
			return store.ErrConflict
		}
	}
	t.ID = s.db.nextID()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	cp := *t
	s.db.tenants[t.ID] = &cp
	return nil
}

func (s memTenantStore) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s memTenantStore) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tenants {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s memTenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.Tenant
	for _, t := range s.db.tenants {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memTenantStore) ListByUser(ctx context.Context, userID int64) ([]domain.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	type joined struct {
		t  domain.Tenant
		at time.Time
	}
	var rows []joined
	for k, at := range s.db.memberships {
		if k[1] == userID {
			rows = append(rows, joined{*s.db.tenants[k[0]], at})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].at.Equal(rows[j].at) {
			return rows[i].t.ID < rows[j].t.ID
		}
		return rows[i].at.Before(rows[j].at)
	})
	out := make([]domain.Tenant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.t)
	}
	return out, nil
}

type memMembershipStore struct{ db *memDB }

func (s memMembershipStore) Add(ctx context.Context, tenantID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := [2]int64{tenantID, userID}
	if _, ok := s.db.memberships[k]; ok {
		return false, nil
	}
	// monotonic so "first tenant" ordering is deterministic
	s.db.memberships[k] = time.Unix(0, s.db.nextID())
	return true, nil
}

func (s memMembershipStore) Exists(ctx context.Context, tenantID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.memberships[[2]int64{tenantID, userID}]
	return ok, nil
}

func (s memMembershipStore) ListUsers(ctx context.Context, tenantID int64) ([]domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.User
	for k := range s.db.memberships {
		if k[0] == tenantID {
			out = append(out, *s.db.users[k[1]])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUserStore struct{ db *memDB }

func (s memUserStore) Create(ctx context.Context, u *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrConflict
		}
	}
	u.ID = s.db.nextID()
	cp := *u
	s.db.users[u.ID] = &cp
	return nil
}

func (s memUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

type memRoleStore struct{ db *memDB }

func (s memRoleStore) Create(ctx context.Context, r *domain.Role) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.roles {
		if existing.Name == r.Name && existing.TenantID == r.TenantID && existing.Guard == r.Guard {
			return store.ErrConflict
		}
	}
	r.ID = s.db.nextID()
	cp := *r
	s.db.roles[r.ID] = &cp
	return nil
}

func (s memRoleStore) Get(ctx context.Context, name string, tenantID int64, guard string) (*domain.Role, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.roles {
		if r.Name == name && r.TenantID == tenantID && r.Guard == guard {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s memRoleStore) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Role, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.Role
	for _, r := range s.db.roles {
		if r.TenantID == tenantID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memRoleStore) Assign(ctx context.Context, userID, roleID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.grants[[2]int64{userID, roleID}] = true
	return nil
}

func (s memRoleStore) Revoke(ctx context.Context, userID, roleID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.grants, [2]int64{userID, roleID})
	return nil
}

func (s memRoleStore) HasRole(ctx context.Context, userID int64, name string, tenantID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for k := range s.db.grants {
		r := s.db.roles[k[1]]
		if k[0] == userID && r.Name == name && r.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (s memRoleStore) NamesForUser(ctx context.Context, userID, tenantID int64) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []string
	for k := range s.db.grants {
		r := s.db.roles[k[1]]
		if k[0] == userID && r.TenantID == tenantID {
			out = append(out, r.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memWalletStore struct{ db *memDB }

func (s memWalletStore) Create(ctx context.Context, w *domain.Wallet) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	k := [2]int64{w.TenantID, w.UserID}
	if _, ok := s.db.wallets[k]; ok {
		return store.ErrConflict
	}
	w.ID = s.db.nextID()
	cp := *w
	s.db.wallets[k] = &cp
	return nil
}

func (s memWalletStore) GetByTenantAndUser(ctx context.Context, tenantID, userID int64) (*domain.Wallet, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.wallets[[2]int64{tenantID, userID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s memWalletStore) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Wallet, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []domain.Wallet
	for k, w := range s.db.wallets {
		if k[0] == tenantID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (db *memDB) walletCount(tenantID, userID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.wallets[[2]int64{tenantID, userID}]; ok {
		return 1
	}
	return 0
}

// recordingPublisher captures published events instead of queueing them.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.EventKind
	for _, e := range p.events {
		out = append(out, e.Kind())
	}
	return out
}

// fixture wires every service over one memDB.
type fixture struct {
	db        *memDB
	dir       *DirectoryService
	roles     *RoleService
	wallets   *WalletService
	backfill  *BackfillService
	prov      *Provisioner
	tenants   *TenantService
	users     *UserService
	publisher *recordingPublisher
}

func newFixture() *fixture {
	db := newMemDB()
	logger := zap.NewNop()
	pub := &recordingPublisher{}

	dir := NewDirectoryService(memTenantStore{db}, memMembershipStore{db}, logger)
	roles := NewRoleService(memRoleStore{db}, dir, "web", nil, nil, logger)
	wallets := NewWalletService(memWalletStore{db}, dir, nil, logger)
	return &fixture{
		db:        db,
		dir:       dir,
		roles:     roles,
		wallets:   wallets,
		backfill:  NewBackfillService(dir, wallets, logger),
		prov:      NewProvisioner(dir, memUserStore{db}, roles, wallets, logger),
		tenants:   NewTenantService(memTenantStore{db}, dir, pub, logger),
		users:     NewUserService(memUserStore{db}, dir, nil, pub, logger),
		publisher: pub,
	}
}

func (f *fixture) tenant(slug string, enableWallet bool) *domain.Tenant {
	t := &domain.Tenant{Slug: slug, Name: slug, EnableWallet: enableWallet}
	if err := (memTenantStore{f.db}).Create(context.Background(), t); err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) member(t *domain.Tenant, email string) *domain.User {
	u := &domain.User{Email: email}
	if err := (memUserStore{f.db}).Create(context.Background(), u); err != nil {
		panic(err)
	}
	if _, err := (memMembershipStore{f.db}).Add(context.Background(), t.ID, u.ID); err != nil {
		panic(err)
	}
	return u
}
