package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureRole_FindOrCreate(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	ctx := context.Background()

	r1, err := f.roles.EnsureRole(ctx, "Admin", acme.ID, "web")
	require.NoError(t, err)
	r2, err := f.roles.EnsureRole(ctx, "Admin", acme.ID, "")
	require.NoError(t, err)

	assert.Equal(t, r1.ID, r2.ID)
	assert.Equal(t, "web", r2.Guard)
}

func TestEnsureRole_DistinctPerTenant(t *testing.T) {
	f := newFixture()
	a := f.tenant("tenant-a", true)
	b := f.tenant("tenant-b", true)
	ctx := context.Background()

	ra, err := f.roles.EnsureRole(ctx, "Admin", a.ID, "web")
	require.NoError(t, err)
	rb, err := f.roles.EnsureRole(ctx, "Admin", b.ID, "web")
	require.NoError(t, err)

	assert.NotEqual(t, ra.ID, rb.ID)
	assert.Equal(t, a.ID, ra.TenantID)
	assert.Equal(t, b.ID, rb.TenantID)
}

func TestEnsureRole_DistinctPerGuard(t *testing.T) {
	f := newFixture()
	a := f.tenant("tenant-a", true)
	ctx := context.Background()

	web, err := f.roles.EnsureRole(ctx, "Admin", a.ID, "web")
	require.NoError(t, err)
	api, err := f.roles.EnsureRole(ctx, "Admin", a.ID, "api")
	require.NoError(t, err)
	assert.NotEqual(t, web.ID, api.ID)
}

func TestHasRole_TenantIsolation(t *testing.T) {
	f := newFixture()
	a := f.tenant("tenant-a", true)
	b := f.tenant("tenant-b", true)
	u := f.member(b, "ada@example.com")
	_, err := (memMembershipStore{f.db}).Add(context.Background(), a.ID, u.ID)
	require.NoError(t, err)
	ctx := context.Background()

	adminB, err := f.roles.EnsureRole(ctx, "Admin", b.ID, "web")
	require.NoError(t, err)
	_, err = f.roles.EnsureRole(ctx, "Admin", a.ID, "web")
	require.NoError(t, err)
	require.NoError(t, f.roles.AssignRole(ctx, u.ID, adminB))

	inA, err := f.roles.HasRole(ctx, u.ID, "Admin", a.ID)
	require.NoError(t, err)
	inB, err := f.roles.HasRole(ctx, u.ID, "Admin", b.ID)
	require.NoError(t, err)

	assert.False(t, inA)
	assert.True(t, inB)
}

func TestAssignRole_IdempotentAndRequiresMembership(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	member := f.member(acme, "m@example.com")
	outsider := f.member(f.tenant("other", true), "o@example.com")
	ctx := context.Background()

	staff, err := f.roles.EnsureRole(ctx, "Staff", acme.ID, "web")
	require.NoError(t, err)

	require.NoError(t, f.roles.AssignRole(ctx, member.ID, staff))
	require.NoError(t, f.roles.AssignRole(ctx, member.ID, staff))
	names, err := f.roles.RolesOf(ctx, member.ID, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Staff"}, names)

	assert.ErrorIs(t, f.roles.AssignRole(ctx, outsider.ID, staff), ErrNotMember)
}

func TestRevokeRole(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	u := f.member(acme, "m@example.com")
	ctx := context.Background()

	staff, err := f.roles.EnsureRole(ctx, "Staff", acme.ID, "web")
	require.NoError(t, err)
	require.NoError(t, f.roles.AssignRole(ctx, u.ID, staff))
	require.NoError(t, f.roles.RevokeRole(ctx, u.ID, staff))

	ok, err := f.roles.HasRole(ctx, u.ID, "Staff", acme.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindRole_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.roles.FindRole(context.Background(), "Ghost", 1)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestBootstrapTenantRoles(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	creator := f.member(acme, "owner@example.com")
	ctx := context.Background()

	require.NoError(t, f.roles.BootstrapTenantRoles(ctx, acme, creator.ID))
	// second run must not duplicate anything
	require.NoError(t, f.roles.BootstrapTenantRoles(ctx, acme, creator.ID))

	roles, err := f.roles.ListRoles(ctx, acme.ID)
	require.NoError(t, err)
	var names []string
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"Admin", "Staff", "User"}, names)

	isAdmin, err := f.roles.HasRole(ctx, creator.ID, "Admin", acme.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

// raceRoleStore simulates another request creating the role between our
// lookup and our insert.
type raceRoleStore struct {
	memRoleStore
	once sync.Once
}

func (s *raceRoleStore) Create(ctx context.Context, r *domain.Role) error {
	var err error
	s.once.Do(func() {
		winner := &domain.Role{Name: r.Name, TenantID: r.TenantID, Guard: r.Guard}
		_ = s.memRoleStore.Create(ctx, winner)
		err = store.ErrConflict
	})
	if err != nil {
		return err
	}
	return s.memRoleStore.Create(ctx, r)
}

func TestEnsureRole_ConcurrentCreateReturnsExisting(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	rs := &raceRoleStore{memRoleStore: memRoleStore{f.db}}
	svc := NewRoleService(rs, f.dir, "web", nil, nil, zap.NewNop())

	r, err := svc.EnsureRole(context.Background(), "Admin", acme.ID, "web")
	require.NoError(t, err)
	assert.NotZero(t, r.ID)

	all, err := svc.ListRoles(context.Background(), acme.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

type brokenRoleStore struct {
	memRoleStore
}

func (s brokenRoleStore) Create(ctx context.Context, r *domain.Role) error {
	if r.Name == domain.RoleAdmin {
		return errors.New("insert failed")
	}
	return s.memRoleStore.Create(ctx, r)
}

type captureReporter struct {
	mu   sync.Mutex
	errs []error
	tags []map[string]string
}

func (c *captureReporter) Capture(ctx context.Context, err error, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}

func (c *captureReporter) Flush(time.Duration) {}

func TestBootstrapTenantRoles_AdminFailureIsLoudButKeepsTenant(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	creator := f.member(acme, "owner@example.com")
	reporter := &captureReporter{}
	m := metrics.New()
	svc := NewRoleService(brokenRoleStore{memRoleStore{f.db}}, f.dir, "web", reporter, m, zap.NewNop())

	err := svc.BootstrapTenantRoles(context.Background(), acme, creator.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoleBootstrap)

	require.Len(t, reporter.errs, 1)
	assert.Equal(t, "1", reporter.tags[0]["tenant_id"])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RoleBootstraps.WithLabelValues("error")))

	// the other standard roles and the tenant itself are still there
	_, err = f.dir.GetTenant(context.Background(), acme.ID)
	assert.NoError(t, err)
	roles, err := svc.ListRoles(context.Background(), acme.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}
