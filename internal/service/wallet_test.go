package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvisionWallet_CreatesWithZeroBalance(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	u := f.member(acme, "ada@example.com")

	res, err := f.wallets.ProvisionWallet(context.Background(), u.ID, acme, domain.ProvisionOpts{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, res.Outcome)
	require.NotNil(t, res.Wallet)
	assert.Equal(t, int64(0), res.Wallet.Balance)
	assert.Equal(t, acme.ID, res.Wallet.TenantID)
}

func TestProvisionWallet_Idempotent(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	u := f.member(acme, "ada@example.com")
	ctx := context.Background()

	first, err := f.wallets.ProvisionWallet(ctx, u.ID, acme, domain.ProvisionOpts{})
	require.NoError(t, err)
	second, err := f.wallets.ProvisionWallet(ctx, u.ID, acme, domain.ProvisionOpts{})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCreated, first.Outcome)
	assert.Equal(t, domain.OutcomeSkippedAlreadyExists, second.Outcome)
	assert.Equal(t, 1, f.db.walletCount(acme.ID, u.ID))
}

func TestProvisionWallet_FeatureGate(t *testing.T) {
	f := newFixture()
	beta := f.tenant("beta", false)
	u := f.member(beta, "bob@example.com")
	ctx := context.Background()

	res, err := f.wallets.ProvisionWallet(ctx, u.ID, beta, domain.ProvisionOpts{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedFeatureDisabled, res.Outcome)
	assert.Equal(t, 0, f.db.walletCount(beta.ID, u.ID))

	res, err = f.wallets.ProvisionWallet(ctx, u.ID, beta, domain.ProvisionOpts{Force: true})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, res.Outcome)
	assert.Equal(t, 1, f.db.walletCount(beta.ID, u.ID))
}

func TestProvisionWallet_RequiresMembership(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	other := f.tenant("other", true)
	u := f.member(other, "eve@example.com")

	_, err := f.wallets.ProvisionWallet(context.Background(), u.ID, acme, domain.ProvisionOpts{})
	assert.ErrorIs(t, err, ErrNotMember)
	assert.Equal(t, 0, f.db.walletCount(acme.ID, u.ID))
}

func TestProvisionWallet_ConcurrentCallsCreateOneWallet(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	u := f.member(acme, "ada@example.com")

	const n = 16
	var wg sync.WaitGroup
	outcomes := make([]domain.ProvisionOutcome, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.wallets.ProvisionWallet(context.Background(), u.ID, acme, domain.ProvisionOpts{})
			outcomes[i], errs[i] = res.Outcome, err
		}(i)
	}
	wg.Wait()

	created := 0
	for i := range outcomes {
		require.NoError(t, errs[i])
		if outcomes[i] == domain.OutcomeCreated {
			created++
		} else {
			assert.Equal(t, domain.OutcomeSkippedAlreadyExists, outcomes[i])
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.db.walletCount(acme.ID, u.ID))
}

// racingWalletStore misses on the existence check and then loses the insert,
// which is what a concurrent trigger looks like from one caller's side.
type racingWalletStore struct {
	memWalletStore
}

func (s racingWalletStore) GetByTenantAndUser(ctx context.Context, tenantID, userID int64) (*domain.Wallet, error) {
	return nil, store.ErrNotFound
}

func (s racingWalletStore) Create(ctx context.Context, w *domain.Wallet) error {
	return store.ErrConflict
}

func TestProvisionWallet_UniqueViolationIsAlreadyExists(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	u := f.member(acme, "ada@example.com")

	svc := NewWalletService(racingWalletStore{memWalletStore{f.db}}, f.dir, nil, zap.NewNop())
	res, err := svc.ProvisionWallet(context.Background(), u.ID, acme, domain.ProvisionOpts{})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkippedAlreadyExists, res.Outcome)
}

type failingWalletStore struct {
	memWalletStore
}

func (s failingWalletStore) Create(ctx context.Context, w *domain.Wallet) error {
	return errors.New("connection reset")
}

func TestProvisionWallet_StorageErrorPropagates(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	u := f.member(acme, "ada@example.com")

	svc := NewWalletService(failingWalletStore{memWalletStore{f.db}}, f.dir, nil, zap.NewNop())
	_, err := svc.ProvisionWallet(context.Background(), u.ID, acme, domain.ProvisionOpts{})
	assert.EqualError(t, err, "connection reset")
}

func TestGetWallet_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.wallets.GetWallet(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestListWallets_ScopedToTenant(t *testing.T) {
	f := newFixture()
	acme := f.tenant("acme", true)
	beta := f.tenant("beta", true)
	a := f.member(acme, "a@example.com")
	b := f.member(beta, "b@example.com")
	ctx := context.Background()

	_, err := f.wallets.ProvisionWallet(ctx, a.ID, acme, domain.ProvisionOpts{})
	require.NoError(t, err)
	_, err = f.wallets.ProvisionWallet(ctx, b.ID, beta, domain.ProvisionOpts{})
	require.NoError(t, err)

	wallets, err := f.wallets.ListWallets(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, a.ID, wallets[0].UserID)
}
