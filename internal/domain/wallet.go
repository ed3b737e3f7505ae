package domain

import "time"

// Wallet is a per-(tenant, user) balance account. Balance is in minor units.
type Wallet struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	UserID    int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProvisionOutcome string

const (
	OutcomeCreated                ProvisionOutcome = "created"
	OutcomeSkippedFeatureDisabled ProvisionOutcome = "skipped_feature_disabled"
	OutcomeSkippedAlreadyExists   ProvisionOutcome = "skipped_already_exists"
)

// Skipped reports whether no wallet was created.
func (o ProvisionOutcome) Skipped() bool {
	return o != OutcomeCreated
}

type ProvisionResult struct {
	Outcome ProvisionOutcome `json:"outcome"`
	Wallet  *Wallet          `json:"wallet,omitempty"`
}

type ProvisionOpts struct {
	// Force provisions even when the tenant has the wallet feature disabled.
	Force bool
}
