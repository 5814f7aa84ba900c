package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("repo: not found")

// Executive is an account executive who can own a proposal.
type Executive struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// ImplementationPackage is a one-time onboarding offer.
type ImplementationPackage struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// CodeElement is one entry of a named picklist (industries, regions, carriers).
type CodeElement struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Code     string `json:"code"`
	Label    string `json:"label"`
}

// Opportunity is a CRM opportunity owned by an executive.
type Opportunity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	AccountName string `json:"accountName"`
	AccountType string `json:"accountType"`
	Stage       string `json:"stage,omitempty"`
}

// VariableMapping binds a document placeholder to a form field path.
type VariableMapping struct {
	VariableName string    `json:"variableName" validate:"required,max=128"`
	FieldPath    string    `json:"fieldPath" validate:"required,max=256"`
	Description  string    `json:"description,omitempty" validate:"max=512"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Querier is the data-access surface the services depend on.
type Querier interface {
	ListPricingTiers(ctx context.Context, dimension pricing.Dimension) ([]pricing.Tier, error)
	ReplacePricingTiers(ctx context.Context, dimension pricing.Dimension, tiers []pricing.Tier) ([]pricing.Tier, error)
	ListExecutives(ctx context.Context) ([]Executive, error)
	GetExecutiveByName(ctx context.Context, name string) (Executive, error)
	ListImplementationPackages(ctx context.Context) ([]ImplementationPackage, error)
	GetImplementationPackage(ctx context.Context, id string) (ImplementationPackage, error)
	ListCodeElements(ctx context.Context, category string) ([]CodeElement, error)
	ListOpportunitiesByOwner(ctx context.Context, owner string) ([]Opportunity, error)
	GetAccountTypeByOpportunity(ctx context.Context, opportunityID string) (string, error)
	ListVariableMappings(ctx context.Context) ([]VariableMapping, error)
	UpsertVariableMapping(ctx context.Context, mapping VariableMapping) (VariableMapping, error)
}
