package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/proposalhero/internal/common"
	"github.com/noah-isme/proposalhero/internal/pricing"
	"github.com/noah-isme/proposalhero/internal/repo"
)

type queryProvider interface {
	ListPricingTiers(ctx context.Context, dimension pricing.Dimension) ([]pricing.Tier, error)
	ReplacePricingTiers(ctx context.Context, dimension pricing.Dimension, tiers []pricing.Tier) ([]pricing.Tier, error)
	ListExecutives(ctx context.Context) ([]repo.Executive, error)
	GetExecutiveByName(ctx context.Context, name string) (repo.Executive, error)
	ListImplementationPackages(ctx context.Context) ([]repo.ImplementationPackage, error)
	GetImplementationPackage(ctx context.Context, id string) (repo.ImplementationPackage, error)
	ListCodeElements(ctx context.Context, category string) ([]repo.CodeElement, error)
	ListOpportunitiesByOwner(ctx context.Context, owner string) ([]repo.Opportunity, error)
	GetAccountTypeByOpportunity(ctx context.Context, opportunityID string) (string, error)
}

// ErrNotFound marks lookups that the handlers answer with 404 and a null body.
var ErrNotFound = &common.AppError{Code: "NOT_FOUND", Message: "not found", HTTPStatus: http.StatusNotFound, Err: repo.ErrNotFound}

// Service serves reference data (tier tables, executives, packages, picklists, opportunities)
// with a read-through Redis cache.
type Service struct {
	queries queryProvider
	cache   *Cache
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache, logger: cfg.Logger}, nil
}

func tiersCacheKey(d pricing.Dimension) string { return "tiers:" + string(d) }

const (
	executivesCacheKey = "executives"
	packagesCacheKey   = "implementation-packages"
)

func codeElementsCacheKey(category string) string { return "code-elements:" + category }

// ListPricingTiers returns the tier table for a dimension.
func (s *Service) ListPricingTiers(ctx context.Context, d pricing.Dimension) ([]pricing.Tier, error) {
	var tiers []pricing.Tier
	if ok, err := s.cache.GetJSON(ctx, tiersCacheKey(d), &tiers); err == nil && ok {
		return tiers, nil
	}
	tiers, err := s.queries.ListPricingTiers(ctx, d)
	if err != nil {
		return nil, s.internal(err, "list pricing tiers")
	}
	_ = s.cache.SetJSON(ctx, tiersCacheKey(d), tiers)
	return tiers, nil
}

// ReplacePricingTiers validates and stores a new tier table for d. This is the only place tables are
// checked for gaps and overlaps; pricing itself tolerates malformed tables.
func (s *Service) ReplacePricingTiers(ctx context.Context, d pricing.Dimension, tiers []pricing.Tier) ([]pricing.Tier, error) {
	if err := pricing.ValidateTiers(tiers, d.Boundary()); err != nil {
		details := map[string]any{"dimension": string(d), "boundary": d.Boundary().String(), "reason": err.Error()}
		var tierErr *pricing.TierError
		if errors.As(err, &tierErr) {
			details["index"] = tierErr.Index
			details["reason"] = tierErr.Err.Error()
		}
		return nil, &common.AppError{Code: "INVALID_TIERS", Message: "tier table is not contiguous", HTTPStatus: http.StatusUnprocessableEntity, Err: err, Details: details}
	}
	stored, err := s.queries.ReplacePricingTiers(ctx, d, tiers)
	if err != nil {
		return nil, s.internal(err, "replace pricing tiers")
	}
	if err := s.cache.Delete(ctx, tiersCacheKey(d)); err != nil {
		s.logger.Warn().Err(err).Str("dimension", string(d)).Msg("tier cache eviction failed")
	}
	s.logger.Info().Str("dimension", string(d)).Int("tiers", len(stored)).Msg("pricing tiers replaced")
	return stored, nil
}

// ListExecutives returns every account executive.
func (s *Service) ListExecutives(ctx context.Context) ([]repo.Executive, error) {
	var rows []repo.Executive
	if ok, err := s.cache.GetJSON(ctx, executivesCacheKey, &rows); err == nil && ok {
		return rows, nil
	}
	rows, err := s.queries.ListExecutives(ctx)
	if err != nil {
		return nil, s.internal(err, "list executives")
	}
	_ = s.cache.SetJSON(ctx, executivesCacheKey, rows)
	return rows, nil
}

// GetExecutiveByName looks up one executive.
func (s *Service) GetExecutiveByName(ctx context.Context, name string) (repo.Executive, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repo.Executive{}, ErrNotFound
	}
	row, err := s.queries.GetExecutiveByName(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Executive{}, ErrNotFound
		}
		return repo.Executive{}, s.internal(err, "get executive")
	}
	return row, nil
}

// ListImplementationPackages returns the implementation packages.
func (s *Service) ListImplementationPackages(ctx context.Context) ([]repo.ImplementationPackage, error) {
	var rows []repo.ImplementationPackage
	if ok, err := s.cache.GetJSON(ctx, packagesCacheKey, &rows); err == nil && ok {
		return rows, nil
	}
	rows, err := s.queries.ListImplementationPackages(ctx)
	if err != nil {
		return nil, s.internal(err, "list implementation packages")
	}
	_ = s.cache.SetJSON(ctx, packagesCacheKey, rows)
	return rows, nil
}

// GetImplementationPackage fetches one package. repo.ErrNotFound is passed through for callers
// that map it themselves.
func (s *Service) GetImplementationPackage(ctx context.Context, id string) (repo.ImplementationPackage, error) {
	rows, err := s.ListImplementationPackages(ctx)
	if err != nil {
		return repo.ImplementationPackage{}, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row, nil
		}
	}
	return repo.ImplementationPackage{}, repo.ErrNotFound
}

// ListCodeElements returns the picklist for category.
func (s *Service) ListCodeElements(ctx context.Context, category string) ([]repo.CodeElement, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, badRequest("category", "category is required")
	}
	var rows []repo.CodeElement
	if ok, err := s.cache.GetJSON(ctx, codeElementsCacheKey(category), &rows); err == nil && ok {
		return rows, nil
	}
	rows, err := s.queries.ListCodeElements(ctx, category)
	if err != nil {
		return nil, s.internal(err, "list code elements")
	}
	_ = s.cache.SetJSON(ctx, codeElementsCacheKey(category), rows)
	return rows, nil
}

// ListOpportunitiesByOwner returns the owner's opportunities. CRM data is not cached.
func (s *Service) ListOpportunitiesByOwner(ctx context.Context, owner string) ([]repo.Opportunity, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, badRequest("owner", "owner is required")
	}
	rows, err := s.queries.ListOpportunitiesByOwner(ctx, owner)
	if err != nil {
		return nil, s.internal(err, "list opportunities")
	}
	return rows, nil
}

// GetAccountTypeByOpportunity returns the account type recorded on an opportunity.
func (s *Service) GetAccountTypeByOpportunity(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}
	accountType, err := s.queries.GetAccountTypeByOpportunity(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", s.internal(err, "get account type")
	}
	return accountType, nil
}

// internal logs the store error and hides it from the client.
func (s *Service) internal(err error, op string) error {
	s.logger.Error().Err(err).Str("op", op).Msg("reference data query failed")
	return &common.AppError{Code: "INTERNAL", Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}

func badRequest(field, message string) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"field": field,
		},
	}
}
