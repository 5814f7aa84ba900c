package proposal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/proposalhero/internal/common"
	"github.com/noah-isme/proposalhero/internal/document"
	"github.com/noah-isme/proposalhero/internal/mapping"
	"github.com/noah-isme/proposalhero/internal/obs"
	"github.com/noah-isme/proposalhero/internal/pricing"
	"github.com/noah-isme/proposalhero/internal/repo"
)

type queryProvider interface {
	ListPricingTiers(ctx context.Context, dimension pricing.Dimension) ([]pricing.Tier, error)
	GetImplementationPackage(ctx context.Context, id string) (repo.ImplementationPackage, error)
}

type mappingTable interface {
	Table(ctx context.Context) (map[string]string, error)
}

// Service prices proposals and hands complete ones to the document generator.
type Service struct {
	queries   queryProvider
	mappings  mappingTable
	generator document.Generator
	logger    zerolog.Logger
}

// ServiceConfig groups Service dependencies. Mappings is optional.
type ServiceConfig struct {
	Queries   queryProvider
	Mappings  mappingTable
	Generator document.Generator
	Logger    zerolog.Logger
}

// GenerateResult is returned by a successful generation.
type GenerateResult struct {
	Document document.Handle `json:"document"`
	URL      string          `json:"url"`
	Summary  Summary         `json:"summary"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("proposal: queries provider is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("proposal: document generator is required")
	}
	return &Service{
		queries:   cfg.Queries,
		mappings:  cfg.Mappings,
		generator: cfg.Generator,
		logger:    cfg.Logger,
	}, nil
}

// LoadTables fetches every tier table.
func (s *Service) LoadTables(ctx context.Context) (Tables, error) {
	var tables Tables
	for _, d := range pricing.Dimensions {
		tiers, err := s.queries.ListPricingTiers(ctx, d)
		if err != nil {
			return Tables{}, internalError(err)
		}
		if len(tiers) == 0 {
			s.logger.Warn().Str("dimension", string(d)).Msg("pricing tier table empty")
		}
		tables.Set(d, tiers)
	}
	return tables, nil
}

// Summarize prices form against the stored tier tables and implementation catalog.
func (s *Service) Summarize(ctx context.Context, form FormData) (Summary, error) {
	ctx, span := otel.Tracer("proposal.Service").Start(ctx, "ProposalService.Summarize")
	defer span.End()
	start := time.Now()

	if fields, messages := quantityErrors(form); len(fields) > 0 {
		return Summary{}, common.ValidationError(fields, messages)
	}
	tables, err := s.LoadTables(ctx)
	if err != nil {
		return Summary{}, err
	}
	price, err := s.implementationPrice(ctx, form.Implementation)
	if err != nil {
		return Summary{}, err
	}
	summary := Summarize(form, tables, price)

	elapsed := obs.DurationMillis(time.Since(start))
	span.SetAttributes(
		attribute.Int("proposal.lines", len(summary.Lines)),
		attribute.String("proposal.recurring_annual", summary.RecurringAnnual.String()),
		attribute.Float64("proposal.summary.duration_ms", elapsed),
	)
	if obs.SummaryComputationsTotal != nil {
		obs.SummaryComputationsTotal.Inc()
	}
	if obs.SummaryDuration != nil {
		obs.SummaryDuration.Observe(elapsed)
	}
	return summary, nil
}

func (s *Service) implementationPrice(ctx context.Context, impl Implementation) (decimal.Decimal, error) {
	if impl.PackageID == "" {
		return decimal.Zero, nil
	}
	pkg, err := s.queries.GetImplementationPackage(ctx, impl.PackageID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return decimal.Zero, common.ValidationError([]string{"packageId"}, map[string]string{"packageId": "is not a known implementation package"})
		}
		return decimal.Zero, internalError(err)
	}
	return pkg.Price, nil
}

// Reduce applies a form action and maps reducer errors onto API errors.
func (s *Service) Reduce(form FormData, action Action) (FormData, error) {
	if err := common.Validator().Struct(action); err != nil {
		return form, common.ValidationError(common.FieldErrors(err))
	}
	next, err := Reduce(form, action)
	if err != nil {
		return form, actionError(err)
	}
	return next, nil
}

// Navigate performs a wizard move ("continue" or "back").
func (s *Service) Navigate(w Wizard, form FormData, move string) (Wizard, error) {
	if !w.CurrentStep.Valid() {
		return w, &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "currentStep is not a wizard step",
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"fields": []string{"currentStep"}},
		}
	}
	switch move {
	case "continue":
		return w.Continue(form), nil
	case "back":
		return w.Back(), nil
	}
	return w, &common.AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "move must be continue or back",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"fields": []string{"move"}},
	}
}

// Generate validates every step, prices the proposal and requests the document.
// Failures are returned as-is; nothing is retried.
func (s *Service) Generate(ctx context.Context, form FormData) (GenerateResult, error) {
	ctx, span := otel.Tracer("proposal.Service").Start(ctx, "ProposalService.Generate")
	defer span.End()

	result := "error"
	defer func() {
		span.SetAttributes(attribute.String("proposal.generate.result", result))
		if obs.ProposalsGeneratedTotal != nil {
			obs.ProposalsGeneratedTotal.WithLabelValues(result).Inc()
		}
	}()

	form = form.Normalize()
	if fields, messages := validateAll(form); len(fields) > 0 {
		result = "invalid"
		return GenerateResult{}, common.ValidationError(fields, messages)
	}
	summary, err := s.Summarize(ctx, form)
	if err != nil {
		return GenerateResult{}, err
	}

	req := document.Request{ProposalName: form.Business.BusinessName}
	if req.Form, err = mapping.Generic(form); err != nil {
		return GenerateResult{}, internalError(err)
	}
	if req.Summary, err = mapping.Generic(summary); err != nil {
		return GenerateResult{}, internalError(err)
	}
	if s.mappings != nil {
		table, err := s.mappings.Table(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("variable mappings unavailable, generating with slide defaults")
		} else {
			req.Mappings = table
		}
	}

	handle, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("business", form.Business.BusinessName).Msg("proposal generation failed")
		if errors.Is(err, document.ErrGeneratorUnavailable) {
			return GenerateResult{}, &common.AppError{
				Code:       "GENERATOR_UNAVAILABLE",
				Message:    "document service is temporarily unavailable",
				HTTPStatus: http.StatusServiceUnavailable,
				Err:        err,
			}
		}
		return GenerateResult{}, &common.AppError{
			Code:       "GENERATION_FAILED",
			Message:    "proposal document could not be generated",
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		}
	}
	result = "success"
	span.SetAttributes(attribute.String("proposal.document_id", handle.ID))
	s.logger.Info().
		Str("document_id", handle.ID).
		Str("business", form.Business.BusinessName).
		Str("account_exec", form.Business.AccountExec).
		Msg("proposal generated")
	return GenerateResult{Document: handle, URL: handle.URL, Summary: summary}, nil
}

func actionError(err error) error {
	switch {
	case errors.Is(err, ErrDiscountLocked):
		return &common.AppError{Code: "DISCOUNT_LOCKED", Message: err.Error(), HTTPStatus: http.StatusConflict, Err: err}
	case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrUnknownField), errors.Is(err, ErrProtectedField),
		errors.Is(err, ErrInvalidValue), errors.Is(err, ErrUnknownLine), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPercent):
		return &common.AppError{Code: "INVALID_ACTION", Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	}
	return internalError(err)
}

func internalError(err error) error {
	return &common.AppError{Code: "INTERNAL", Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
