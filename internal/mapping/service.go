package mapping

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/proposalhero/internal/common"
	"github.com/noah-isme/proposalhero/internal/obs"
	"github.com/noah-isme/proposalhero/internal/repo"
)

type queryProvider interface {
	ListVariableMappings(ctx context.Context) ([]repo.VariableMapping, error)
	UpsertVariableMapping(ctx context.Context, mapping repo.VariableMapping) (repo.VariableMapping, error)
}

// Service manages variable mappings and resolves webhook templates against them.
type Service struct {
	queries queryProvider
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Logger  zerolog.Logger
}

// ResolveResult is the outcome of a webhook resolution.
type ResolveResult struct {
	Result     any      `json:"result"`
	Unresolved []string `json:"unresolved"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("mapping: queries provider is required")
	}
	return &Service{queries: cfg.Queries, logger: cfg.Logger}, nil
}

// List returns every stored mapping.
func (s *Service) List(ctx context.Context) ([]repo.VariableMapping, error) {
	rows, err := s.queries.ListVariableMappings(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return rows, nil
}

// Upsert inserts or updates a mapping keyed by its variable name.
func (s *Service) Upsert(ctx context.Context, mapping repo.VariableMapping) (repo.VariableMapping, error) {
	mapping.VariableName = strings.TrimSpace(mapping.VariableName)
	mapping.FieldPath = strings.TrimSpace(mapping.FieldPath)
	if err := common.Validator().Struct(mapping); err != nil {
		return repo.VariableMapping{}, common.ValidationError(common.FieldErrors(err))
	}
	if !variableNamePattern.MatchString(mapping.VariableName) {
		return repo.VariableMapping{}, common.ValidationError([]string{"variableName"}, map[string]string{
			"variableName": "may contain letters, digits, '_', '-' and '.'",
		})
	}
	stored, err := s.queries.UpsertVariableMapping(ctx, mapping)
	if err != nil {
		return repo.VariableMapping{}, internal(err)
	}
	s.logger.Info().Str("variable", stored.VariableName).Str("field_path", stored.FieldPath).Msg("variable mapping saved")
	return stored, nil
}

// Table returns the mappings as variable name to field path.
func (s *Service) Table(ctx context.Context) (map[string]string, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string, len(rows))
	for _, row := range rows {
		table[row.VariableName] = row.FieldPath
	}
	return table, nil
}

// ResolveWebhook substitutes placeholders in template using values from data.
func (s *Service) ResolveWebhook(ctx context.Context, template, data any) (ResolveResult, error) {
	ctx, span := otel.Tracer("mapping.Service").Start(ctx, "MappingService.ResolveWebhook")
	defer span.End()

	outcome := "error"
	defer func() {
		span.SetAttributes(attribute.String("webhook.result", outcome))
		if obs.WebhookResolutionsTotal != nil {
			obs.WebhookResolutionsTotal.WithLabelValues(outcome).Inc()
		}
	}()

	table, err := s.Table(ctx)
	if err != nil {
		return ResolveResult{}, err
	}
	result, unresolved := Resolve(template, table, data)
	outcome = "resolved"
	if len(unresolved) > 0 {
		outcome = "partial"
		s.logger.Warn().Strs("unresolved", unresolved).Msg("webhook placeholders unresolved")
	}
	span.SetAttributes(attribute.Int("webhook.unresolved", len(unresolved)))
	return ResolveResult{Result: result, Unresolved: unresolved}, nil
}

func internal(err error) error {
	return &common.AppError{Code: "INTERNAL", Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
