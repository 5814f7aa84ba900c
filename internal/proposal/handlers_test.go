package proposal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proposalhero/internal/document"
	"github.com/noah-isme/proposalhero/internal/mapping"
	"github.com/noah-isme/proposalhero/internal/pricing"
	"github.com/noah-isme/proposalhero/internal/proposal"
	"github.com/noah-isme/proposalhero/internal/repo"
	"github.com/noah-isme/proposalhero/internal/resilience"
)

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func bound(v int64) *int64 { return &v }

func newProposalHandler(t *testing.T) *proposal.Handler {
	t.Helper()
	return newProposalHandlerWith(t, &document.Stub{BaseURL: "https://docs.example.com/proposals", Logger: zerolog.Nop()})
}

func newProposalHandlerWith(t *testing.T, generator document.Generator) *proposal.Handler {
	t.Helper()
	store := repo.NewMemory()
	store.SetTiers(pricing.DimensionSaaS, []pricing.Tier{
		{ID: "saas-0", FromQty: 0, ToQty: bound(1000), PricePerUnit: decimal.NewFromInt(500)},
		{ID: "saas-1", FromQty: 1000, ToQty: bound(5000), PricePerUnit: decimal.RequireFromString("0.10")},
		{ID: "saas-2", FromQty: 5000, PricePerUnit: decimal.RequireFromString("0.05")},
	})
	store.SetTiers(pricing.DimensionStoreConnections, []pricing.Tier{
		{ID: "sc-0", FromQty: 0, ToQty: bound(5), PricePerUnit: decimal.Zero},
		{ID: "sc-1", FromQty: 6, ToQty: bound(50), PricePerUnit: decimal.NewFromInt(30)},
		{ID: "sc-2", FromQty: 51, ToQty: bound(100), PricePerUnit: decimal.NewFromInt(25)},
		{ID: "sc-3", FromQty: 101, PricePerUnit: decimal.NewFromInt(20)},
	})
	store.AddPackages(repo.ImplementationPackage{ID: "pkg-standard", Name: "Standard Onboarding", Price: decimal.NewFromInt(7500)})

	mappings, err := mapping.NewService(mapping.ServiceConfig{Queries: store, Logger: zerolog.Nop()})
	require.NoError(t, err)
	svc, err := proposal.NewService(proposal.ServiceConfig{
		Queries:   store,
		Mappings:  mappings,
		Generator: generator,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return proposal.NewHandler(proposal.HandlerConfig{Service: svc})
}

func validForm() proposal.FormData {
	form := proposal.NewFormData()
	form.Business = proposal.BusinessInfo{AccountExec: "Ana Ruiz", Opportunity: "op-100", BusinessName: "Acme Fulfilment"}
	form.SaaS = proposal.SaaSInputs{MonthlyCases: 500}
	form.Integrations = proposal.Integrations{StoreConnectionsEnabled: true, StoreConnections: 60}
	form.Implementation = proposal.Implementation{PackageID: "pkg-standard", PackageName: "Standard Onboarding"}
	return form
}

func post(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSummaryEndpoint(t *testing.T) {
	handler := newProposalHandler(t)
	rec := post(t, handler.Summary, "/api/v1/proposals/summary", map[string]any{"form": validForm()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data proposal.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, decimal.NewFromInt(20150).Equal(resp.Data.RecurringAnnual), resp.Data.RecurringAnnual.String())
	require.True(t, decimal.NewFromInt(7500).Equal(resp.Data.OneTimeTotal), resp.Data.OneTimeTotal.String())
	require.Equal(t, pricing.Annual, resp.Data.BillingPeriod)
}

func TestSummaryEndpointRejectsUnknownPackage(t *testing.T) {
	handler := newProposalHandler(t)
	form := validForm()
	form.Implementation.PackageID = "pkg-missing"

	rec := post(t, handler.Summary, "/api/v1/proposals/summary", map[string]any{"form": form})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestReduceEndpointLocksDiscountOnOverride(t *testing.T) {
	handler := newProposalHandler(t)

	rec := post(t, handler.Reduce, "/api/v1/proposals/reduce", map[string]any{
		"form":   validForm(),
		"action": proposal.SetOverride(proposal.LineStoreConnections, decimal.NewFromInt(12000)),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Form proposal.FormData `json:"form"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Data.Form.Discount.Lines[proposal.LineStoreConnections])

	rec = post(t, handler.Reduce, "/api/v1/proposals/reduce", map[string]any{
		"form":   resp.Data.Form,
		"action": proposal.SetDiscountLine(proposal.LineStoreConnections, true),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "DISCOUNT_LOCKED", errResp.Error.Code)

	rec = post(t, handler.Reduce, "/api/v1/proposals/reduce", map[string]any{
		"form":   resp.Data.Form,
		"action": map[string]any{"type": "explode"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWizardEndpoint(t *testing.T) {
	handler := newProposalHandler(t)

	rec := post(t, handler.Wizard, "/api/v1/proposals/wizard", map[string]any{
		"wizard": proposal.NewWizard(),
		"form":   proposal.NewFormData(),
		"move":   "continue",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Wizard      proposal.Wizard `json:"wizard"`
			Step        string          `json:"step"`
			CanGenerate bool            `json:"canGenerate"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, proposal.StepBusinessInfo, resp.Data.Wizard.CurrentStep)
	require.Equal(t, "accountExec", resp.Data.Wizard.InvalidFields[0])
	require.Equal(t, "Business Info", resp.Data.Step)
	require.False(t, resp.Data.CanGenerate)

	rec = post(t, handler.Wizard, "/api/v1/proposals/wizard", map[string]any{
		"wizard": proposal.Wizard{CurrentStep: proposal.StepImplementation},
		"form":   validForm(),
		"move":   "continue",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, proposal.StepReview, resp.Data.Wizard.CurrentStep)
	require.True(t, resp.Data.CanGenerate)

	rec = post(t, handler.Wizard, "/api/v1/proposals/wizard", map[string]any{"move": "jump"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWizardEndpointRejectsUnknownStep(t *testing.T) {
	handler := newProposalHandler(t)

	for _, step := range []proposal.Step{-1, proposal.StepReview + 1} {
		rec := post(t, handler.Wizard, "/api/v1/proposals/wizard", map[string]any{
			"wizard": proposal.Wizard{CurrentStep: step},
			"form":   validForm(),
			"move":   "continue",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var errResp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		require.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
		require.Equal(t, []any{"currentStep"}, errResp.Error.Details["fields"])
	}
}

func TestSummaryEndpointRejectsOutOfRangeQuantities(t *testing.T) {
	handler := newProposalHandler(t)
	form := validForm()
	form.Integrations.StoreConnections = math.MaxInt64
	form.SaaS.MonthlyEaches = math.MaxInt64 / 6

	body, err := json.Marshal(map[string]any{"form": form})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals/summary", bytes.NewReader(body))
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		handler.Summary(rec, req)
		done <- rec
	}()

	select {
	case rec := <-done:
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var errResp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		require.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
		require.Equal(t, []any{"monthlyEaches", "storeConnections"}, errResp.Error.Details["fields"])
	case <-time.After(2 * time.Second):
		t.Fatal("summary did not answer for an oversized quantity")
	}
}

func TestGenerateEndpoint(t *testing.T) {
	handler := newProposalHandler(t)

	rec := post(t, handler.Generate, "/api/v1/proposals/generate", map[string]any{"form": proposal.NewFormData()})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
	require.Equal(t, []any{"accountExec", "opportunity", "businessName", "packageId"}, errResp.Error.Details["fields"])

	rec = post(t, handler.Generate, "/api/v1/proposals/generate", map[string]any{"form": validForm()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			URL      string          `json:"url"`
			Document document.Handle `json:"document"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.Data.URL, "https://docs.example.com/proposals/"))
	require.Equal(t, resp.Data.Document.URL, resp.Data.URL)
}

type brokenGenerator struct{ calls int }

func (g *brokenGenerator) Generate(context.Context, document.Request) (document.Handle, error) {
	g.calls++
	return document.Handle{}, errors.New("upstream timeout")
}

func TestGenerateEndpointSurfacesGeneratorFailures(t *testing.T) {
	broken := &brokenGenerator{}
	handler := newProposalHandlerWith(t, document.Guarded{
		Next:    broken,
		Breaker: resilience.NewBreaker(1, 0.5, time.Minute),
	})

	rec := post(t, handler.Generate, "/api/v1/proposals/generate", map[string]any{"form": validForm()})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "GENERATION_FAILED", errResp.Error.Code)
	require.NotContains(t, rec.Body.String(), "upstream timeout")

	rec = post(t, handler.Generate, "/api/v1/proposals/generate", map[string]any{"form": validForm()})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "GENERATOR_UNAVAILABLE", errResp.Error.Code)
	require.Equal(t, 1, broken.calls)
}

func TestProposalEndpointsRejectUnknownFields(t *testing.T) {
	handler := newProposalHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals/summary", strings.NewReader(`{"form":{},"extra":1}`))
	rec := httptest.NewRecorder()
	handler.Summary(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
