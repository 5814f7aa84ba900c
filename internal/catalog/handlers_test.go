package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proposalhero/internal/catalog"
	"github.com/noah-isme/proposalhero/internal/pricing"
	"github.com/noah-isme/proposalhero/internal/repo"
)

type tiersResponse struct {
	Data []pricing.Tier `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func bound(v int64) *int64 { return &v }

func withParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func newCatalog(t *testing.T) (*catalog.Handler, *repo.Memory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := repo.NewMemory()
	store.SetTiers(pricing.DimensionStoreConnections, []pricing.Tier{
		{ID: "sc-0", Name: "Included", FromQty: 0, ToQty: bound(5), PricePerUnit: decimal.Zero},
		{ID: "sc-1", Name: "Standard", FromQty: 6, PricePerUnit: decimal.NewFromInt(30)},
	})
	store.AddExecutives(repo.Executive{ID: "e1", Name: "Ana Ruiz", Role: "Account Executive"})
	store.AddPackages(repo.ImplementationPackage{ID: "pkg-standard", Name: "Standard", Price: decimal.NewFromInt(7500)})
	store.AddCodeElements(
		repo.CodeElement{ID: "c1", Category: "industry", Code: "3PL", Label: "Third-party logistics"},
		repo.CodeElement{ID: "c2", Category: "region", Code: "NA", Label: "North America"},
	)
	store.AddOpportunities(repo.Opportunity{ID: "op-1", Name: "Warehouse", Owner: "Ana Ruiz", AccountName: "Acme", AccountType: "Enterprise"})

	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries: store,
		Cache:   catalog.NewCache(client, time.Minute),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc}), store, mr
}

func TestPricingTiersAreCached(t *testing.T) {
	handler, store, mr := newCatalog(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing-tiers?dimension=store_connections", nil)
	rec := httptest.NewRecorder()
	handler.PricingTiers(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp tiersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.True(t, mr.Exists("ref:tiers:store_connections"))

	store.SetTiers(pricing.DimensionStoreConnections, nil)
	rec = httptest.NewRecorder()
	handler.PricingTiers(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2, "served from cache")

	mr.FastForward(2 * time.Minute)
	rec = httptest.NewRecorder()
	handler.PricingTiers(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Data)
}

func TestPricingTiersRejectsUnknownDimension(t *testing.T) {
	handler, _, _ := newCatalog(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing-tiers?dimension=widgets", nil)
	rec := httptest.NewRecorder()
	handler.PricingTiers(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplacePricingTiersValidatesAndEvicts(t *testing.T) {
	handler, _, mr := newCatalog(t)

	get := httptest.NewRequest(http.MethodGet, "/api/v1/pricing-tiers?dimension=store_connections", nil)
	handler.PricingTiers(httptest.NewRecorder(), get)
	require.True(t, mr.Exists("ref:tiers:store_connections"))

	gap := `{"tiers":[{"name":"a","fromQty":0,"toQty":5,"pricePerUnit":"0"},{"name":"b","fromQty":8,"toQty":null,"pricePerUnit":"30"}]}`
	req := withParam(httptest.NewRequest(http.MethodPut, "/api/v1/pricing-tiers/store_connections", strings.NewReader(gap)), "dimension", "store_connections")
	rec := httptest.NewRecorder()
	handler.ReplacePricingTiers(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "INVALID_TIERS", errResp.Error.Code)
	require.Equal(t, float64(1), errResp.Error.Details["index"])
	require.Equal(t, pricing.ErrTierGap.Error(), errResp.Error.Details["reason"])
	require.True(t, mr.Exists("ref:tiers:store_connections"))

	valid := `{"tiers":[{"name":"a","fromQty":0,"toQty":10,"pricePerUnit":"0"},{"name":"b","fromQty":11,"toQty":null,"pricePerUnit":"12.5"}]}`
	req = withParam(httptest.NewRequest(http.MethodPut, "/api/v1/pricing-tiers/store_connections", strings.NewReader(valid)), "dimension", "store_connections")
	rec = httptest.NewRecorder()
	handler.ReplacePricingTiers(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.False(t, mr.Exists("ref:tiers:store_connections"))

	rec = httptest.NewRecorder()
	handler.PricingTiers(rec, get)
	var resp tiersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.NotEmpty(t, resp.Data[0].ID)
	require.True(t, decimal.RequireFromString("12.5").Equal(resp.Data[1].PricePerUnit))
}

func TestExecutiveLookups(t *testing.T) {
	handler, _, _ := newCatalog(t)

	rec := httptest.NewRecorder()
	handler.Executives(rec, httptest.NewRequest(http.MethodGet, "/api/v1/executives", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"name":"Ana Ruiz"`)

	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/executives/Ana%20Ruiz", nil), "name", "Ana Ruiz")
	rec = httptest.NewRecorder()
	handler.Executive(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"Account Executive"`)

	req = withParam(httptest.NewRequest(http.MethodGet, "/api/v1/executives/Nobody", nil), "name", "Nobody")
	rec = httptest.NewRecorder()
	handler.Executive(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestOpportunityLookups(t *testing.T) {
	handler, _, _ := newCatalog(t)

	rec := httptest.NewRecorder()
	handler.Opportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities?owner=Ana%20Ruiz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"accountName":"Acme"`)

	rec = httptest.NewRecorder()
	handler.Opportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/op-1/account-type", nil), "id", "op-1")
	rec = httptest.NewRecorder()
	handler.AccountType(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"accountType":"Enterprise"`)

	req = withParam(httptest.NewRequest(http.MethodGet, "/api/v1/opportunities/op-9/account-type", nil), "id", "op-9")
	rec = httptest.NewRecorder()
	handler.AccountType(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestCodeElementsAndPackages(t *testing.T) {
	handler, _, mr := newCatalog(t)

	rec := httptest.NewRecorder()
	handler.CodeElements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/code-elements?category=industry", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"3PL"`)
	require.NotContains(t, rec.Body.String(), `"code":"NA"`)
	require.True(t, mr.Exists("ref:code-elements:industry"))

	rec = httptest.NewRecorder()
	handler.CodeElements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/code-elements", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ImplementationPackages(rec, httptest.NewRequest(http.MethodGet, "/api/v1/implementation-packages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"price":"7500"`)
}

func TestServiceWithoutCache(t *testing.T) {
	store := repo.NewMemory()
	store.AddPackages(repo.ImplementationPackage{ID: "p1", Price: decimal.NewFromInt(10)})
	svc, err := catalog.NewService(catalog.ServiceConfig{Queries: store})
	require.NoError(t, err)

	pkg, err := svc.GetImplementationPackage(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(10).Equal(pkg.Price))

	_, err = svc.GetImplementationPackage(context.Background(), "p2")
	require.ErrorIs(t, err, repo.ErrNotFound)

	_, err = catalog.NewService(catalog.ServiceConfig{})
	require.Error(t, err)
}
