package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

// Memory is an in-process Querier for fixtures and local runs without a database.
type Memory struct {
	mu            sync.RWMutex
	tiers         map[pricing.Dimension][]pricing.Tier
	executives    []Executive
	packages      []ImplementationPackage
	codeElements  []CodeElement
	opportunities []Opportunity
	mappings      map[string]VariableMapping
	now           func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tiers:    map[pricing.Dimension][]pricing.Tier{},
		mappings: map[string]VariableMapping{},
		now:      time.Now,
	}
}

var _ Querier = (*Memory)(nil)

// SetTiers replaces a tier table without validation.
func (m *Memory) SetTiers(d pricing.Dimension, tiers []pricing.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[d] = append([]pricing.Tier(nil), tiers...)
}

// AddExecutives appends executives.
func (m *Memory) AddExecutives(execs ...Executive) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executives = append(m.executives, execs...)
}

// AddPackages appends implementation packages.
func (m *Memory) AddPackages(pkgs ...ImplementationPackage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages = append(m.packages, pkgs...)
}

// AddCodeElements appends picklist entries.
func (m *Memory) AddCodeElements(elems ...CodeElement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codeElements = append(m.codeElements, elems...)
}

// AddOpportunities appends opportunities.
func (m *Memory) AddOpportunities(opps ...Opportunity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opportunities = append(m.opportunities, opps...)
}

func (m *Memory) ListPricingTiers(_ context.Context, d pricing.Dimension) ([]pricing.Tier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]pricing.Tier{}, m.tiers[d]...), nil
}

func (m *Memory) ReplacePricingTiers(_ context.Context, d pricing.Dimension, tiers []pricing.Tier) ([]pricing.Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := append([]pricing.Tier{}, tiers...)
	for i := range stored {
		if stored[i].ID == "" {
			stored[i].ID = uuid.NewString()
		}
	}
	m.tiers[d] = stored
	return append([]pricing.Tier{}, stored...), nil
}

func (m *Memory) ListExecutives(context.Context) ([]Executive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Executive{}, m.executives...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetExecutiveByName(_ context.Context, name string) (Executive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.executives {
		if e.Name == name {
			return e, nil
		}
	}
	return Executive{}, ErrNotFound
}

func (m *Memory) ListImplementationPackages(context.Context) ([]ImplementationPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ImplementationPackage{}, m.packages...), nil
}

func (m *Memory) GetImplementationPackage(_ context.Context, id string) (ImplementationPackage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return ImplementationPackage{}, ErrNotFound
}

func (m *Memory) ListCodeElements(_ context.Context, category string) ([]CodeElement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CodeElement, 0)
	for _, c := range m.codeElements {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) ListOpportunitiesByOwner(_ context.Context, owner string) ([]Opportunity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Opportunity, 0)
	for _, o := range m.opportunities {
		if o.Owner == owner {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) GetAccountTypeByOpportunity(_ context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.opportunities {
		if o.ID == id && o.AccountType != "" {
			return o.AccountType, nil
		}
	}
	return "", ErrNotFound
}

func (m *Memory) ListVariableMappings(context.Context) ([]VariableMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]VariableMapping, 0, len(m.mappings))
	for _, v := range m.mappings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariableName < out[j].VariableName })
	return out, nil
}

func (m *Memory) UpsertVariableMapping(_ context.Context, mapping VariableMapping) (VariableMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping.UpdatedAt = m.now().UTC()
	m.mappings[mapping.VariableName] = mapping
	return mapping, nil
}
