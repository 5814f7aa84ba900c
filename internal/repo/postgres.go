package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

// ErrStoreUnavailable indicates the pool was not configured.
var ErrStoreUnavailable = errors.New("repo: store unavailable")

// Postgres implements Querier against the pre-existing relational schema.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a Querier backed by a pgx connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Querier = (*Postgres)(nil)

func (p *Postgres) ready() error {
	if p == nil || p.pool == nil {
		return ErrStoreUnavailable
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ListPricingTiers returns the tier table for dimension in its stored order.
func (p *Postgres) ListPricingTiers(ctx context.Context, dimension pricing.Dimension) ([]pricing.Tier, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `SELECT id::text, name, from_qty, to_qty, price_per_unit::text
FROM pricing_tiers WHERE dimension = $1 ORDER BY sort_order, from_qty`, string(dimension))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]pricing.Tier, 0, 8)
	for rows.Next() {
		var (
			tier  pricing.Tier
			toQty *int64
			price string
		)
		if err := rows.Scan(&tier.ID, &tier.Name, &tier.FromQty, &toQty, &price); err != nil {
			return nil, err
		}
		tier.ToQty = toQty
		tier.PricePerUnit, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("pricing tier %s: %w", tier.ID, err)
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

// ReplacePricingTiers swaps the whole table for dimension inside one transaction.
func (p *Postgres) ReplacePricingTiers(ctx context.Context, dimension pricing.Dimension, tiers []pricing.Tier) ([]pricing.Tier, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	stored := make([]pricing.Tier, len(tiers))
	copy(stored, tiers)
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM pricing_tiers WHERE dimension = $1`, string(dimension)); err != nil {
			return err
		}
		for i := range stored {
			if strings.TrimSpace(stored[i].ID) == "" {
				stored[i].ID = uuid.NewString()
			}
			_, err := tx.Exec(ctx, `INSERT INTO pricing_tiers (id, dimension, name, from_qty, to_qty, price_per_unit, sort_order)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
				stored[i].ID, string(dimension), stored[i].Name, stored[i].FromQty, stored[i].ToQty, stored[i].PricePerUnit.String(), i)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ListExecutives returns every account executive ordered by name.
func (p *Postgres) ListExecutives(ctx context.Context) ([]Executive, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `SELECT id::text, name, role, COALESCE(email, '') FROM executives ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Executive, 0, 16)
	for rows.Next() {
		var e Executive
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &e.Email); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetExecutiveByName looks an executive up by exact name.
func (p *Postgres) GetExecutiveByName(ctx context.Context, name string) (Executive, error) {
	if err := p.ready(); err != nil {
		return Executive{}, err
	}
	var e Executive
	err := p.pool.QueryRow(ctx, `SELECT id::text, name, role, COALESCE(email, '') FROM executives WHERE name = $1 LIMIT 1`, name).
		Scan(&e.ID, &e.Name, &e.Role, &e.Email)
	if err != nil {
		return Executive{}, notFound(err)
	}
	return e, nil
}

// ListImplementationPackages returns the packages in display order.
func (p *Postgres) ListImplementationPackages(ctx context.Context) ([]ImplementationPackage, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `SELECT id::text, name, COALESCE(description, ''), price::text
FROM implementation_packages ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ImplementationPackage, 0, 8)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
	return out, rows.Err()
}

// GetImplementationPackage fetches one package by id.
func (p *Postgres) GetImplementationPackage(ctx context.Context, id string) (ImplementationPackage, error) {
	if err := p.ready(); err != nil {
		return ImplementationPackage{}, err
	}
	row := p.pool.QueryRow(ctx, `SELECT id::text, name, COALESCE(description, ''), price::text
FROM implementation_packages WHERE id::text = $1`, id)
	pkg, err := scanPackage(row)
	if err != nil {
		return ImplementationPackage{}, notFound(err)
	}
	return pkg, nil
}

func scanPackage(row pgx.Row) (ImplementationPackage, error) {
	var (
		pkg   ImplementationPackage
		price string
	)
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &price); err != nil {
		return ImplementationPackage{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return ImplementationPackage{}, fmt.Errorf("implementation package %s: %w", pkg.ID, err)
	}
	pkg.Price = parsed
	return pkg, nil
}

// ListCodeElements returns the picklist for category.
func (p *Postgres) ListCodeElements(ctx context.Context, category string) ([]CodeElement, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `SELECT id::text, category, code, label FROM code_elements WHERE category = $1 ORDER BY label`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CodeElement, 0, 16)
	for rows.Next() {
		var c CodeElement
		if err := rows.Scan(&c.ID, &c.Category, &c.Code, &c.Label); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListOpportunitiesByOwner returns the opportunities owned by an executive.
func (p *Postgres) ListOpportunitiesByOwner(ctx context.Context, owner string) ([]Opportunity, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `SELECT id::text, name, owner, account_name, COALESCE(account_type, ''), COALESCE(stage, '')
FROM opportunities WHERE owner = $1 ORDER BY name`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Opportunity, 0, 16)
	for rows.Next() {
		var o Opportunity
		if err := rows.Scan(&o.ID, &o.Name, &o.Owner, &o.AccountName, &o.AccountType, &o.Stage); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetAccountTypeByOpportunity returns the account type recorded on an opportunity.
func (p *Postgres) GetAccountTypeByOpportunity(ctx context.Context, opportunityID string) (string, error) {
	if err := p.ready(); err != nil {
		return "", err
	}
	var accountType *string
	err := p.pool.QueryRow(ctx, `SELECT account_type FROM opportunities WHERE id::text = $1`, opportunityID).Scan(&accountType)
	if err != nil {
		return "", notFound(err)
	}
	if accountType == nil || *accountType == "" {
		return "", ErrNotFound
	}
	return *accountType, nil
}

// ListVariableMappings returns every stored mapping ordered by variable name.
func (p *Postgres) ListVariableMappings(ctx context.Context) ([]VariableMapping, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, `SELECT variable_name, field_path, COALESCE(description, ''), updated_at
FROM variable_mappings ORDER BY variable_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]VariableMapping, 0, 32)
	for rows.Next() {
		var m VariableMapping
		if err := rows.Scan(&m.VariableName, &m.FieldPath, &m.Description, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertVariableMapping inserts or updates the mapping keyed by variable name.
func (p *Postgres) UpsertVariableMapping(ctx context.Context, mapping VariableMapping) (VariableMapping, error) {
	if err := p.ready(); err != nil {
		return VariableMapping{}, err
	}
	var out VariableMapping
	err := p.pool.QueryRow(ctx, `INSERT INTO variable_mappings (variable_name, field_path, description, updated_at)
VALUES ($1, $2, NULLIF($3, ''), now())
ON CONFLICT (variable_name) DO UPDATE SET field_path = EXCLUDED.field_path, description = EXCLUDED.description, updated_at = now()
RETURNING variable_name, field_path, COALESCE(description, ''), updated_at`,
		mapping.VariableName, mapping.FieldPath, mapping.Description).
		Scan(&out.VariableName, &out.FieldPath, &out.Description, &out.UpdatedAt)
	if err != nil {
		return VariableMapping{}, err
	}
	return out, nil
}
