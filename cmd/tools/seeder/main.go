package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type tierRow struct {
	id    string
	name  string
	from  int64
	to    sql.NullInt64
	price string
}

func upTo(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }

var open = sql.NullInt64{}

// Reference tier tables. store_connections uses inclusive lower bounds, the other dimensions
// exclusive ones, matching pricing.Dimension.Boundary.
var tierTables = map[string][]tierRow{
	"saas": {
		{"saas-0", "Platform", 0, upTo(1000), "500"},
		{"saas-1", "Growth", 1000, upTo(5000), "0.10"},
		{"saas-2", "Scale", 5000, open, "0.05"},
	},
	"store_connections": {
		{"sc-0", "Included", 0, upTo(5), "0"},
		{"sc-1", "Standard", 6, upTo(50), "30"},
		{"sc-2", "Volume", 51, upTo(100), "25"},
		{"sc-3", "Enterprise", 101, open, "20"},
	},
	"sps_retailers": {
		{"sps-0", "First ten", 0, upTo(10), "50"},
		{"sps-1", "Additional", 10, open, "40"},
	},
	"pick_to_light": {
		{"ptl-0", "First five", 0, upTo(5), "100"},
		{"ptl-1", "Additional", 5, open, "80"},
	},
	"pack_to_light": {
		{"pkl-0", "First five", 0, upTo(5), "100"},
		{"pkl-1", "Additional", 5, open, "80"},
	},
}

const schema = `
CREATE TABLE IF NOT EXISTS executives (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL,
	email TEXT
);
CREATE TABLE IF NOT EXISTS pricing_tiers (
	id TEXT PRIMARY KEY,
	dimension TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	from_qty BIGINT NOT NULL,
	to_qty BIGINT,
	price_per_unit NUMERIC(12,4) NOT NULL,
	sort_order INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS pricing_tiers_dimension_idx ON pricing_tiers (dimension, sort_order);
CREATE TABLE IF NOT EXISTS implementation_packages (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	price NUMERIC(12,2) NOT NULL,
	sort_order INT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS code_elements (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	code TEXT NOT NULL,
	label TEXT NOT NULL,
	UNIQUE (category, code)
);
CREATE TABLE IF NOT EXISTS opportunities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	owner TEXT NOT NULL,
	account_name TEXT NOT NULL,
	account_type TEXT,
	stage TEXT
);
CREATE TABLE IF NOT EXISTS variable_mappings (
	variable_name TEXT PRIMARY KEY,
	field_path TEXT NOT NULL,
	description TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	seedExecutives(db)
	seedTiers(db)
	seedPackages(db)
	seedCodeElements(db)
	seedOpportunities(db)
	seedMappings(db)

	log.Println("Seeding completed successfully!")
}

func seedExecutives(db *sql.DB) {
	executives := []struct{ ID, Name, Role, Email string }{
		{"ae-1", "Ana Ruiz", "Account Executive", "ana.ruiz@example.com"},
		{"ae-2", "Marcus Lee", "Account Executive", "marcus.lee@example.com"},
		{"ae-3", "Priya Natarajan", "Senior Account Executive", "priya.n@example.com"},
		{"ae-4", "Tom Becker", "Sales Director", "tom.becker@example.com"},
	}
	log.Println("Seeding executives...")
	for _, e := range executives {
		_, err := db.Exec(`
			INSERT INTO executives (id, name, role, email) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, email = EXCLUDED.email`,
			e.ID, e.Name, e.Role, e.Email)
		if err != nil {
			log.Printf("Failed to seed executive %s: %v", e.Name, err)
		}
	}
}

func seedTiers(db *sql.DB) {
	log.Println("Seeding pricing tiers...")
	for dimension, rows := range tierTables {
		for i, t := range rows {
			_, err := db.Exec(`
				INSERT INTO pricing_tiers (id, dimension, name, from_qty, to_qty, price_per_unit, sort_order)
				VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, from_qty = EXCLUDED.from_qty,
					to_qty = EXCLUDED.to_qty, price_per_unit = EXCLUDED.price_per_unit, sort_order = EXCLUDED.sort_order`,
				t.id, dimension, t.name, t.from, t.to, t.price, i)
			if err != nil {
				log.Printf("Failed to seed tier %s/%s: %v", dimension, t.id, err)
			}
		}
	}
}

func seedPackages(db *sql.DB) {
	packages := []struct{ ID, Name, Description, Price string }{
		{"pkg-starter", "Starter Onboarding", "Remote setup and two training sessions", "2500"},
		{"pkg-standard", "Standard Onboarding", "Guided configuration, integrations and go-live support", "5000"},
		{"pkg-premium", "Premium Onboarding", "On-site launch with dedicated implementation manager", "12000"},
	}
	log.Println("Seeding implementation packages...")
	for i, p := range packages {
		_, err := db.Exec(`
			INSERT INTO implementation_packages (id, name, description, price, sort_order) VALUES ($1, $2, $3, $4::numeric, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
				price = EXCLUDED.price, sort_order = EXCLUDED.sort_order`,
			p.ID, p.Name, p.Description, p.Price, i)
		if err != nil {
			log.Printf("Failed to seed package %s: %v", p.ID, err)
		}
	}
}

func seedCodeElements(db *sql.DB) {
	elements := []struct{ Category, Code, Label string }{
		{"account_type", "ENT", "Enterprise"},
		{"account_type", "MM", "Mid-Market"},
		{"account_type", "SMB", "Small Business"},
		{"industry", "3PL", "Third-party logistics"},
		{"industry", "RTL", "Retail"},
		{"industry", "ECOM", "E-commerce"},
		{"industry", "MFG", "Manufacturing"},
		{"region", "NA", "North America"},
		{"region", "EMEA", "Europe, Middle East and Africa"},
		{"region", "APAC", "Asia Pacific"},
	}
	log.Println("Seeding code elements...")
	for _, e := range elements {
		_, err := db.Exec(`
			INSERT INTO code_elements (id, category, code, label) VALUES ($1, $2, $3, $4)
			ON CONFLICT (category, code) DO UPDATE SET label = EXCLUDED.label`,
			e.Category+":"+e.Code, e.Category, e.Code, e.Label)
		if err != nil {
			log.Printf("Failed to seed code element %s/%s: %v", e.Category, e.Code, err)
		}
	}
}

func seedOpportunities(db *sql.DB) {
	opportunities := []struct{ ID, Name, Owner, Account, AccountType, Stage string }{
		{"op-100", "Acme warehouse automation", "Ana Ruiz", "Acme Fulfilment", "Enterprise", "Proposal"},
		{"op-101", "Northwind store rollout", "Ana Ruiz", "Northwind Traders", "Mid-Market", "Discovery"},
		{"op-200", "Contoso EDI onboarding", "Marcus Lee", "Contoso Ltd", "Enterprise", "Negotiation"},
		{"op-300", "Fabrikam pilot", "Priya Natarajan", "Fabrikam Inc", "Small Business", "Qualification"},
	}
	log.Println("Seeding opportunities...")
	for _, o := range opportunities {
		_, err := db.Exec(`
			INSERT INTO opportunities (id, name, owner, account_name, account_type, stage) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, owner = EXCLUDED.owner, account_name = EXCLUDED.account_name,
				account_type = EXCLUDED.account_type, stage = EXCLUDED.stage`,
			o.ID, o.Name, o.Owner, o.Account, o.AccountType, o.Stage)
		if err != nil {
			log.Printf("Failed to seed opportunity %s: %v", o.ID, err)
		}
	}
}

func seedMappings(db *sql.DB) {
	mappings := []struct{ Name, Path, Description string }{
		{"business_name", "form.business.businessName", "Customer name on the cover slide"},
		{"account_exec", "form.business.accountExec", "Presenting account executive"},
		{"contract_term", "form.payment.contractTermMonths", "Contract length in months"},
		{"annual_total", "summary.recurringAnnual", "Recurring annual total"},
		{"first_invoice", "summary.firstInvoice", "Amount of the first invoice"},
	}
	log.Println("Seeding variable mappings...")
	for _, m := range mappings {
		_, err := db.Exec(`
			INSERT INTO variable_mappings (variable_name, field_path, description, updated_at) VALUES ($1, $2, $3, now())
			ON CONFLICT (variable_name) DO NOTHING`,
			m.Name, m.Path, m.Description)
		if err != nil {
			log.Printf("Failed to seed mapping %s: %v", m.Name, err)
		}
	}
}
