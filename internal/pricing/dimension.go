package pricing

import (
	"fmt"
	"strings"
)

// Dimension names a tier table stored in the reference data.
type Dimension string

const (
	DimensionSaaS             Dimension = "saas"
	DimensionStoreConnections Dimension = "store_connections"
	DimensionSPSRetailers     Dimension = "sps_retailers"
	DimensionPickToLight      Dimension = "pick_to_light"
	DimensionPackToLight      Dimension = "pack_to_light"
)

// Dimensions lists every known tier table.
var Dimensions = []Dimension{
	DimensionSaaS,
	DimensionStoreConnections,
	DimensionSPSRetailers,
	DimensionPickToLight,
	DimensionPackToLight,
}

// ParseDimension validates a dimension name.
func ParseDimension(value string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("pricing: unknown dimension %q", value)
}

// Boundary is the fromQty convention the dimension's table was authored with.
// Store connection tables repeat no edge (0-5, 6-50); the others share edges with the previous tier.
func (d Dimension) Boundary() Boundary {
	if d == DimensionStoreConnections {
		return BoundaryBoth
	}
	return BoundaryUpperOnly
}

// Period is the billing cadence the table's prices are quoted in.
func (d Dimension) Period() Period {
	switch d {
	case DimensionSPSRetailers:
		return Quarterly
	case DimensionSaaS:
		return Annual
	default:
		return Monthly
	}
}

// Progressive reports whether the table is priced as brackets rather than per unit.
func (d Dimension) Progressive() bool { return d == DimensionSaaS }
