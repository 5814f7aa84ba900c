package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDimensionConventions(t *testing.T) {
	require.Equal(t, BoundaryBoth, DimensionStoreConnections.Boundary())
	require.Equal(t, BoundaryUpperOnly, DimensionSPSRetailers.Boundary())
	require.Equal(t, BoundaryUpperOnly, DimensionPickToLight.Boundary())
	require.Equal(t, Quarterly, DimensionSPSRetailers.Period())
	require.Equal(t, Monthly, DimensionPackToLight.Period())
	require.True(t, DimensionSaaS.Progressive())
	require.False(t, DimensionStoreConnections.Progressive())

	d, err := ParseDimension(" SPS_Retailers ")
	require.NoError(t, err)
	require.Equal(t, DimensionSPSRetailers, d)
	_, err = ParseDimension("widgets")
	require.Error(t, err)
}
