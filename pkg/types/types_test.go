package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTripThroughJSONB(t *testing.T) {
	line2 := "Apt 4"
	addr := Address{FullName: " Jane Doe ", Line1: "1 Main St", Line2: &line2, City: "Austin", State: "TX", PostalCode: "78701"}.Normalize()
	assert.Equal(t, "US", addr.Country)
	assert.Equal(t, "Jane Doe", addr.FullName)

	value, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan([]byte(value.(string))))
	assert.Equal(t, addr, scanned)
}

func TestAddressZeroValueIsNull(t *testing.T) {
	value, err := Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	var scanned Address
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
}

func TestItemSnapshotScanRejectsUnknownType(t *testing.T) {
	var snap ItemSnapshot
	assert.Error(t, snap.Scan(42))
	require.NoError(t, snap.Scan(`{"product_name":"Case","variant_name":"Black"}`))
	assert.Equal(t, "Case", snap.ProductName)
	assert.Equal(t, "Black", snap.VariantName)
}
