package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0", 0, false},
		{"100", 1_000_000, false},
		{"12.5", 125_000, false},
		{"0.0001", 1, false},
		{"-3.25", -32_500, false},
		{"0.00001", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		q, err := NewQuantityFromString(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, q.Int64Scaled(), tt.in)
	}
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "100.0000", NewQuantityFromInt64Scaled(1_000_000).String())
	assert.Equal(t, "0.0001", NewQuantityFromInt64Scaled(1).String())
	assert.Equal(t, "-12.5000", NewQuantityFromInt64Scaled(-125_000).String())
	assert.Equal(t, "0.0000", Quantity(0).String())
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	type payload struct {
		Qty Quantity `json:"qty"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"qty": 12.5}`), &p))
	assert.Equal(t, int64(125_000), p.Qty.Int64Scaled())

	require.NoError(t, json.Unmarshal([]byte(`{"qty": "7.0025"}`), &p))
	assert.Equal(t, int64(70_025), p.Qty.Int64Scaled())

	out, err := json.Marshal(payload{Qty: NewQuantityFromInt64Scaled(70_025)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty": 7.0025}`, string(out))

	err = json.Unmarshal([]byte(`{"qty": 1.00001}`), &p)
	assert.Error(t, err)
}

func TestQuantityDecimalBridge(t *testing.T) {
	d := decimal.RequireFromString("41.3300")
	q, err := NewQuantityFromDecimal(d)
	require.NoError(t, err)
	assert.True(t, q.Decimal().Equal(d))
}
