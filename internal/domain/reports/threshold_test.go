package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelstock/internal/core/types"
)

func q(v int64) types.Quantity {
	return types.NewQuantityFromInt64Scaled(v * types.QuantityScale)
}

func TestClassifierDefaults(t *testing.T) {
	c, err := NewClassifier("", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		quantity int64
		opening  int64
		want     Level
	}{
		{"well stocked", 90, 100, LevelNormal},
		{"at half", 50, 100, LevelNormal},
		{"below half", 49, 100, LevelLow},
		{"at fifth", 20, 100, LevelLow},
		{"below fifth", 19, 100, LevelCritical},
		{"empty", 0, 100, LevelCritical},
		{"zero opening never flagged", 0, 0, LevelNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(q(tt.quantity), q(tt.opening))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifierCustomRules(t *testing.T) {
	c, err := NewClassifier("quantity < 5.0", "quantity < 10.0")
	require.NoError(t, err)

	got, err := c.Classify(q(3), q(0))
	require.NoError(t, err)
	assert.Equal(t, LevelCritical, got)

	got, err = c.Classify(q(7), q(0))
	require.NoError(t, err)
	assert.Equal(t, LevelLow, got)

	got, err = c.Classify(q(50), q(0))
	require.NoError(t, err)
	assert.Equal(t, LevelNormal, got)
}

func TestClassifierRejectsNonBool(t *testing.T) {
	_, err := NewClassifier("quantity + opening", "")
	assert.Error(t, err)
}

func TestClassifierRejectsBadSyntax(t *testing.T) {
	_, err := NewClassifier("", "quantity <<")
	assert.Error(t, err)
}
