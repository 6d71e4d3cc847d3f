package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportQueryDateRange(t *testing.T) {
	q := ReportQuery{StartDate: "2026-01-01", EndDate: "2026-01-31"}

	rng, err := q.DateRange()
	require.NoError(t, err)

	require.NotNil(t, rng.From)
	require.NotNil(t, rng.To)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *rng.From)
	// End date is inclusive: the range extends to the end of that day.
	assert.True(t, rng.To.After(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
}

func TestReportQueryOpenRange(t *testing.T) {
	rng, err := (&ReportQuery{}).DateRange()
	require.NoError(t, err)
	assert.Nil(t, rng.From)
	assert.Nil(t, rng.To)
}

func TestReportQueryBadDate(t *testing.T) {
	_, err := (&ReportQuery{StartDate: "31-01-2026"}).DateRange()
	assert.Error(t, err)
}

func TestReportQueryInvertedRange(t *testing.T) {
	q := ReportQuery{StartDate: "2026-02-01", EndDate: "2026-01-01"}
	_, err := q.DateRange()
	assert.Error(t, err)
}

func TestReportQueryFormat(t *testing.T) {
	assert.True(t, (&ReportQuery{Format: "xlsx"}).WantsXLSX())
	assert.False(t, (&ReportQuery{Format: "json"}).WantsXLSX())
	assert.False(t, (&ReportQuery{}).WantsXLSX())
}
