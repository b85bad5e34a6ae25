package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageMeta_FilteredTotals(t *testing.T) {
	t.Parallel()

	// 15 filtered records paged at 10: page 2 holds the remaining 5.
	meta := NewPageMeta(15, 2, 10)

	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 10, meta.Limit)
	assert.Equal(t, int64(15), meta.TotalRecords)
	assert.Equal(t, 2, meta.TotalPages)
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestListFilter_Validate(t *testing.T) {
	t.Parallel()

	f := ListFilter{Month: 2, Year: 2026}
	require.NoError(t, f.Validate())
	assert.Equal(t, 1, f.Page, "page defaults to 1")
	assert.Equal(t, 20, f.Limit, "limit defaults to 20")

	bad := ListFilter{Month: 13, Year: 2026}
	assert.Error(t, bad.Validate())

	tooBig := ListFilter{Month: 2, Year: 2026, Limit: 500}
	assert.Error(t, tooBig.Validate())
}

func TestWeeklyFilter_Validate(t *testing.T) {
	t.Parallel()

	ok := "2026-03-08"
	f := WeeklyFilter{From: "2026-03-02", To: &ok}
	require.NoError(t, f.Validate())

	short := "2026-03-05"
	bad := WeeklyFilter{From: "2026-03-02", To: &short}
	assert.Error(t, bad.Validate(), "a weekly window must span exactly 7 days")

	malformed := WeeklyFilter{From: "03/02/2026"}
	assert.Error(t, malformed.Validate())
}

func TestActivityLogFilter_Validate(t *testing.T) {
	t.Parallel()

	f := ActivityLogFilter{From: "2026-03-01", To: "2026-03-07"}
	require.NoError(t, f.Validate())
	assert.Equal(t, 10, f.Limit, "audit views page at 10")

	bad := ActivityLogFilter{From: "yesterday", To: "2026-03-07"}
	assert.Error(t, bad.Validate())
}
