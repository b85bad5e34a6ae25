package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = mustLoadLocation("Asia/Jakarta")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestReconcile_NoPunches(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	rec, err := Reconcile("emp-1", day, time.UTC, nil)
	require.NoError(t, err)

	assert.Equal(t, "emp-1", rec.EmployeeID)
	assert.Equal(t, day, rec.Date)
	assert.Nil(t, rec.FirstIn)
	assert.Nil(t, rec.LastOut)
	assert.Equal(t, 0, rec.WorkedMinutes)
}

func TestReconcile_SinglePunch_OpenSession(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	punch := time.Date(2026, time.March, 2, 8, 30, 0, 0, time.UTC)

	rec, err := Reconcile("emp-1", day, time.UTC, []time.Time{punch})
	require.NoError(t, err)

	require.NotNil(t, rec.FirstIn)
	assert.Equal(t, punch, *rec.FirstIn)
	assert.Nil(t, rec.LastOut)
	assert.Equal(t, 0, rec.WorkedMinutes)
	assert.True(t, rec.Open())
}

func TestReconcile_MinMaxOverUnsortedPunches(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	punches := []time.Time{
		time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC), // interior, ignored
		time.Date(2026, time.March, 2, 17, 45, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 8, 30, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 12, 45, 0, 0, time.UTC), // interior, ignored
	}

	rec, err := Reconcile("emp-1", day, time.UTC, punches)
	require.NoError(t, err)

	require.NotNil(t, rec.FirstIn)
	require.NotNil(t, rec.LastOut)
	assert.Equal(t, time.Date(2026, time.March, 2, 8, 30, 0, 0, time.UTC), *rec.FirstIn)
	assert.Equal(t, time.Date(2026, time.March, 2, 17, 45, 0, 0, time.UTC), *rec.LastOut)
	assert.Equal(t, 555, rec.WorkedMinutes)
}

func TestReconcile_MorningPair(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	punches := []time.Time{
		time.Date(2026, time.March, 2, 9, 2, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 13, 10, 0, 0, time.UTC),
	}

	rec, err := Reconcile("emp-1", day, time.UTC, punches)
	require.NoError(t, err)
	assert.Equal(t, 248, rec.WorkedMinutes)
}

func TestReconcile_PunchOutsideDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	punches := []time.Time{
		time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), // next day's midnight
	}

	_, err := Reconcile("emp-1", day, time.UTC, punches)
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrPunchOutsideDay)
}

func TestReconcile_WindowFollowsEmployeeTimezone(t *testing.T) {
	t.Parallel()

	// 23:30 local in Jakarta is 16:30 UTC on the same date; it must belong
	// to the local day even though a UTC window would also accept it, and
	// 00:30 the next local day must not.
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, jakarta)
	inDay := time.Date(2026, time.March, 2, 23, 30, 0, 0, jakarta)
	nextDay := time.Date(2026, time.March, 3, 0, 30, 0, 0, jakarta)

	rec, err := Reconcile("emp-1", day, jakarta, []time.Time{inDay})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), rec.Date)

	_, err = Reconcile("emp-1", day, jakarta, []time.Time{inDay, nextDay})
	assert.ErrorIs(t, err, attendance.ErrPunchOutsideDay)
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	punches := []time.Time{
		time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 17, 0, 0, 0, time.UTC),
	}

	first, err := Reconcile("emp-1", day, time.UTC, punches)
	require.NoError(t, err)
	second, err := Reconcile("emp-1", day, time.UTC, punches)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
