package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/raddo/internal/common"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpected_Deterministic(t *testing.T) {
	now := date(2024, 6, 1).Add(10 * time.Hour)
	want := []string{"RW-20200101.tar.gz", "RW-20200102.tar.gz", "RW-20200103.tar.gz"}

	for i := 0; i < 3; i++ {
		got, err := Expected(date(2020, 1, 1), date(2020, 1, 3), now)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestExpected_ExcludesToday(t *testing.T) {
	now := date(2020, 1, 3).Add(15 * time.Hour)

	got, err := Expected(date(2020, 1, 1), date(2020, 1, 3), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"RW-20200101.tar.gz", "RW-20200102.tar.gz"}, got)
}

func TestExpected_SingleDay(t *testing.T) {
	got, err := Expected(date(2020, 2, 29), date(2020, 2, 29), date(2021, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"RW-20200229.tar.gz"}, got)
}

func TestExpected_InvertedRange(t *testing.T) {
	_, err := Expected(date(2020, 1, 5), date(2020, 1, 3), date(2021, 1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestExpected_CrossesMonthBoundary(t *testing.T) {
	got, err := Expected(date(2020, 1, 30), date(2020, 2, 2), date(2021, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"RW-20200130.tar.gz", "RW-20200131.tar.gz", "RW-20200201.tar.gz", "RW-20200202.tar.gz",
	}, got)
}

func TestNormalizeRange(t *testing.T) {
	now := time.Date(2020, 1, 10, 8, 30, 0, 0, time.UTC)

	t.Run("end today is clamped to yesterday", func(t *testing.T) {
		r, err := NormalizeRange(date(2020, 1, 1), date(2020, 1, 10), now)
		require.NoError(t, err)
		assert.Equal(t, date(2020, 1, 9), r.End)
		assert.Equal(t, 9, r.Days())
	})

	t.Run("end in the future is clamped", func(t *testing.T) {
		r, err := NormalizeRange(date(2020, 1, 1), date(2020, 3, 1), now)
		require.NoError(t, err)
		assert.Equal(t, date(2020, 1, 9), r.End)
	})

	t.Run("time of day is dropped", func(t *testing.T) {
		r, err := NormalizeRange(date(2020, 1, 1).Add(13*time.Hour), date(2020, 1, 2).Add(time.Hour), now)
		require.NoError(t, err)
		assert.Equal(t, date(2020, 1, 1), r.Start)
		assert.Equal(t, date(2020, 1, 2), r.End)
	})

	t.Run("inverted is a config error", func(t *testing.T) {
		_, err := NormalizeRange(date(2020, 1, 5), date(2020, 1, 4), now)
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("start today becomes inverted after clamping", func(t *testing.T) {
		_, err := NormalizeRange(date(2020, 1, 10), date(2020, 1, 10), now)
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestRange_Contains(t *testing.T) {
	r := Range{Start: date(2020, 1, 1), End: date(2020, 1, 2)}

	assert.True(t, r.Contains(date(2020, 1, 1)))
	assert.True(t, r.Contains(date(2020, 1, 2).Add(23*time.Hour)))
	assert.False(t, r.Contains(date(2020, 1, 3)))
	assert.False(t, r.Contains(date(2019, 12, 31).Add(23*time.Hour)))
	assert.Equal(t, "2020-01-01 - 2020-01-02", r.String())
}
