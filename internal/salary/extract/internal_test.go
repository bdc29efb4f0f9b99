package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		num, suffix string
		want        float64
	}{
		{"150,000", "", 150_000},
		{"1.234.567", "", 1_234_567},
		{"22.50", "", 22.5},
		{"120 000", "", 120_000},
		{"1.5", "m", 1_500_000},
		{"185", "K", 185_000},
	}
	for _, c := range cases {
		got, ok := parseAmount(c.num, c.suffix)
		assert.True(t, ok, c.num)
		assert.Equal(t, c.want, got, c.num)
	}
}

func TestScoreOfIsPure(t *testing.T) {
	assert.Equal(t, 0, scoreOf(false, false, false))
	assert.Equal(t, 2, scoreOf(true, false, false))
	assert.Equal(t, 6, scoreOf(true, true, false))
	assert.Equal(t, 2, scoreOf(true, true, true))
	assert.Equal(t, -4, scoreOf(false, false, true))
}

func TestBestTieBreaks(t *testing.T) {
	ms := []match{
		{Candidate: Candidate{Min: 1, Strategy: StrategySingleSymbol, Score: 2}, magnitude: 200_000},
		{Candidate: Candidate{Min: 2, Strategy: StrategyRangeSymbol, Score: 2}, magnitude: 200_000},
		{Candidate: Candidate{Min: 3, Strategy: StrategyRangeKeyword, Score: 2}, magnitude: 150_000},
	}
	assert.Equal(t, 2.0, best(ms).Min)
	assert.Nil(t, best(nil))
}
