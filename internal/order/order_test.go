package order

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{"descending input", []float64{20, 15, 10}, []int{2, 1, 0}},
		{"mixed", []float64{12.23, 34.89, 7.0, -23.2, 100.0}, []int{3, 2, 0, 1, 4}},
		{"ties are stable", []float64{1, 0, 1, 0}, []int{1, 3, 0, 2}},
		{"empty", nil, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Order(tt.values))
		})
	}
}

func TestInverse(t *testing.T) {
	direct := Order([]float64{3, 2, 5, 1, 4})
	assert.Equal(t, []int{3, 1, 0, 4, 2}, direct)
	rev := Inverse(direct)
	assert.Equal(t, []int{2, 1, 4, 0, 3}, rev)
	for r, pos := range direct {
		assert.Equal(t, r, rev[pos])
	}
}

func TestOrderPanicsOnNaN(t *testing.T) {
	assert.Panics(t, func() { Order([]float64{1, math.NaN()}) })
}

func TestByMetric(t *testing.T) {
	values := []float64{1.0, 0.6, 0.8, 0.9, 0.7}
	assert.Equal(t, []int{1, 4, 2, 3, 0}, ByMetric(values, false))
	assert.Equal(t, []int{0, 3, 2, 4, 1}, ByMetric(values, true))
}

func TestByMatch(t *testing.T) {
	has := []bool{true, false, true, false}
	assert.Equal(t, []int{0, 2, 1, 3}, ByMatch(4, func(i int) bool { return has[i] }))
}

func TestByUserStopsAtUnknownHeader(t *testing.T) {
	headers := []string{"R1", "R2", "R3"}
	assert.Equal(t, []int{2, 0, 1}, ByUser(headers, []string{"R3", "R1", "R2"}))
	assert.Equal(t, []int{2}, ByUser(headers, []string{"R3", "X", "R1"}))
}

func TestCriterionCycle(t *testing.T) {
	c := SourceFile
	var seen []Criterion
	for i := 0; i < 5; i++ {
		c = c.Next(false)
		seen = append(seen, c)
	}
	assert.Equal(t, []Criterion{MetricIncr, MetricDecr, SearchMatch, SourceFile, MetricIncr}, seen)
	assert.Equal(t, User, SearchMatch.Next(true))
	assert.Equal(t, SourceFile, User.Next(true))
	assert.Equal(t, User, SourceFile.Prev(true))
	assert.Equal(t, SearchMatch, SourceFile.Prev(false))
	assert.Equal(t, MetricIncr, MetricDecr.Prev(false))
}

func TestMetricToggle(t *testing.T) {
	assert.Equal(t, SeqLen, PctIDWrtConsensus.Next())
	assert.Equal(t, PctIDWrtConsensus, SeqLen.Next())
}

func TestNamesRoundTrip(t *testing.T) {
	for _, c := range []Criterion{SourceFile, MetricIncr, MetricDecr, SearchMatch, User} {
		assert.Equal(t, c, ParseCriterion(c.Name()))
	}
	assert.Equal(t, SourceFile, ParseCriterion("bogus"))
	assert.Equal(t, SeqLen, ParseMetric(SeqLen.Name()))
	assert.Equal(t, PctIDWrtConsensus, ParseMetric(""))
}
