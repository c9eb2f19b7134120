package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// ========== Mean 测试 ==========

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty", input: nil, expected: 0},
		{name: "single", input: []float64{3.5}, expected: 3.5},
		{name: "simple", input: []float64{1, 2, 3, 4, 5}, expected: 3},
		{name: "negative values", input: []float64{-2, 2}, expected: 0},
		{name: "fractional", input: []float64{0.5, 1.5}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.input)
			if !almostEqual(got, tt.expected, 1e-9) {
				t.Errorf("Mean() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// ========== Median 测试 ==========

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty", input: nil, expected: 0},
		{name: "single", input: []float64{7}, expected: 7},
		{name: "odd count", input: []float64{5, 1, 3}, expected: 3},
		{name: "even count", input: []float64{1, 2, 3, 4}, expected: 2.5},
		{name: "unsorted even", input: []float64{4, 1, 3, 2}, expected: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Median(tt.input)
			if !almostEqual(got, tt.expected, 1e-9) {
				t.Errorf("Median() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestMedian_DoesNotMutateInput 中位数计算不得修改输入切片
func TestMedian_DoesNotMutateInput(t *testing.T) {
	input := []float64{5, 1, 3}
	Median(input)
	if input[0] != 5 || input[1] != 1 || input[2] != 3 {
		t.Errorf("input mutated: %v", input)
	}
}

// ========== StdDev 测试 ==========

func TestStdDev(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty", input: nil, expected: 0},
		{name: "single value", input: []float64{4}, expected: 0},
		// 样本标准差: sqrt(((2-4)^2+(4-4)^2+(6-4)^2)/2) = 2
		{name: "sample divisor n-1", input: []float64{2, 4, 6}, expected: 2},
		{name: "identical values", input: []float64{3, 3, 3, 3}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StdDev(tt.input)
			if !almostEqual(got, tt.expected, 1e-9) {
				t.Errorf("StdDev() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	// 总体方差: ((2-4)^2+(4-4)^2+(6-4)^2)/3 = 8/3
	got := Variance([]float64{2, 4, 6})
	if !almostEqual(got, 8.0/3.0, 1e-9) {
		t.Errorf("Variance() = %v, want %v", got, 8.0/3.0)
	}
	if Variance(nil) != 0 {
		t.Errorf("Variance(nil) = %v, want 0", Variance(nil))
	}
}

// ========== Quartile 测试 ==========

func TestQuartile(t *testing.T) {
	tests := []struct {
		name     string
		sorted   []float64
		q        float64
		expected float64
	}{
		{name: "q1 of five", sorted: []float64{1, 2, 3, 4, 5}, q: 0.25, expected: 2},
		{name: "q3 of five", sorted: []float64{1, 2, 3, 4, 5}, q: 0.75, expected: 4},
		{name: "median position", sorted: []float64{1, 2, 3, 4, 5}, q: 0.5, expected: 3},
		// (4-1)*0.25 = 0.75 → 1 + 0.75*(2-1) = 1.75
		{name: "interpolated q1", sorted: []float64{1, 2, 3, 4}, q: 0.25, expected: 1.75},
		{name: "min", sorted: []float64{1, 2, 3}, q: 0, expected: 1},
		{name: "max", sorted: []float64{1, 2, 3}, q: 1, expected: 3},
		{name: "single", sorted: []float64{9}, q: 0.75, expected: 9},
		{name: "empty", sorted: nil, q: 0.25, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quartile(tt.sorted, tt.q)
			if !almostEqual(got, tt.expected, 1e-9) {
				t.Errorf("Quartile(%v, %v) = %v, want %v", tt.sorted, tt.q, got, tt.expected)
			}
		})
	}
}

// ========== BoxPlot 测试 ==========

func TestBoxPlotSummary(t *testing.T) {
	got := BoxPlotSummary([]float64{5, 1, 3, 2, 4})
	want := BoxPlot{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5, Mean: 3}
	if got != want {
		t.Errorf("BoxPlotSummary() = %+v, want %+v", got, want)
	}
}

func TestBoxPlotSummary_Empty(t *testing.T) {
	got := BoxPlotSummary(nil)
	if got != (BoxPlot{}) {
		t.Errorf("BoxPlotSummary(nil) = %+v, want zero value", got)
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{3.14, 3.1},
		{3.15, 3.2},
		{0, 0},
		{4.999, 5.0},
	}
	for _, tt := range tests {
		if got := Round1(tt.input); !almostEqual(got, tt.expected, 1e-9) {
			t.Errorf("Round1(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
