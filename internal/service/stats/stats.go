// Package stats 提供描述性统计计算
// 所有函数均为纯函数，输入不被修改
package stats

import (
	"math"
	"sort"
)

// Mean 算术平均值，空输入返回 0
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median 中位数，偶数个取中间两数均值
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// StdDev 样本标准差，除数统一为 n-1；n <= 1 时返回 0
func StdDev(xs []float64) float64 {
	n := len(xs)
	if n <= 1 {
		return 0
	}
	mean := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Variance 总体方差，除数为 n；用于跨运行一致性对比
func Variance(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	mean := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(n)
}

// Quartile 线性插值分位数，sorted 必须已升序排序
// position = (n-1)*q，非整数位置时在相邻两元素间按小数部分插值
func Quartile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	position := float64(n-1) * q
	lower := int(math.Floor(position))
	upper := int(math.Ceil(position))
	if lower == upper {
		return sorted[lower]
	}
	frac := position - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// BoxPlot 箱线图摘要
type BoxPlot struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// BoxPlotSummary 计算箱线图摘要，空输入返回零值
func BoxPlotSummary(xs []float64) BoxPlot {
	if len(xs) == 0 {
		return BoxPlot{}
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	return BoxPlot{
		Min:    sorted[0],
		Q1:     Quartile(sorted, 0.25),
		Median: Median(sorted),
		Q3:     Quartile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   Mean(sorted),
	}
}

// Round1 保留 1 位小数
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
