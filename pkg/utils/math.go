package utils

import (
	"math"
	"sort"
)

// SafeFloat заменяет NaN и ±Inf нулём
func SafeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

// IsFinite сообщает, что значение пригодно для арифметики
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Percentile вычисляет процентиль массива с линейной интерполяцией
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	n := float64(len(sorted) - 1)
	index := (p / 100.0) * n

	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Median возвращает медиану. scratch переиспользуется как рабочий буфер,
// чтобы не аллоцировать память на каждое окно фильтра.
func Median(data []float64, scratch []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	scratch = append(scratch[:0], data...)
	sort.Float64s(scratch)

	mid := len(scratch) / 2
	if len(scratch)%2 == 1 {
		return scratch[mid]
	}
	return (scratch[mid-1] + scratch[mid]) / 2
}

// Diff вычисляет разности соседних элементов
func Diff(data []int) []int {
	if len(data) <= 1 {
		return []int{}
	}

	result := make([]int, len(data)-1)
	for i := 1; i < len(data); i++ {
		result[i-1] = data[i] - data[i-1]
	}
	return result
}

// AbsInt модуль целого
func AbsInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ClampInt ограничивает v диапазоном [lo, hi]
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
