package utils

func Ptr[T any](v T) *T {
	return &v
}

func Clamp[T int | int64 | float64](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
