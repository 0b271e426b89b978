package services

// Bounds returns the half-open slice bounds of the page within n items.
// A page past the end yields an empty range, however large the page number.
func (p Page) Bounds(n int) (int, int) {
	if n <= 0 || p.PageSize <= 0 || p.PageNumber <= 0 {
		return 0, 0
	}
	start := n
	if p.PageNumber-1 <= (n-1)/p.PageSize {
		start = (p.PageNumber - 1) * p.PageSize
	}
	return start, start + min(p.PageSize, n-start)
}

// Slice returns the items of one page. The input is not modified.
func Slice[T any](items []T, p Page) []T {
	start, end := p.Bounds(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
