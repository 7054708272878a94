package window

// NextFunc is a pull-style lazy sequence: it returns the next element and
// false once exhausted.
type NextFunc[T any] func() (T, bool)

// Batch groups a lazy sequence into chunks of n elements. The final chunk
// may be shorter; it is never padded. Like the underlying sequences, the
// batcher is lazy: it pulls only when asked.
func Batch[T any](n int, next NextFunc[T]) NextFunc[[]T] {
	done := false
	return func() ([]T, bool) {
		if done || n <= 0 {
			return nil, false
		}
		chunk := make([]T, 0, n)
		for len(chunk) < n {
			v, ok := next()
			if !ok {
				done = true
				break
			}
			chunk = append(chunk, v)
		}
		if len(chunk) == 0 {
			return nil, false
		}
		return chunk, true
	}
}
