package ingest

// DefaultBatchSize is the number of employee records committed per transaction.
const DefaultBatchSize = 1000

// Split cuts items into contiguous chunks of at most size elements, preserving order.
// A non-positive size yields a single batch.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end:end])
	}
	return batches
}
