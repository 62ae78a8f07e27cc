package segmented

import "sync/atomic"

// ProgressTable holds bytes downloaded so far per segment index. Each cell
// has exactly one writer (its fetcher); readers may load at any time and see
// 0 for a cell nobody has written yet.
type ProgressTable struct {
	cells []atomic.Int64
}

func NewProgressTable(n int) *ProgressTable {
	return &ProgressTable{cells: make([]atomic.Int64, n)}
}

func (t *ProgressTable) Add(index int, n int64) int64 {
	return t.cells[index].Add(n)
}

func (t *ProgressTable) Load(index int) int64 {
	if index < 0 || index >= len(t.cells) {
		return 0
	}
	return t.cells[index].Load()
}

// Reset zeroes a cell before a retried attempt rewrites the part file.
func (t *ProgressTable) Reset(index int) {
	t.cells[index].Store(0)
}

func (t *ProgressTable) Len() int {
	return len(t.cells)
}
