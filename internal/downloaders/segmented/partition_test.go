package segmented

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		count     int
		wantLens  []int64
	}{
		{"even split", 1000, 4, []int64{250, 250, 250, 250}},
		{"remainder goes last", 1001, 4, []int64{250, 250, 250, 251}},
		{"single segment", 77, 1, []int64{77}},
		{"fewer bytes than segments", 3, 5, []int64{0, 0, 0, 0, 3}},
		{"empty file", 0, 3, []int64{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := Partition(tt.totalSize, tt.count, "work")
			require.Len(t, segments, tt.count)

			var covered int64
			for i, seg := range segments {
				assert.Equal(t, i, seg.Index)
				assert.Equal(t, tt.wantLens[i], seg.Length(), "segment %d", i)
				assert.Equal(t, filepath.Join("work", "part"+strconv.Itoa(i)+".zip"), seg.OutputPath)
				if seg.Empty() {
					continue
				}
				assert.Equal(t, covered, seg.StartByte, "segment %d must start where the previous ended", i)
				covered = seg.EndByte + 1
			}
			assert.Equal(t, tt.totalSize, covered)
		})
	}
}

func TestPartitionLastSegmentEndsAtFileEnd(t *testing.T) {
	segments := Partition(10_000_019, 8, t.TempDir())
	last := segments[len(segments)-1]
	assert.Equal(t, int64(10_000_018), last.EndByte)
	assert.Equal(t, int64(7*(10_000_019/8)), last.StartByte)
}
