package segmented

import (
	"fmt"
	"path/filepath"

	"github.com/tanq16/rccget/internal/utils"
)

// PartPath names the scratch file for segment i. The extension is kept for
// compatibility with existing workspaces; parts are raw byte ranges.
func PartPath(workDir string, i int) string {
	return filepath.Join(workDir, fmt.Sprintf("part%d.zip", i))
}

// Partition splits [0, totalSize) into count contiguous inclusive ranges.
// Every segment but the last gets totalSize/count bytes and the last one
// absorbs the remainder. When totalSize < count the leading segments are
// empty (EndByte < StartByte) and are fetched as no-ops.
func Partition(totalSize int64, count int, workDir string) []utils.Segment {
	if count < 1 {
		count = 1
	}
	partSize := totalSize / int64(count)
	segments := make([]utils.Segment, 0, count)
	for i := range count {
		startByte := int64(i) * partSize
		endByte := startByte + partSize - 1
		if i == count-1 {
			endByte = totalSize - 1
		}
		segments = append(segments, utils.Segment{
			Index:      i,
			StartByte:  startByte,
			EndByte:    endByte,
			OutputPath: PartPath(workDir, i),
		})
	}
	return segments
}
