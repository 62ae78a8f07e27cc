package segmented

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/tanq16/rccget/internal/utils"
)

// Combine concatenates the part files into finalPath in ascending segment
// index, removing each part as soon as it has been appended.
func Combine(segments []utils.Segment, finalPath string) (total int64, err error) {
	log := utils.GetLogger("assembler")
	ordered := slices.Clone(segments)
	slices.SortFunc(ordered, func(a, b utils.Segment) int {
		return a.Index - b.Index
	})

	destFile, err := os.Create(finalPath)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %v", err)
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing output file: %v", closeErr)
		}
	}()

	for _, seg := range ordered {
		partFile, err := os.Open(seg.OutputPath)
		if err != nil {
			return total, fmt.Errorf("%w: segment %d: %v", utils.ErrReassemblyIncomplete, seg.Index, err)
		}
		written, err := io.Copy(destFile, partFile)
		partFile.Close()
		if err != nil {
			return total, fmt.Errorf("%w: segment %d: error copying part: %v", utils.ErrReassemblyIncomplete, seg.Index, err)
		}
		total += written
		if err := os.Remove(seg.OutputPath); err != nil {
			log.Warn().Err(err).Str("file", seg.OutputPath).Msg("Could not remove consumed part file")
		}
		log.Debug().Int("segment", seg.Index).Int64("bytes", written).Msg("Segment appended")
	}
	log.Debug().Int64("totalBytes", total).Str("outputFile", finalPath).Msg("File assembly completed")
	return total, nil
}
