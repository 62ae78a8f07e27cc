package segmented

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tanq16/rccget/internal/utils"
)

// FetchSegment downloads one inclusive range into seg.OutputPath, which is
// created or truncated. Progress for seg.Index is advanced after every chunk
// written. An empty range creates an empty file without touching the source.
func FetchSegment(ctx context.Context, src utils.RangeSource, seg utils.Segment, table *ProgressTable, strict bool) error {
	log := utils.GetLogger("fetch").With().Int("segment", seg.Index).Logger()
	outFile, err := os.OpenFile(seg.OutputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error opening part file: %v", err)
	}
	defer outFile.Close()
	if seg.Empty() {
		log.Debug().Int64("start", seg.StartByte).Int64("end", seg.EndByte).Msg("Empty range, nothing to fetch")
		return nil
	}

	log.Debug().Str("op", "segmented/fetch").Msgf("Downloading '%s' bytes %d-%d to '%s'", src.Location(), seg.StartByte, seg.EndByte, seg.OutputPath)
	body, err := src.OpenRange(ctx, seg.StartByte, seg.EndByte)
	if err != nil {
		return err
	}
	defer body.Close()

	buffer := make([]byte, utils.DefaultChunkSize)
	var written int64
	for {
		bytesRead, readErr := body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing part file: %v", writeErr)
			}
			written += int64(bytesRead)
			table.Add(seg.Index, int64(bytesRead))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %v", readErr)
		}
	}
	if strict && written != seg.Length() {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", seg.Length(), written)
	}
	if err := outFile.Sync(); err != nil {
		return fmt.Errorf("error syncing part file: %v", err)
	}
	log.Debug().Str("op", "segmented/fetch").Int64("bytes", written).Msgf("Download of bytes %d-%d complete", seg.StartByte, seg.EndByte)
	return nil
}
