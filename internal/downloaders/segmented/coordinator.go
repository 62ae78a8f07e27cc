package segmented

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/rccget/internal/utils"
)

// Options configures a Coordinator.
type Options struct {
	// Interval between progress snapshots. Default: 1s
	Interval time.Duration

	// Retries is the number of attempts per segment. Default: 1 (no retry)
	Retries int

	// RetryBackoff is multiplied by the attempt number. Default: 500ms
	RetryBackoff time.Duration

	// StrictLength fails a segment whose byte count differs from its range.
	StrictLength bool

	// Reporter receives progress snapshots. Default: log reporter
	Reporter Reporter
}

// Coordinator drives a segmented download of one source.
type Coordinator struct {
	source utils.RangeSource
	opts   Options
	log    zerolog.Logger
}

type fetchResult struct {
	index int
	err   error
}

func NewCoordinator(source utils.RangeSource, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = utils.DefaultReportInterval
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.Reporter == nil {
		opts.Reporter = NewLogReporter()
	}
	return &Coordinator{
		source: source,
		opts:   opts,
		log:    utils.GetLogger("coordinator"),
	}
}

// Run resolves the source size, downloads segmentCount parts into workDir
// and reassembles them as workDir/finalName. Reassembly only happens when
// every segment succeeded.
func (c *Coordinator) Run(ctx context.Context, segmentCount int, workDir, finalName string) (string, error) {
	if segmentCount < 1 {
		return "", fmt.Errorf("segment count must be at least 1, got %d", segmentCount)
	}
	totalSize, err := c.source.Size(ctx)
	if err != nil {
		return "", err
	}
	c.log.Info().Str("source", c.source.Location()).Str("size", utils.FormatBytes(uint64(totalSize))).Int("segments", segmentCount).Msg("Resolved remote size")

	segments := Partition(totalSize, segmentCount, workDir)
	if err := c.Download(ctx, segments); err != nil {
		return "", err
	}

	finalPath := assembledPath(segments, workDir, finalName)
	written, err := Combine(segments, finalPath)
	if err != nil {
		return "", err
	}
	if written != totalSize {
		c.log.Warn().Int64("expected", totalSize).Int64("written", written).Msg("Assembled size differs from reported size")
	}
	c.log.Info().Str("file", finalPath).Str("size", utils.FormatBytes(uint64(written))).Msg("Download complete")
	return finalPath, nil
}

// Download runs one fetcher per segment and blocks until all of them have
// finished. A failing segment does not stop its siblings; the returned
// *utils.JobError names every failed index.
func (c *Coordinator) Download(ctx context.Context, segments []utils.Segment) error {
	table := NewProgressTable(len(segments))
	done := make([]bool, len(segments))
	failed := make([]bool, len(segments))
	results := make(chan fetchResult, len(segments))

	var wg sync.WaitGroup
	for _, seg := range segments {
		wg.Add(1)
		go func(seg utils.Segment) {
			defer wg.Done()
			results <- fetchResult{index: seg.Index, err: c.fetchWithRetry(ctx, seg, table)}
		}(seg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	var segErrs []*utils.SegmentError
	for running := true; running; {
		select {
		case res, ok := <-results:
			if !ok {
				running = false
				break
			}
			done[res.index] = true
			if res.err != nil {
				failed[res.index] = true
				c.log.Error().Err(res.err).Int("segment", res.index).Msg("Segment failed")
				segErrs = append(segErrs, &utils.SegmentError{Index: res.index, Err: res.err})
			}
		case <-ticker.C:
			c.opts.Reporter.Report(snapshot(segments, table, done, failed))
		}
	}
	c.opts.Reporter.Report(snapshot(segments, table, done, failed))

	if len(segErrs) > 0 {
		return &utils.JobError{Failed: segErrs}
	}
	return nil
}

// assembledPath keeps the final file from landing on one of the part files,
// which Combine would truncate before reading.
func assembledPath(segments []utils.Segment, workDir, finalName string) string {
	finalPath := filepath.Join(workDir, finalName)
	for _, seg := range segments {
		if seg.OutputPath == finalPath {
			return filepath.Join(workDir, "assembled-"+finalName)
		}
	}
	return finalPath
}

func (c *Coordinator) fetchWithRetry(ctx context.Context, seg utils.Segment, table *ProgressTable) error {
	var lastErr error
	for attempt := range c.opts.Retries {
		if attempt > 0 {
			c.log.Warn().Int("segment", seg.Index).Int("attempt", attempt+1).Int("maxAttempts", c.opts.Retries).Msg("Retrying segment")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * c.opts.RetryBackoff):
			}
			table.Reset(seg.Index)
		}
		lastErr = FetchSegment(ctx, c.source, seg, table, c.opts.StrictLength)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func snapshot(segments []utils.Segment, table *ProgressTable, done, failed []bool) []SegmentProgress {
	progress := make([]SegmentProgress, len(segments))
	for i, seg := range segments {
		progress[i] = SegmentProgress{
			Index:      seg.Index,
			OutputPath: seg.OutputPath,
			Downloaded: table.Load(seg.Index),
			Length:     seg.Length(),
			Done:       done[seg.Index],
			Failed:     failed[seg.Index],
		}
	}
	return progress
}
