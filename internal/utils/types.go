package utils

import (
	"context"
	"io"
	"time"
)

// RangeSource is a remote object that can report its size and serve
// inclusive byte ranges.
type RangeSource interface {
	Size(ctx context.Context) (int64, error)
	OpenRange(ctx context.Context, start, end int64) (io.ReadCloser, error)
	Location() string
}

type Target struct {
	URL      string
	Segments int
}

type FetchJob struct {
	ID               string
	Target           Target
	ProjectDir       string
	TotalSize        int64
	Retries          int
	StrictLength     bool
	SkipExtract      bool
	S3Profile        string
	ReportInterval   time.Duration
	HTTPClientConfig HTTPClientConfig
}

// Segment is one contiguous inclusive byte range of the source file.
type Segment struct {
	Index      int
	StartByte  int64
	EndByte    int64
	OutputPath string
}

// Length is zero for the empty ranges produced when the file is smaller
// than the segment count.
func (s Segment) Length() int64 {
	if s.EndByte < s.StartByte {
		return 0
	}
	return s.EndByte - s.StartByte + 1
}

func (s Segment) Empty() bool {
	return s.EndByte < s.StartByte
}
