package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SegmentError records the transfer failure of a single segment.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// JobError is returned once all fetchers have joined and at least one of
// them failed.
type JobError struct {
	Failed []*SegmentError
}

func (e *JobError) Error() string {
	indices := e.Indices()
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	label := "segment"
	if len(indices) > 1 {
		label = "segments"
	}
	msg := fmt.Sprintf("%v: %s %s", ErrSegmentFailed, label, strings.Join(parts, ", "))
	if len(e.Failed) > 0 {
		msg += fmt.Sprintf(" (first error: %v)", e.Failed[0].Err)
	}
	return msg
}

func (e *JobError) Is(target error) bool {
	return target == ErrSegmentFailed
}

func (e *JobError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// Indices returns the failed segment indices in ascending order.
func (e *JobError) Indices() []int {
	indices := make([]int, len(e.Failed))
	for i, f := range e.Failed {
		indices[i] = f.Index
	}
	sort.Ints(indices)
	return indices
}

// FailedSegments extracts the failed indices from err, or nil if err is not
// a job-level segment failure.
func FailedSegments(err error) []int {
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr.Indices()
	}
	return nil
}
