package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/rccget/internal/downloaders/segmented"
	"github.com/tanq16/rccget/internal/utils"
)

func newTestManager(buf *bytes.Buffer) *Manager {
	m := NewManager()
	m.out = buf
	m.live = false
	m.displayTick = 10 * time.Millisecond
	return m
}

func TestPrintProgressBar(t *testing.T) {
	assert.Contains(t, PrintProgressBar(50, 100, 10), " 50.00%")
	assert.Contains(t, PrintProgressBar(150, 100, 10), "100.00%")
	assert.Contains(t, PrintProgressBar(-5, 100, 10), "  0.00%")
	assert.Contains(t, PrintProgressBar(0, 0, 10), "  0.00%")
	assert.Equal(t, 10, strings.Count(PrintProgressBar(100, 100, 10), StyleSymbols["hline"]))
}

func TestSegmentReporter(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(&buf)
	id := m.RegisterStage("download")

	m.SegmentReporter(id).Report([]segmented.SegmentProgress{
		{Index: 0, OutputPath: "/w/part0.zip", Downloaded: 1024, Length: 1024, Done: true},
		{Index: 1, OutputPath: "/w/part1.zip", Downloaded: 0, Length: 1024},
		{Index: 2, OutputPath: "/w/part2.zip", Downloaded: 0, Length: 0, Done: true},
	})

	stage := m.outputs[id]
	require.Len(t, stage.StreamLines, 3)
	assert.Contains(t, stage.StreamLines[0], "part0.zip")
	assert.Contains(t, stage.StreamLines[0], "100.00%")
	assert.Contains(t, stage.StreamLines[1], "  0.00%")
	assert.Contains(t, stage.StreamLines[2], "100.00%")
	assert.Equal(t, "Downloading 1.00 KB / 2.00 KB", stage.Message)
}

func TestDisplayAndSummary(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(&buf)
	prepare := m.RegisterStage("workspace")
	download := m.RegisterStage("download")
	extract := m.RegisterStage("extract")

	m.StartDisplay()
	m.Complete(prepare, "Workspace ready")
	m.ReportError(download, &utils.JobError{Failed: []*utils.SegmentError{
		{Index: 3, Err: errors.New("reset by peer")},
		{Index: 1, Err: errors.New("timeout")},
	}})
	m.StopDisplay()

	out := buf.String()
	assert.Contains(t, out, "Workspace ready")
	assert.Contains(t, out, "Waiting...")
	assert.Contains(t, out, "Completed 1 of 3 stages")
	assert.Contains(t, out, "Stage: download")
	assert.Contains(t, out, "Failed segments: [1 3]")
	assert.Equal(t, "pending", m.outputs[extract].Status)
}

func TestPlainProgressPrintedWhileRunning(t *testing.T) {
	var buf bytes.Buffer
	m := newTestManager(&buf)
	id := m.RegisterStage("download")
	reporter := m.SegmentReporter(id)

	m.StartDisplay()
	reporter.Report([]segmented.SegmentProgress{
		{Index: 0, OutputPath: "/w/part0.zip", Downloaded: 512, Length: 1024},
		{Index: 1, OutputPath: "/w/part1.zip", Downloaded: 0, Length: 1024},
	})
	afterFirst := buf.String()
	reporter.Report([]segmented.SegmentProgress{
		{Index: 0, OutputPath: "/w/part0.zip", Downloaded: 1024, Length: 1024, Done: true},
		{Index: 1, OutputPath: "/w/part1.zip", Downloaded: 10, Length: 1024, Done: true, Failed: true},
	})
	afterSecond := buf.String()
	m.StopDisplay()

	assert.Contains(t, afterFirst, "[download] part0.zip 50.00% complete")
	assert.NotContains(t, afterFirst, "part1.zip")
	assert.Contains(t, afterSecond, "[download] part0.zip 100.00% complete")
	assert.Contains(t, afterSecond, "part1.zip 0.98% complete (failed)")
}
