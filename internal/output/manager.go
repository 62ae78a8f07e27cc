package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/rccget/internal/downloaders/segmented"
	"github.com/tanq16/rccget/internal/utils"
)

// StageOutput is one line of the display, e.g. "download" or "extract",
// with optional indented stream lines underneath.
type StageOutput struct {
	ID          int
	Name        string
	Status      string
	Message     string
	StreamLines []string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	StageName string
	Error     error
	Time      time.Time
}

type Manager struct {
	out         io.Writer
	outputs     map[int]*StageOutput
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	stageCount  int
	displayWg   sync.WaitGroup
	live        bool // redraw in place; false when stdout is not a terminal
}

func NewManager() *Manager {
	return &Manager{
		out:         os.Stdout,
		outputs:     make(map[int]*StageOutput),
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
		live:        isTerminal(),
	}
}

func (m *Manager) RegisterStage(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.stageCount++
	m.outputs[m.stageCount] = &StageOutput{
		ID:          m.stageCount,
		Name:        name,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.stageCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
		info.Status = "running"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		if message == "" {
			info.Message = fmt.Sprintf("Completed %s", info.Name)
		} else {
			info.Message = message
		}
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			StageName: info.Name,
			Error:     err,
			Time:      time.Now(),
		})
	}
}

// SegmentReporter returns a segmented.Reporter that renders one progress bar
// per segment beneath the given stage.
func (m *Manager) SegmentReporter(id int) segmented.Reporter {
	return segmented.ReporterFunc(func(progress []segmented.SegmentProgress) {
		m.setSegmentProgress(id, progress)
	})
}

func (m *Manager) setSegmentProgress(id int, progress []segmented.SegmentProgress) {
	lines := make([]string, 0, len(progress))
	var downloaded, total int64
	for _, p := range progress {
		downloaded += p.Downloaded
		total += p.Length
		state := ""
		if p.Failed {
			state = " " + errorStyle.Render(StyleSymbols["fail"])
		} else if p.Done {
			state = " " + successStyle.Render(StyleSymbols["pass"])
		}
		current, length := p.Downloaded, p.Length
		if length <= 0 && p.Done {
			current, length = 1, 1
		}
		lines = append(lines, fmt.Sprintf("%s%s %s%s",
			PrintProgressBar(current, length, 30),
			debugStyle.Render(filepath.Base(p.OutputPath)),
			debugStyle.Render(utils.FormatBytes(uint64(p.Downloaded))),
			state))
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.outputs[id]
	if !exists {
		return
	}
	info.StreamLines = lines
	info.Message = fmt.Sprintf("Downloading %s / %s", utils.FormatBytes(uint64(downloaded)), utils.FormatBytes(uint64(total)))
	info.LastUpdated = time.Now()
	if !m.live {
		m.printPlainProgress(info.Name, progress)
	}
}

// printPlainProgress writes one line per started segment for logs and CI
// consoles, where the in-place redraw is disabled.
func (m *Manager) printPlainProgress(stage string, progress []segmented.SegmentProgress) {
	for _, p := range progress {
		if p.Downloaded == 0 && !p.Done {
			continue
		}
		state := ""
		if p.Failed {
			state = " (failed)"
		}
		fmt.Fprintf(m.out, "%s[%s] %s %.2f%% complete%s\n", strings.Repeat(" ", 2), stage, filepath.Base(p.OutputPath), p.Percent(), state)
	}
}

func (m *Manager) getStatusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sortedStages() []*StageOutput {
	stages := make([]*StageOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		stages = append(stages, info)
	}
	sort.Slice(stages, func(i, j int) bool {
		return stages[i].ID < stages[j].ID
	})
	return stages
}

func (m *Manager) render() []string {
	var lines []string
	for _, info := range m.sortedStages() {
		if info.Status == "pending" && info.Message == "" {
			lines = append(lines, fmt.Sprintf("%s%s %s", strings.Repeat(" ", 2), m.getStatusIndicator(info.Status), pendingStyle.Render("Waiting...")))
			continue
		}
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Complete {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		var styledMessage string
		switch info.Status {
		case "success":
			styledMessage = successStyle.Render(info.Message)
		case "error":
			styledMessage = errorStyle.Render(info.Message)
		default:
			styledMessage = pendingStyle.Render(info.Message)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s", strings.Repeat(" ", 2), m.getStatusIndicator(info.Status), debugStyle.Render(elapsed.String()), styledMessage))
		indent := strings.Repeat(" ", 2+4)
		for _, line := range info.StreamLines {
			lines = append(lines, indent+streamStyle.Render(line))
		}
	}
	return lines
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	lines := m.render()
	available := getTerminalHeight() - 3
	if len(lines) > available && available > 0 {
		lines = lines[len(lines)-available:]
	}
	for _, line := range lines {
		fmt.Fprintln(m.out, line)
	}
	m.numLines = len(lines)
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.live {
					m.updateDisplay()
				}
			case <-m.doneCh:
				if m.live {
					m.updateDisplay()
				} else {
					m.mutex.RLock()
					for _, line := range m.render() {
						fmt.Fprintln(m.out, line)
					}
					m.mutex.RUnlock()
				}
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Fprintln(m.out)
	var success int
	for _, info := range m.outputs {
		if info.Status == "success" {
			success++
		}
	}
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+success2Style.Render(fmt.Sprintf("Completed %d of %d stages", success, len(m.outputs))))
	if len(m.errors) == 0 {
		fmt.Fprintln(m.out)
		return
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
	for i, report := range m.errors {
		fmt.Fprintf(m.out, "%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format("15:04:05"))),
			errorStyle.Render(fmt.Sprintf("Stage: %s", report.StageName)))
		fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(fmt.Sprintf("Error: %v", report.Error)))
		if failed := utils.FailedSegments(report.Error); len(failed) > 0 {
			fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(fmt.Sprintf("Failed segments: %v", failed)))
		}
	}
	fmt.Fprintln(m.out)
}
