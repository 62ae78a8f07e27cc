package segmented

import (
	"github.com/rs/zerolog"
	"github.com/tanq16/rccget/internal/utils"
)

type SegmentProgress struct {
	Index      int
	OutputPath string
	Downloaded int64
	Length     int64
	Done       bool
	Failed     bool
}

func (p SegmentProgress) Percent() float64 {
	if p.Length <= 0 {
		if p.Done {
			return 100
		}
		return 0
	}
	return float64(p.Downloaded) / float64(p.Length) * 100
}

// Reporter receives periodic progress snapshots from the coordinator. It
// is observational only.
type Reporter interface {
	Report(progress []SegmentProgress)
}

type ReporterFunc func(progress []SegmentProgress)

func (f ReporterFunc) Report(progress []SegmentProgress) {
	f(progress)
}

type logReporter struct {
	log zerolog.Logger
}

// NewLogReporter writes one event per started segment at info level.
func NewLogReporter() Reporter {
	return &logReporter{log: utils.GetLogger("progress")}
}

func (r *logReporter) Report(progress []SegmentProgress) {
	for _, p := range progress {
		if p.Downloaded == 0 && !p.Done {
			continue
		}
		r.log.Info().Str("file", p.OutputPath).Msgf("%.2f%% complete", p.Percent())
	}
}
