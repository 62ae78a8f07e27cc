package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	rcchttp "github.com/tanq16/rccget/internal/downloaders/http"
	"github.com/tanq16/rccget/internal/downloaders/s3"
	"github.com/tanq16/rccget/internal/downloaders/segmented"
	"github.com/tanq16/rccget/internal/extract"
	"github.com/tanq16/rccget/internal/output"
	"github.com/tanq16/rccget/internal/utils"
	"github.com/tanq16/rccget/internal/workspace"
)

type sourceBuilder func(ctx context.Context, job *utils.FetchJob) (utils.RangeSource, error)

// sourceRegistry maps source types to their range source constructors
var sourceRegistry = map[string]sourceBuilder{
	"http": func(ctx context.Context, job *utils.FetchJob) (utils.RangeSource, error) {
		return rcchttp.NewSource(job.Target.URL, job.HTTPClientConfig)
	},
	"s3": func(ctx context.Context, job *utils.FetchJob) (utils.RangeSource, error) {
		return s3.NewSource(ctx, job.Target.URL, job.S3Profile)
	},
}

// Run executes one provisioning job: clear the workspace, download and
// reassemble the archive, then extract it into the rcc directory.
func Run(ctx context.Context, job utils.FetchJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	log := utils.GetLogger("scheduler").With().Str("jobID", job.ID).Logger()
	log.Info().Str("url", job.Target.URL).Int("segments", job.Target.Segments).Msg("Starting job")

	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	prepareID := outputMgr.RegisterStage("workspace")
	downloadID := outputMgr.RegisterStage("download")
	extractID := -1
	if !job.SkipExtract {
		extractID = outputMgr.RegisterStage("extract")
	}

	ws := workspace.New(job.ProjectDir)
	outputMgr.SetMessage(prepareID, fmt.Sprintf("Preparing %s", ws.TempDir))
	if err := ws.Prepare(); err != nil {
		outputMgr.ReportError(prepareID, err)
		return err
	}
	outputMgr.Complete(prepareID, fmt.Sprintf("Workspace %s ready", ws.TempDir))

	sourceType, err := utils.DetermineSourceType(job.Target.URL)
	if err != nil {
		outputMgr.ReportError(downloadID, err)
		return err
	}
	job.HTTPClientConfig.HighThreadMode = job.Target.Segments > 5
	source, err := sourceRegistry[sourceType](ctx, &job)
	if err != nil {
		outputMgr.ReportError(downloadID, err)
		return err
	}

	outputMgr.SetMessage(downloadID, fmt.Sprintf("Resolving %s", source.Location()))
	coordinator := segmented.NewCoordinator(source, segmented.Options{
		Interval:     job.ReportInterval,
		Retries:      job.Retries,
		StrictLength: job.StrictLength,
		Reporter:     outputMgr.SegmentReporter(downloadID),
	})
	finalPath, err := coordinator.Run(ctx, job.Target.Segments, ws.TempDir, utils.FileNameFromURL(job.Target.URL))
	if err != nil {
		log.Error().Err(err).Msg("Download failed")
		outputMgr.ReportError(downloadID, err)
		return err
	}
	outputMgr.Complete(downloadID, fmt.Sprintf("Downloaded %s", finalPath))

	if job.SkipExtract {
		log.Info().Str("file", finalPath).Msg("Extraction skipped")
		return nil
	}
	outputMgr.SetMessage(extractID, fmt.Sprintf("Extracting into %s", ws.RCCDir))
	if err := extract.TarXZ(ctx, finalPath, ws.RCCDir); err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		outputMgr.ReportError(extractID, err)
		return err
	}
	outputMgr.Complete(extractID, fmt.Sprintf("Extracted into %s", ws.RCCDir))
	log.Info().Str("dest", ws.RCCDir).Msg("Job complete")
	return nil
}
