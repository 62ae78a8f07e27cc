package scheduler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/rccget/internal/downloaders/segmented"
	"github.com/tanq16/rccget/internal/testutils"
	"github.com/tanq16/rccget/internal/utils"
)

func toolchainArchive(t *testing.T) []byte {
	t.Helper()
	return testutils.BuildTarXZ(t, []testutils.TarEntry{
		{Name: "sparc-rtems5/"},
		{Name: "sparc-rtems5/bin/sparc-rtems5-gcc", Body: string(testutils.GenerateTestData(20000)), Mode: 0755},
		{Name: "sparc-rtems5/VERSION", Body: "1.3.1\n"},
	})
}

func testJob(url, projectDir string, segments int) utils.FetchJob {
	return utils.FetchJob{
		Target:           utils.Target{URL: url, Segments: segments},
		ProjectDir:       projectDir,
		ReportInterval:   10 * time.Millisecond,
		HTTPClientConfig: utils.HTTPClientConfig{Timeout: 10 * time.Second},
	}
}

func TestRunDownloadsAndExtracts(t *testing.T) {
	archive := toolchainArchive(t)
	rs := testutils.NewRangeServer(t, archive, testutils.ServerOptions{})
	projectDir := t.TempDir()

	require.NoError(t, Run(context.Background(), testJob(rs.URL+"/rcc.txz", projectDir, 4)))

	version, err := os.ReadFile(filepath.Join(projectDir, "rcc", "sparc-rtems5", "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "1.3.1\n", string(version))

	assembled, err := os.ReadFile(filepath.Join(projectDir, "rcc", "temp", "rcc.txz"))
	require.NoError(t, err)
	assert.Equal(t, archive, assembled)
	for i := range 4 {
		assert.NoFileExists(t, segmented.PartPath(filepath.Join(projectDir, "rcc", "temp"), i))
	}
}

func TestRunIsRepeatable(t *testing.T) {
	rs := testutils.NewRangeServer(t, toolchainArchive(t), testutils.ServerOptions{})
	projectDir := t.TempDir()
	job := testJob(rs.URL+"/rcc.txz", projectDir, 3)

	require.NoError(t, Run(context.Background(), job))
	stale := filepath.Join(projectDir, "rcc", "temp", "part9.zip")
	require.NoError(t, os.WriteFile(stale, []byte("left over"), 0644))

	require.NoError(t, Run(context.Background(), job))
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(projectDir, "rcc", "sparc-rtems5", "bin", "sparc-rtems5-gcc"))
}

func TestRunFailedSegmentSkipsExtraction(t *testing.T) {
	archive := toolchainArchive(t)
	failing := segmented.Partition(int64(len(archive)), 4, "")[2].StartByte
	rs := testutils.NewRangeServer(t, archive, testutils.ServerOptions{
		FailStart: map[int64]int{failing: http.StatusInternalServerError},
	})
	projectDir := t.TempDir()

	err := Run(context.Background(), testJob(rs.URL+"/rcc.txz", projectDir, 4))
	require.ErrorIs(t, err, utils.ErrSegmentFailed)
	assert.Equal(t, []int{2}, utils.FailedSegments(err))
	assert.NoFileExists(t, filepath.Join(projectDir, "rcc", "temp", "rcc.txz"))
	assert.NoDirExists(t, filepath.Join(projectDir, "rcc", "sparc-rtems5"))
}

func TestRunRetriesRecoverSegment(t *testing.T) {
	archive := toolchainArchive(t)
	rs := testutils.NewRangeServer(t, archive, testutils.ServerOptions{
		FailStart: map[int64]int{0: http.StatusBadGateway},
		FailTimes: 1,
	})
	job := testJob(rs.URL+"/rcc.txz", t.TempDir(), 2)
	job.Retries = 2

	require.NoError(t, Run(context.Background(), job))
}

func TestRunSkipExtract(t *testing.T) {
	archive := toolchainArchive(t)
	rs := testutils.NewRangeServer(t, archive, testutils.ServerOptions{})
	projectDir := t.TempDir()
	job := testJob(rs.URL+"/rcc.txz", projectDir, 2)
	job.SkipExtract = true

	require.NoError(t, Run(context.Background(), job))
	assert.FileExists(t, filepath.Join(projectDir, "rcc", "temp", "rcc.txz"))
	assert.NoDirExists(t, filepath.Join(projectDir, "rcc", "sparc-rtems5"))
}

func TestRunCorruptArchive(t *testing.T) {
	rs := testutils.NewRangeServer(t, testutils.GenerateTestData(5000), testutils.ServerOptions{})
	err := Run(context.Background(), testJob(rs.URL+"/rcc.txz", t.TempDir(), 2))
	assert.ErrorIs(t, err, utils.ErrExtraction)
}

func TestRunUnsupportedScheme(t *testing.T) {
	err := Run(context.Background(), testJob("ftp://example.com/rcc.txz", t.TempDir(), 2))
	assert.ErrorIs(t, err, utils.ErrUnsupportedScheme)
}
