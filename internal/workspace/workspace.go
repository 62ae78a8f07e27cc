package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tanq16/rccget/internal/utils"
)

// Workspace is the rcc/ directory under a project root and its temp/
// scratch directory for part files and the assembled archive.
type Workspace struct {
	RCCDir  string
	TempDir string
}

func New(projectDir string) Workspace {
	rccDir := filepath.Join(projectDir, utils.RCCDirName)
	return Workspace{
		RCCDir:  rccDir,
		TempDir: filepath.Join(rccDir, utils.TempDirName),
	}
}

// Prepare deletes any previous scratch directory and recreates it empty, so
// no part file from an earlier run can leak into a new assembly.
func (w Workspace) Prepare() error {
	log := utils.GetLogger("workspace")
	if err := os.RemoveAll(w.TempDir); err != nil {
		return fmt.Errorf("error clearing workspace: %v", err)
	}
	if err := os.MkdirAll(w.TempDir, 0755); err != nil {
		return fmt.Errorf("error creating workspace: %v", err)
	}
	log.Debug().Str("dir", w.TempDir).Msg("Workspace ready")
	return nil
}

func (w Workspace) Clean() error {
	_, err := os.Stat(w.TempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(w.TempDir)
}
