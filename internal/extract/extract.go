package extract

import (
	"archive/tar"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tanq16/rccget/internal/utils"
	"github.com/ulikunitz/xz"
)

// TarXZ unpacks an xz-compressed tar stream at archivePath into destDir.
// Entries that would land outside destDir are rejected.
func TarXZ(ctx context.Context, archivePath, destDir string) error {
	log := utils.GetLogger("extract")
	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrExtraction, err)
	}
	defer archive.Close()

	xzReader, err := xz.NewReader(bufio.NewReader(archive))
	if err != nil {
		return fmt.Errorf("%w: error opening xz stream: %v", utils.ErrExtraction, err)
	}
	root, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrExtraction, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrExtraction, err)
	}

	tarReader := tar.NewReader(xzReader)
	entries := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", utils.ErrExtraction, err)
		}
		hdr, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: error reading tar entry: %v", utils.ErrExtraction, err)
		}
		if err := extractEntry(log, tarReader, hdr, root); err != nil {
			return fmt.Errorf("%w: %s: %v", utils.ErrExtraction, hdr.Name, err)
		}
		entries++
	}
	log.Debug().Int("entries", entries).Str("dest", root).Msg("Extraction finished")
	return nil
}

func extractEntry(log zerolog.Logger, r io.Reader, hdr *tar.Header, root string) error {
	target, err := safeJoin(root, hdr.Name)
	if err != nil {
		return err
	}
	if err := checkParents(root, target); err != nil {
		return err
	}
	mode := hdr.FileInfo().Mode()
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode.Perm()|0700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := removeSymlink(target); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		return os.Chtimes(target, hdr.ModTime, hdr.ModTime)
	case tar.TypeSymlink:
		if filepath.IsAbs(hdr.Linkname) {
			return fmt.Errorf("absolute link target %q", hdr.Linkname)
		}
		if _, err := safeJoin(root, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		os.Remove(target)
		return os.Symlink(hdr.Linkname, target)
	case tar.TypeLink:
		source, err := safeJoin(root, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := checkParents(root, source); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		os.Remove(target)
		return os.Link(source, target)
	}
	log.Debug().Str("entry", hdr.Name).Int("type", int(hdr.Typeflag)).Msg("Skipping unsupported entry type")
	return nil
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry escapes destination directory")
	}
	return target, nil
}

// checkParents walks the directories between root and target and refuses
// any that is a symlink, since writing through it could leave root.
func checkParents(root, target string) error {
	if target == root {
		return nil
	}
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	current := root
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("entry path passes through symlink %s", current)
		}
	}
	return nil
}

// removeSymlink drops an existing symlink at target so the file is written in
// place instead of at the link's destination.
func removeSymlink(target string) error {
	info, err := os.Lstat(target)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	return os.Remove(target)
}
