package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/fsutil"
	"github.com/glorpus-work/downgrade/pkg/logger"
)

// Snapshot is the original content of a project file captured before it was
// rewritten. The zero value means the file was left untouched.
type Snapshot struct {
	Path    string
	Content []byte
	digest  uint64
	changed bool
}

// Changed reports whether Strip rewrote the file.
func (s Snapshot) Changed() bool { return s.changed }

// Strip rewrites the project file at path without the excluded packages and
// returns the original bytes. With nothing to exclude the file is not touched
// and the zero Snapshot is returned.
func Strip(path string, excluded PackageSet) (Snapshot, error) {
	if len(excluded) == 0 {
		return Snapshot{}, nil
	}

	original, err := os.ReadFile(path) //nolint:gosec // project file chosen by the caller
	if err != nil {
		return Snapshot{}, pkgerrors.Wrapf(err, "reading %s", path)
	}
	m, err := Parse(original)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(err, path)
	}
	m.Path = path
	m.Remove(excluded)

	if err := m.Save(path); err != nil {
		return Snapshot{}, err
	}

	logger.Debug("removed source packages from project", logger.Fields{
		"project":  path,
		"packages": excluded.Sorted(),
	})
	return Snapshot{
		Path:    path,
		Content: original,
		digest:  xxhash.Sum64(original),
		changed: true,
	}, nil
}

// Restore writes the captured bytes back verbatim and checks that the file
// on disk matches them afterwards. It is a no-op for an unchanged Snapshot.
func Restore(s Snapshot) error {
	if !s.changed {
		return nil
	}
	if err := fsutil.WriteFileAtomic(s.Path, s.Content); err != nil {
		return fmt.Errorf("%w: restoring %s: %w", pkgerrors.ErrManifestWrite, s.Path, err)
	}
	written, err := os.ReadFile(s.Path)
	if err != nil {
		return pkgerrors.Wrapf(err, "re-reading %s", s.Path)
	}
	if xxhash.Sum64(written) != s.digest {
		return fmt.Errorf("%s: %w", s.Path, pkgerrors.ErrRestoreMismatch)
	}
	logger.Debug("restored project file", logger.Fields{"project": s.Path})
	return nil
}

// WithStripped runs fn while the project file at path has the excluded
// packages removed. The original content is restored on every exit path,
// including a failing or panicking fn; restore errors are joined with fn's.
func WithStripped(path string, excluded PackageSet, fn func() error) (err error) {
	snap, err := Strip(path, excluded)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := Restore(snap); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	return fn()
}
