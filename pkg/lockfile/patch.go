package lockfile

import (
	"bytes"
	"fmt"
	"os"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/fsutil"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/google/uuid"
)

// AddMainPackage appends a path record for the main package to the lock file
// at lockPath so workspace tooling finds every member. Existing content is
// kept byte for byte. It reports whether a record was written; a missing
// lock file or a main project without name or uuid is skipped with a
// warning, as is a package that already has a record.
func AddMainPackage(lockPath string, main *project.Manifest) (bool, error) {
	name, id := main.Name(), main.UUID()
	if name == "" || id == "" {
		logger.Warn("main project has no name or uuid, not adding it to the lock file", logger.Fields{
			"project":  main.Path,
			"lockfile": lockPath,
		})
		return false, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		logger.Warn("main project uuid is invalid, not adding it to the lock file", logger.Fields{
			"project": main.Path,
			"uuid":    id,
		})
		return false, nil
	}

	data, err := os.ReadFile(lockPath) //nolint:gosec // lock file written by the resolver
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("lock file not found, not adding main package", logger.Fields{
				"lockfile": lockPath,
				"package":  name,
			})
			return false, nil
		}
		return false, pkgerrors.Wrapf(err, "reading %s", lockPath)
	}

	f, err := Parse(data)
	if err != nil {
		return false, pkgerrors.Wrap(err, lockPath)
	}
	if f.Has(name) {
		logger.Debug("main package already recorded", logger.Fields{"package": name, "lockfile": lockPath})
		return false, nil
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(mainRecord(f.IsV2(), name, id, main.Version()))

	if err := fsutil.WriteFileAtomic(lockPath, buf.Bytes()); err != nil {
		return false, fmt.Errorf("%w: %w", pkgerrors.ErrManifestWrite, err)
	}
	logger.Info("added main package to lock file", logger.Fields{"package": name, "lockfile": lockPath})
	return true, nil
}

func mainRecord(v2 bool, name, id, ver string) string {
	header := "[[" + name + "]]"
	if v2 {
		header = "[[" + DepsSection + "." + name + "]]"
	}
	record := fmt.Sprintf("\n%s\npath = \".\"\nuuid = %q\n", header, id)
	if ver != "" {
		record += fmt.Sprintf("version = %q\n", ver)
	}
	return record
}
