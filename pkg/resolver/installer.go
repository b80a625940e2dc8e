package resolver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/downgrade/pkg/download"
	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
)

// Defaults for the resolver source.
const (
	DefaultRepository = "https://github.com/StefanKarpinski/Resolver.jl.git"
	DefaultRevision   = "v0.2.0"
)

// Source tells the installer where the resolver comes from. The first
// non-empty of Dir, Archive and Repository wins.
type Source struct {
	// Dir is an existing resolver checkout; nothing is installed.
	Dir string
	// Archive is a local path or http(s) URL of a release archive.
	Archive string
	// Checksum is the hex SHA-256 of a downloaded Archive.
	Checksum   string
	Repository string
	Revision   string
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) error
}

// Installer makes a resolver checkout available and instantiates its
// Julia environment.
type Installer struct {
	Source     Source
	Julia      *Julia
	Downloader download.Manager
	Extractor  Extractor
	// RootDirFunc picks the checkout inside an extracted archive.
	RootDirFunc func(dir string) (string, error)
	// WorkDir receives clones and archives; empty means a fresh temp dir.
	WorkDir string
}

// Install returns the resolver directory and points the Julia resolver at it.
func (i *Installer) Install(ctx context.Context) (string, error) {
	if i.Julia == nil {
		return "", fmt.Errorf("%w: julia is not configured", pkgerrors.ErrResolverInstall)
	}

	dir, err := i.fetch(ctx)
	if err != nil {
		return "", err
	}

	binDir := filepath.Join(dir, "bin")
	logger.Info("instantiating resolver environment", logger.Fields{"dir": dir})
	cmd := i.Julia.command("--project="+binDir, "-e", "using Pkg; Pkg.instantiate()")
	if err := i.Julia.Runner.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("%w: instantiating %s: %w", pkgerrors.ErrResolverInstall, binDir, err)
	}

	i.Julia.Dir = dir
	return dir, nil
}

func (i *Installer) fetch(ctx context.Context) (string, error) {
	src := i.Source
	switch {
	case src.Dir != "":
		if info, err := os.Stat(src.Dir); err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: resolver directory %s does not exist", pkgerrors.ErrResolverInstall, src.Dir)
		}
		return filepath.Abs(src.Dir)
	case src.Archive != "":
		return i.fromArchive(ctx)
	default:
		return i.clone(ctx)
	}
}

func (i *Installer) workDir() (string, error) {
	if i.WorkDir != "" {
		return i.WorkDir, os.MkdirAll(i.WorkDir, 0o750)
	}
	dir, err := os.MkdirTemp("", "downgrade-resolver-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrResolverInstall, err)
	}
	i.WorkDir = dir
	return dir, nil
}

func (i *Installer) fromArchive(ctx context.Context) (string, error) {
	if i.Extractor == nil {
		return "", fmt.Errorf("%w: no archive extractor configured", pkgerrors.ErrResolverInstall)
	}
	work, err := i.workDir()
	if err != nil {
		return "", err
	}

	archivePath := i.Source.Archive
	if isURL(archivePath) {
		if i.Downloader == nil {
			return "", fmt.Errorf("%w: no downloader configured", pkgerrors.ErrResolverInstall)
		}
		u, err := url.Parse(archivePath)
		if err != nil {
			return "", fmt.Errorf("%w: archive url: %w", pkgerrors.ErrResolverInstall, err)
		}
		logger.Info("downloading resolver", logger.Fields{"url": archivePath})
		archivePath, err = i.Downloader.Fetch(ctx, download.Item{URL: u, Checksum: i.Source.Checksum}, download.Options{Dir: work})
		if err != nil {
			return "", fmt.Errorf("%w: %w", pkgerrors.ErrResolverInstall, err)
		}
	}

	dest := filepath.Join(work, "resolver")
	if err := i.Extractor.ExtractAll(ctx, archivePath, dest); err != nil {
		return "", fmt.Errorf("%w: extracting %s: %w", pkgerrors.ErrResolverInstall, archivePath, err)
	}
	if i.RootDirFunc == nil {
		return dest, nil
	}
	root, err := i.RootDirFunc(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrResolverInstall, err)
	}
	return root, nil
}

func (i *Installer) clone(ctx context.Context) (string, error) {
	repo, rev := i.Source.Repository, i.Source.Revision
	if repo == "" {
		repo = DefaultRepository
	}
	if rev == "" {
		rev = DefaultRevision
	}
	work, err := i.workDir()
	if err != nil {
		return "", err
	}
	dest := filepath.Join(work, "Resolver.jl")

	logger.Info("cloning resolver", logger.Fields{"repository": repo, "revision": rev})
	err = i.Julia.Runner.Run(ctx, Command{
		Name: "git",
		Args: []string{"clone", "--depth", "1", "--branch", rev, repo, dest},
	})
	if err != nil {
		return "", fmt.Errorf("%w: cloning %s@%s: %w", pkgerrors.ErrResolverInstall, repo, rev, err)
	}
	return dest, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
