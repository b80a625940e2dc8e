package resolver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/downgrade/pkg/download"
	dlmocks "github.com/glorpus-work/downgrade/pkg/download/mocks"
	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/resolver"
	rsmocks "github.com/glorpus-work/downgrade/pkg/resolver/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeExtractor struct {
	archive string
	dest    string
	err     error
}

func (f *fakeExtractor) ExtractAll(_ context.Context, archivePath, destDir string) error {
	f.archive, f.dest = archivePath, destDir
	if f.err != nil {
		return f.err
	}
	return os.MkdirAll(filepath.Join(destDir, "Resolver.jl-0.2.0", "bin"), 0o755)
}

func instantiateCall(dir string) resolver.Command {
	return resolver.Command{
		Name: "julia",
		Args: []string{"--project=" + filepath.Join(dir, "bin"), "-e", "using Pkg; Pkg.instantiate()"},
	}
}

func TestInstall_ExistingDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	dir := t.TempDir()
	runner.EXPECT().Run(gomock.Any(), instantiateCall(dir)).Return(nil)

	inst := &resolver.Installer{Source: resolver.Source{Dir: dir}, Julia: j}
	got, err := inst.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.Equal(t, dir, j.Dir)
}

func TestInstall_MissingDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	inst := &resolver.Installer{Source: resolver.Source{Dir: filepath.Join(t.TempDir(), "missing")}, Julia: j}
	_, err = inst.Install(context.Background())
	require.ErrorIs(t, err, pkgerrors.ErrResolverInstall)
}

func TestInstall_GitClone(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	work := t.TempDir()
	dest := filepath.Join(work, "Resolver.jl")
	gomock.InOrder(
		runner.EXPECT().Run(gomock.Any(), resolver.Command{
			Name: "git",
			Args: []string{"clone", "--depth", "1", "--branch", resolver.DefaultRevision, resolver.DefaultRepository, dest},
		}).Return(nil),
		runner.EXPECT().Run(gomock.Any(), instantiateCall(dest)).Return(nil),
	)

	inst := &resolver.Installer{Julia: j, WorkDir: work}
	got, err := inst.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dest, got)
}

func TestInstall_CloneFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(errors.New("exit status 128"))

	inst := &resolver.Installer{
		Source:  resolver.Source{Repository: "https://example.com/Resolver.jl.git", Revision: "main"},
		Julia:   j,
		WorkDir: t.TempDir(),
	}
	_, err = inst.Install(context.Background())
	require.ErrorIs(t, err, pkgerrors.ErrResolverInstall)
	assert.Contains(t, err.Error(), "https://example.com/Resolver.jl.git@main")
}

func TestInstall_LocalArchive(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	work := t.TempDir()
	root := filepath.Join(work, "resolver", "Resolver.jl-0.2.0")
	runner.EXPECT().Run(gomock.Any(), instantiateCall(root)).Return(nil)

	ex := &fakeExtractor{}
	inst := &resolver.Installer{
		Source:    resolver.Source{Archive: "/tmp/resolver.tar.gz"},
		Julia:     j,
		Extractor: ex,
		RootDirFunc: func(dir string) (string, error) {
			return filepath.Join(dir, "Resolver.jl-0.2.0"), nil
		},
		WorkDir: work,
	}
	got, err := inst.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.Equal(t, "/tmp/resolver.tar.gz", ex.archive)
}

func TestInstall_ArchiveURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	dl := dlmocks.NewMockManager(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	work := t.TempDir()
	fetched := filepath.Join(work, "v0.2.0.tar.gz")
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), download.Options{Dir: work}).DoAndReturn(
		func(_ context.Context, item download.Item, _ download.Options) (string, error) {
			assert.Equal(t, "https://example.com/archive/v0.2.0.tar.gz", item.URL.String())
			assert.Equal(t, "abc123", item.Checksum)
			return fetched, nil
		},
	)
	runner.EXPECT().Run(gomock.Any(), instantiateCall(filepath.Join(work, "resolver"))).Return(nil)

	ex := &fakeExtractor{}
	inst := &resolver.Installer{
		Source:     resolver.Source{Archive: "https://example.com/archive/v0.2.0.tar.gz", Checksum: "abc123"},
		Julia:      j,
		Downloader: dl,
		Extractor:  ex,
		WorkDir:    work,
	}
	_, err = inst.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetched, ex.archive)
}

func TestInstall_DownloadFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	dl := dlmocks.NewMockManager(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return("", pkgerrors.ErrChecksum)

	inst := &resolver.Installer{
		Source:     resolver.Source{Archive: "https://example.com/r.tar.gz", Checksum: "00"},
		Julia:      j,
		Downloader: dl,
		Extractor:  &fakeExtractor{},
		WorkDir:    t.TempDir(),
	}
	_, err = inst.Install(context.Background())
	require.ErrorIs(t, err, pkgerrors.ErrResolverInstall)
	require.ErrorIs(t, err, pkgerrors.ErrChecksum)
}

func TestInstall_InstantiateFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(errors.New("exit status 1"))

	inst := &resolver.Installer{Source: resolver.Source{Dir: t.TempDir()}, Julia: j}
	_, err = inst.Install(context.Background())
	require.ErrorIs(t, err, pkgerrors.ErrResolverInstall)
	assert.Empty(t, j.Dir)
}
