package resolver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/resolver"
	rsmocks "github.com/glorpus-work/downgrade/pkg/resolver/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: "", want: []string{"julia"}},
		{line: "   ", want: []string{"julia"}},
		{line: "julia", want: []string{"julia"}},
		{line: "julia +1.10 --startup-file=no", want: []string{"julia", "+1.10", "--startup-file=no"}},
		{line: `"/opt/my julia/bin/julia" -q`, want: []string{"/opt/my julia/bin/julia", "-q"}},
	}
	for _, tt := range tests {
		got, err := resolver.ParseCommand(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}

	_, err := resolver.ParseCommand(`julia "unterminated`)
	require.ErrorIs(t, err, pkgerrors.ErrConfigValidation)
}

func TestJuliaResolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)

	j, err := resolver.NewJulia("julia +1.10", "/opt/Resolver.jl", runner)
	require.NoError(t, err)

	project := t.TempDir()
	runner.EXPECT().Run(gomock.Any(), resolver.Command{
		Name: "julia",
		Args: []string{
			"+1.10",
			"--project=" + filepath.Join("/opt/Resolver.jl", "bin"),
			filepath.Join("/opt/Resolver.jl", "bin", "resolve.jl"),
			project,
			"--min=@alldeps",
			"--julia=1.10",
		},
		Dir: project,
	}).Return(nil)

	err = j.Resolve(context.Background(), resolver.Request{
		Dir:          project,
		Directive:    resolver.DirectiveAllDeps,
		JuliaVersion: "1.10",
	})
	require.NoError(t, err)
}

func TestJuliaResolve_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "/opt/Resolver.jl", runner)
	require.NoError(t, err)

	cause := errors.New("command failed: exit status 1")
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(cause)

	err = j.Resolve(context.Background(), resolver.Request{Dir: "/p", Directive: resolver.DirectiveDeps, JuliaVersion: "1.6"})
	require.ErrorIs(t, err, pkgerrors.ErrResolution)
	require.ErrorIs(t, err, cause)
}

func TestJuliaResolve_InvalidDirective(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "/opt/Resolver.jl", runner)
	require.NoError(t, err)

	err = j.Resolve(context.Background(), resolver.Request{Dir: "/p", Directive: "forcedeps"})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidMode)
}

func TestTargetJuliaVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	runner.EXPECT().Output(gomock.Any(), resolver.Command{
		Name: "julia",
		Args: []string{"-e", `print(VERSION.major, ".", VERSION.minor)`},
	}).Return("1.10\n", nil).Times(2)

	v, err := resolver.TargetJuliaVersion(context.Background(), j, "1")
	require.NoError(t, err)
	assert.Equal(t, "1.10", v)

	v, err = resolver.TargetJuliaVersion(context.Background(), j, "")
	require.NoError(t, err)
	assert.Equal(t, "1.10", v)

	v, err = resolver.TargetJuliaVersion(context.Background(), j, "1.6")
	require.NoError(t, err)
	assert.Equal(t, "1.6", v)

	_, err = resolver.TargetJuliaVersion(context.Background(), j, "lts")
	require.ErrorIs(t, err, pkgerrors.ErrInvalidJuliaVersion)
}

func TestTargetJuliaVersion_QueryFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "", runner)
	require.NoError(t, err)

	runner.EXPECT().Output(gomock.Any(), gomock.Any()).Return("", errors.New("julia: not found"))
	_, err = resolver.TargetJuliaVersion(context.Background(), j, "1")
	require.ErrorIs(t, err, pkgerrors.ErrInvalidJuliaVersion)

	runner.EXPECT().Output(gomock.Any(), gomock.Any()).Return("garbage", nil)
	_, err = resolver.TargetJuliaVersion(context.Background(), j, "1")
	require.ErrorIs(t, err, pkgerrors.ErrInvalidJuliaVersion)
}

func TestParseDirective(t *testing.T) {
	for _, s := range []string{"deps", "alldeps", "weakdeps"} {
		d, err := resolver.ParseDirective(s)
		require.NoError(t, err)
		assert.Equal(t, resolver.Directive(s), d)
	}
	_, err := resolver.ParseDirective("forcedeps")
	require.ErrorIs(t, err, pkgerrors.ErrInvalidMode)
}

func TestJuliaResolve_RelativeDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := rsmocks.NewMockRunner(ctrl)
	j, err := resolver.NewJulia("julia", "/opt/Resolver.jl", runner)
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "test"), 0o755))
	t.Chdir(root)
	want, err := filepath.Abs("test")
	require.NoError(t, err)

	var got resolver.Command
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cmd resolver.Command) error {
		got = cmd
		return nil
	})

	err = j.Resolve(context.Background(), resolver.Request{Dir: "test", Directive: resolver.DirectiveDeps, JuliaVersion: "1.6"})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got.Dir))
	assert.Equal(t, want, got.Dir)
	// The script receives the same directory it runs in, never a path
	// relative to it.
	assert.Equal(t, want, got.Args[2])
}
