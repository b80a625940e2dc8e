package compat

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowerBound_Operators(t *testing.T) {
	for _, op := range []string{"", "^", "~", "="} {
		for _, tc := range []struct {
			in   string
			want string
		}{
			{in: "0.21", want: "0.21.0"},
			{in: "1.2.3", want: "1.2.3"},
			{in: "3", want: "3.0.0"},
			{in: "10.0.12", want: "10.0.12"},
		} {
			t.Run(fmt.Sprintf("%q%s", op, tc.in), func(t *testing.T) {
				v, err := LowerBound(op + tc.in)
				require.NoError(t, err)
				assert.Equal(t, tc.want, v.String())
			})
		}
	}
}

func TestLowerBound_FirstAlternativeOnly(t *testing.T) {
	tests := map[string]string{
		"0.20, 0.21":        "0.20.0",
		"0.20,0.21":         "0.20.0",
		" ^1.5 , 2":         "1.5.0",
		"0.3, 1.2 - 1.5":    "0.3.0",
		"~0.9.1, 1, 2, 3.4": "0.9.1",
	}
	for in, want := range tests {
		v, err := LowerBound(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v.String(), in)
	}
}

func TestLowerBound_Rejected(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{in: "1.2 - 1.5", want: ErrHyphenRange},
		{in: "1.2-1.5", want: ErrHyphenRange},
		{in: "0.7 - 0.9, 1", want: ErrHyphenRange},
		{in: ">= 1.0", want: ErrUnrecognized},
		{in: "<2", want: ErrUnrecognized},
		{in: "", want: ErrUnrecognized},
		{in: "abc", want: ErrUnrecognized},
		{in: "1.x", want: ErrInvalidVersion},
		{in: "1.2.3.4", want: ErrInvalidVersion},
		{in: "^1.2.3.4, 2", want: ErrInvalidVersion},
		{in: "1.2+build", want: ErrInvalidVersion},
		{in: "1.2.3+meta.1", want: ErrInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := LowerBound(tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, v)
		})
	}
}

func TestLowerBounds(t *testing.T) {
	entries := map[string]string{
		"julia":            "1.10",
		"JSON":             "0.20, 0.21",
		"JuMP":             "1.0",
		"MathOptInterface": "1.0",
		"Plots":            "1.2 - 1.5",
		"Weird":            ">= 0.3",
		"Local":            "0.1",
	}

	bounds := LowerBounds(entries, project.NewPackageSet("Local"))

	assert.Equal(t, []string{"JSON", "JuMP", "MathOptInterface"}, bounds.Names())
	assert.Equal(t, "0.20.0", bounds["JSON"].String())
	assert.NotContains(t, bounds, "julia")
	assert.NotContains(t, bounds, "Plots")
	assert.NotContains(t, bounds, "Local")
}

func TestLowerBoundsFromText(t *testing.T) {
	text := `name = "Example"

[compat]
# key order does not matter
julia = "1.6"
MathOptInterface = "1.0"
JuMP = "1.0"
JSON = "0.21"
`
	bounds, err := LowerBoundsFromText(text, nil)
	require.NoError(t, err)
	require.Len(t, bounds, 3)
	assert.Equal(t, "1.0.0", bounds["JuMP"].String())
	assert.Equal(t, "0.21.0", bounds["JSON"].String())

	_, err = LowerBoundsFromText("[compat\nJSON = ", nil)
	require.ErrorIs(t, err, pkgerrors.ErrManifestParse)

	bounds, err = LowerBoundsFromText("name = \"NoCompat\"\n", nil)
	require.NoError(t, err)
	assert.Empty(t, bounds)
}

func TestLowerBoundsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Project.toml")
	require.NoError(t, os.WriteFile(path, []byte("[compat]\nJSON = \"~0.21.3\"\n"), 0o644))

	bounds, err := LowerBoundsFromFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.21.3", bounds["JSON"].String())

	_, err = LowerBoundsFromFile(filepath.Join(t.TempDir(), "Project.toml"), nil)
	require.ErrorIs(t, err, pkgerrors.ErrProjectNotFound)
}
