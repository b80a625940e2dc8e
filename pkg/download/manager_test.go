package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	m := NewManager(time.Second, "")
	require.NotNil(t, m)
	assert.Equal(t, time.Second, m.client.Timeout)
	assert.Equal(t, "downgrade/1.0", m.userAgent)

	m = NewManager(2*time.Second, "ci/2.0")
	assert.Equal(t, "ci/2.0", m.userAgent)
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "downgrade/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFetch(t *testing.T) {
	body := "resolver archive"
	sum := sha256.Sum256([]byte(body))
	checksum := hex.EncodeToString(sum[:])

	tests := []struct {
		name     string
		status   int
		checksum string
		wantErr  error
	}{
		{name: "plain download", status: http.StatusOK},
		{name: "matching checksum", status: http.StatusOK, checksum: " " + checksum + " "},
		{name: "checksum mismatch", status: http.StatusOK, checksum: "deadbeef", wantErr: pkgerrors.ErrChecksum},
		{name: "http error", status: http.StatusNotFound, wantErr: pkgerrors.ErrDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, body)
			dir := t.TempDir()
			m := NewManager(5*time.Second, "")

			got, err := m.Fetch(context.Background(), Item{
				URL:      mustURL(t, srv.URL+"/releases/resolver.tar.gz"),
				Checksum: tt.checksum,
			}, Options{Dir: dir})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				entries, readErr := os.ReadDir(dir)
				require.NoError(t, readErr)
				assert.Empty(t, entries, "failed downloads must not leave files behind")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "resolver.tar.gz"), got)
			data, err := os.ReadFile(got)
			require.NoError(t, err)
			assert.Equal(t, body, string(data))
		})
	}
}

func TestFetch_RelativeDir(t *testing.T) {
	m := NewManager(time.Second, "")
	_, err := m.Fetch(context.Background(), Item{URL: mustURL(t, "http://example.invalid/a.tar.gz")}, Options{Dir: "relative"})
	require.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)
}

func TestFetch_NilURL(t *testing.T) {
	m := NewManager(time.Second, "")
	_, err := m.Fetch(context.Background(), Item{}, Options{Dir: t.TempDir()})
	require.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)
}

func TestSelectFilename(t *testing.T) {
	assert.Equal(t, "custom.tgz", selectFilename(Item{URL: mustURL(t, "https://x/y.tgz"), Filename: "custom.tgz"}))
	assert.Equal(t, "y.tgz", selectFilename(Item{URL: mustURL(t, "https://x/y.tgz")}))
	assert.Len(t, selectFilename(Item{URL: mustURL(t, "https://x")}), 64)
}
