package cli

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/config"
	"github.com/dmitrijs2005/raddo/internal/logging"
	"github.com/dmitrijs2005/raddo/internal/manifest"
	"github.com/dmitrijs2005/raddo/internal/mirror"
	"github.com/dmitrijs2005/raddo/internal/store"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// fileServer serves fixed bodies by path and 404 for everything else.
type fileServer struct {
	*httptest.Server

	mu   sync.Mutex
	hits int
}

func newFileServer(t *testing.T, files map[string][]byte) *fileServer {
	t.Helper()
	s := &fileServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()

		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *fileServer) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func dayArchive(t *testing.T, day string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for _, name := range []string{"RW-" + day + "-0050.asc", "RW-" + day + "-0150.asc"} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: 2, Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte("h0"))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var gzBuf bytes.Buffer
	zw := gzip.NewWriter(&gzBuf)
	_, err := zw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return gzBuf.Bytes()
}

func monthArchive(t *testing.T, days ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, d := range days {
		body := dayArchive(t, d)
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: "RW-" + d + ".tar.gz", Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func testConfig(srv *fileServer, dir string) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.PrimaryURL = srv.URL + "/recent/"
	c.FallbackURL = srv.URL + "/hist/"
	c.Directory = dir
	c.Start = "2024-03-07"
	c.End = "2024-03-08"
	c.ErrorsAllowed = 0
	c.RetryDelay = 0
	c.Yes = true
	return c
}

func newTestApp(t *testing.T, c *config.Config, input string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a := NewApp(c, strings.NewReader(input), &out, logging.Nop())
	a.now = func() time.Time { return testNow }
	a.getwd = func() (string, error) { return "/somewhere/else", nil }
	return a, &out
}

type fakeUploader struct {
	names []string
}

func (f *fakeUploader) Upload(_ context.Context, _ string, names []string) mirror.Result {
	f.names = append(f.names, names...)
	return mirror.Result{Uploaded: names}
}

func TestRun_DownloadsSortsAndExtracts(t *testing.T) {
	srv := newFileServer(t, map[string][]byte{
		"/recent/RW-20240307.tar.gz": dayArchive(t, "20240307"),
		"/recent/RW-20240308.tar.gz": dayArchive(t, "20240308"),
	})
	tmp := t.TempDir()
	root := filepath.Join(tmp, "radolan")

	c := testConfig(srv, root)
	c.Complete = true
	c.MetricsFile = filepath.Join(tmp, "raddo.prom")

	a, out := newTestApp(t, c, "")
	require.NoError(t, a.Run(context.Background()))

	monthDir := filepath.Join(root, "2024", "RW-202403")
	assert.FileExists(t, filepath.Join(monthDir, "RW-20240307.tar.gz"))
	assert.FileExists(t, filepath.Join(monthDir, "RW-20240308.tar.gz"))
	assert.FileExists(t, filepath.Join(monthDir, "RW-20240307", "RW-20240307-0050.asc"))
	assert.NoFileExists(t, filepath.Join(root, "RW-20240307.tar.gz"))

	assert.Contains(t, out.String(), "2 archive(s) sorted into folders.")
	assert.Contains(t, out.String(), "4 raster file(s) in range.")
	assert.FileExists(t, c.MetricsFile)
	assert.FileExists(t, filepath.Join(root, manifest.FileName))

	st, err := store.Open(context.Background(), filepath.Join(root, config.DefaultHistoryFile))
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.Runs.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Succeeded)
	assert.Equal(t, 0, runs[0].Failed)
}

func TestRun_CompleteExtractsMonthArchiveNextToDayFolder(t *testing.T) {
	srv := newFileServer(t, map[string][]byte{
		"/recent/RW-20240307.tar.gz": dayArchive(t, "20240307"),
		"/hist/2024/RW-202403.tar":   monthArchive(t, "20240308"),
	})
	root := t.TempDir()

	c := testConfig(srv, root)
	c.Complete = true
	c.HistoryDB = config.HistoryDisabled

	a, out := newTestApp(t, c, "")
	require.NoError(t, a.Run(context.Background()))

	assert.FileExists(t, filepath.Join(root, "2024", "RW-202403.tar"))
	assert.FileExists(t, filepath.Join(root, "2024", "RW-202403", "RW-20240307", "RW-20240307-0050.asc"))
	assert.FileExists(t, filepath.Join(root, "2024", "RW-202403.d", "RW-20240308", "RW-20240308-0050.asc"))
	assert.Contains(t, out.String(), "3 archive(s) extracted, 0 already extracted, 4 raster file(s) in range.")
	assert.Contains(t, out.String(), "1 day(s) covered by month archives.")
	assert.NotContains(t, out.String(), "Extract them")
}

func TestRun_FailedFilesAreNotAnError(t *testing.T) {
	srv := newFileServer(t, map[string][]byte{
		"/recent/RW-20240307.tar.gz": dayArchive(t, "20240307"),
	})
	root := t.TempDir()

	c := testConfig(srv, root)
	c.HistoryDB = config.HistoryDisabled

	a, out := newTestApp(t, c, "")
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "1 file(s) could not be retrieved")
	assert.NoFileExists(t, filepath.Join(root, config.DefaultHistoryFile))
}

func TestRun_InvalidConfig(t *testing.T) {
	srv := newFileServer(t, nil)

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"errors allowed above ceiling", func(c *config.Config) { c.ErrorsAllowed = 21 }},
		{"inverted range", func(c *config.Config) { c.Start, c.End = "2024-03-08", "2024-03-01" }},
		{"bad date", func(c *config.Config) { c.Start = "qwerty" }},
		{"empty url", func(c *config.Config) { c.PrimaryURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(srv, t.TempDir())
			tt.mutate(c)

			a, _ := newTestApp(t, c, "")
			err := a.Run(context.Background())
			require.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
	assert.Zero(t, srv.total())
}

func TestRun_DeclinedPromptAborts(t *testing.T) {
	srv := newFileServer(t, nil)
	root := filepath.Join(t.TempDir(), "missing")

	c := testConfig(srv, root)
	c.Yes = false

	a, out := newTestApp(t, c, "n\n")
	err := a.Run(context.Background())
	require.ErrorIs(t, err, common.ErrAborted)

	assert.Contains(t, out.String(), "does not exist. Should it be created?")
	assert.NoDirExists(t, root)
	assert.Zero(t, srv.total())
}

func TestRun_PromptsAccepted(t *testing.T) {
	srv := newFileServer(t, nil)
	root := t.TempDir()

	c := testConfig(srv, root)
	c.Yes = false
	c.Start = ""
	c.HistoryDB = config.HistoryDisabled

	a, out := newTestApp(t, c, "y\nY\n")
	a.getwd = func() (string, error) { return root, nil }

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Store data in the current directory")
	assert.Contains(t, out.String(), "Download data of the last two weeks?")
	assert.NotContains(t, out.String(), "Should it be created?")
	assert.NotZero(t, srv.total())
}

func TestRun_NoAnswerOnPipedInput(t *testing.T) {
	srv := newFileServer(t, nil)
	c := testConfig(srv, filepath.Join(t.TempDir(), "missing"))
	c.Yes = false

	a, _ := newTestApp(t, c, "")
	err := a.Run(context.Background())
	require.ErrorIs(t, err, common.ErrAborted)
	assert.Contains(t, err.Error(), "--yes")
}

func TestRun_MirrorsOnlyFetchedArchives(t *testing.T) {
	srv := newFileServer(t, map[string][]byte{
		"/recent/RW-20240307.tar.gz": dayArchive(t, "20240307"),
	})
	root := t.TempDir()

	// The month archive is on disk but not in the manifest, so the engine
	// finds it only after RW-20240308 is reported missing upstream.
	_, err := manifest.New(root).Create(nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "RW-202403.tar"), []byte("month"), 0o644))

	c := testConfig(srv, root)
	c.HistoryDB = config.HistoryDisabled
	c.S3.Bucket = "radolan"

	up := &fakeUploader{}
	a, out := newTestApp(t, c, "")
	a.newMirror = func(context.Context, config.S3Config, logging.Logger) (archiveUploader, error) {
		return up, nil
	}

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, []string{"RW-20240307.tar.gz"}, up.names)
	assert.Contains(t, out.String(), "1 archive(s) mirrored to s3://radolan.")
}

func TestRun_MirrorDisabledWithoutBucket(t *testing.T) {
	srv := newFileServer(t, map[string][]byte{
		"/recent/RW-20240307.tar.gz": dayArchive(t, "20240307"),
		"/recent/RW-20240308.tar.gz": dayArchive(t, "20240308"),
	})
	c := testConfig(srv, t.TempDir())
	c.HistoryDB = config.HistoryDisabled

	a, _ := newTestApp(t, c, "")
	a.newMirror = func(context.Context, config.S3Config, logging.Logger) (archiveUploader, error) {
		t.Fatal("mirror must not be built without a bucket")
		return nil, nil
	}
	require.NoError(t, a.Run(context.Background()))
}

func TestRun_CancelledContext(t *testing.T) {
	srv := newFileServer(t, nil)
	c := testConfig(srv, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, _ := newTestApp(t, c, "")
	err := a.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExitFailure, ExitCode(err))
}
