package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/config"
	"github.com/dmitrijs2005/raddo/internal/manifest"
	"github.com/dmitrijs2005/raddo/internal/models"
	"github.com/dmitrijs2005/raddo/internal/store"
)

func execute(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{common.ErrAborted, ExitOK},
		{fmt.Errorf("%w: no answer", common.ErrAborted), ExitOK},
		{fmt.Errorf("%w: bad date", common.ErrInvalidConfig), ExitConfigError},
		{errors.New("disk full"), ExitFailure},
		{context.Canceled, ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestExecute_Version(t *testing.T) {
	code, out, _ := execute(t, "", "--version")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Build version:")
}

func TestExecute_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"bad flag value", []string{"--errors-allowed=abc"}},
		{"unknown flag", []string{"--frobnicate"}},
		{"positional argument", []string{"-d", dir, "extra"}},
		{"over the retry ceiling", []string{"-y", "-d", dir, "-r", "30"}},
		{"missing config file", []string{"-c", filepath.Join(dir, "nope.json")}},
		{"bad log level", []string{"-y", "-d", dir, "--log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, "", tt.args...)
			assert.Equal(t, ExitConfigError, code)
			assert.Contains(t, stderr, "invalid configuration")
		})
	}
}

func TestExecute_DeclinedExitsZero(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	code, out, _ := execute(t, "n\n", "-d", dir, "-s", "2024-03-07")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Exiting.")
	assert.NoDirExists(t, dir)
}

func TestExecute_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("archive"))
	}))
	t.Cleanup(srv.Close)
	dir := t.TempDir()

	code, out, stderr := execute(t, "",
		"-y", "-d", dir,
		"-u", srv.URL+"/recent/", "--historical-url", srv.URL+"/hist/",
		"-s", "yesterday", "-e", "yesterday",
		"--history-db", "-")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, out, "[SUCCESS]")

	names, err := manifest.New(dir).Read()
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func seedHistory(t *testing.T, dir string) string {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(dir, config.DefaultHistoryFile))
	require.NoError(t, err)
	defer st.Close()

	started := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	run := &models.Run{
		ID:         "9b2f6c1e-2c43-4e0e-9f51-0d3c4f1a2b3c",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		RangeStart: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		Root:       dir,
		KnownFrom:  "scan",
		Expected:   2,
		Missing:    2,
		Succeeded:  1,
		Failed:     1,
		Bytes:      2048,
	}
	files := []*models.RunFile{
		{RunID: run.ID, Seq: 0, Name: "RW-20240307.tar.gz", Archive: "RW-20240307.tar.gz", State: "succeeded", Source: "primary", Bytes: 2048},
		{RunID: run.ID, Seq: 1, Name: "RW-20240308.tar.gz", State: "failed", Attempts: 1, Error: "not found"},
	}
	require.NoError(t, st.Record(ctx, run, files))
	return run.ID
}

func TestExecute_History(t *testing.T) {
	dir := t.TempDir()
	id := seedHistory(t, dir)

	code, out, stderr := execute(t, "", "history", "-d", dir)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "2024-03-07 - 2024-03-08")

	code, out, stderr = execute(t, "", "history", "-d", dir, "--run", id)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, out, "RW-20240307.tar.gz")
	assert.Contains(t, out, "1 failed attempt(s): not found")

	code, _, _ = execute(t, "", "history", "-d", dir, "--run", "unknown")
	assert.Equal(t, ExitConfigError, code)
}

func TestExecute_HistoryEmptyAndDisabled(t *testing.T) {
	dir := t.TempDir()

	code, out, _ := execute(t, "", "history", "-d", dir)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "No runs recorded.")

	code, _, _ = execute(t, "", "history", "-d", dir, "--history-db", "-")
	assert.Equal(t, ExitConfigError, code)
}
