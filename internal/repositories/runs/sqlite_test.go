package runs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/migrations"
	"github.com/dmitrijs2005/raddo/internal/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

func testRun(id string, started time.Time) *models.Run {
	return &models.Run{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		RangeStart: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		Root:       "/data",
		KnownFrom:  "manifest",
		Expected:   31,
		Missing:    2,
		Succeeded:  1,
		Failed:     1,
		Bytes:      4096,
		LegacyData: true,
	}
}

func TestCreateAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	started := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	want := testRun("r1", started)
	require.NoError(t, r.Create(ctx, want))

	got, err := r.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = r.Get(ctx, "absent")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.Error(t, r.Create(ctx, want), "duplicate id")
}

func TestList_NewestFirst(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, r.Create(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := r.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[2].ID)

	two, err := r.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "mid", two[1].ID)
}

func TestAddFilesAndFiles(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, testRun("r1", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))))

	files := []*models.RunFile{
		{RunID: "r1", Seq: 0, Name: "RW-20200101.tar.gz", Archive: "RW-202001.tar", State: "succeeded", Source: "fallback", Bytes: 4096, Duration: 1500 * time.Millisecond},
		{RunID: "r1", Seq: 1, Name: "RW-20200102.tar.gz", Archive: "RW-202001.tar", State: "covered"},
		{RunID: "r1", Seq: 2, Name: "RW-20200201.tar.gz", State: "failed", Attempts: 6, Error: "503 Service Unavailable"},
	}
	require.NoError(t, r.AddFiles(ctx, files))

	got, err := r.Files(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, files, got)

	none, err := r.Files(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, none)
}
