package output

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *SQLWriter {
	t.Helper()
	w, err := OpenSQL(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestSQLWriter_SQLite(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, bluthRecords()))

	var name string
	var employees int
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT "Name", "Employees" FROM "Account" WHERE id = 1`).Scan(&name, &employees))
	assert.Equal(t, "The Bluth Company", name)
	assert.Equal(t, 12, employees)

	var accountID int
	var birthdate string
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT "AccountId", "Birthdate" FROM "Contact" WHERE id = 1`).Scan(&accountID, &birthdate))
	assert.Equal(t, 1, accountID, "references are stored as ids")
	assert.Equal(t, "1970-05-04", birthdate)
}

func TestSQLWriter_NewColumnsAcrossBatches(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, []domain.GeneratedRecord{
		{ObjectType: "Lead", ID: 1, Values: []domain.FieldValue{{Name: "Company", Value: "Bluth"}}},
	}))
	require.NoError(t, w.Write(ctx, []domain.GeneratedRecord{
		{ObjectType: "Lead", ID: 2, Values: []domain.FieldValue{{Name: "Company", Value: "Sitwell"}, {Name: "Rating", Value: "Hot"}}},
	}))

	var n int
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "Lead"`).Scan(&n))
	assert.Equal(t, 2, n)

	var rating string
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT "Rating" FROM "Lead" WHERE id = 2`).Scan(&rating))
	assert.Equal(t, "Hot", rating)
}

func TestSQLWriter_DuplicateIDRollsBack(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	recs := bluthRecords()[:1]
	require.NoError(t, w.Write(ctx, recs))

	batch := []domain.GeneratedRecord{
		{ObjectType: "Account", ID: 2, Values: []domain.FieldValue{{Name: "Name", Value: "Sitwell"}}},
		recs[0],
	}
	assert.Error(t, w.Write(ctx, batch))

	var n int
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "Account"`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSQLWriter_RejectsIDField(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	for _, name := range []string{"id", "Id"} {
		err := w.Write(ctx, []domain.GeneratedRecord{
			{ObjectType: "Ticket", ID: 1, Values: []domain.FieldValue{{Name: name, Value: 42}, {Name: "Title", Value: "Banana stand"}}},
		})
		require.ErrorIs(t, err, ErrReservedColumn, name)
		assert.Contains(t, err.Error(), "Ticket")
	}

	// Nothing was created, so a well-formed batch still succeeds.
	require.NoError(t, w.Write(ctx, []domain.GeneratedRecord{
		{ObjectType: "Ticket", ID: 1, Values: []domain.FieldValue{{Name: "Title", Value: "Banana stand"}}},
	}))

	// A later batch cannot add the column either.
	err := w.Write(ctx, []domain.GeneratedRecord{
		{ObjectType: "Ticket", ID: 2, Values: []domain.FieldValue{{Name: "ID", Value: "x"}}},
	})
	assert.ErrorIs(t, err, ErrReservedColumn)
}

func TestParseDBURL(t *testing.T) {
	d, dsn, err := ParseDBURL("sqlite:///tmp/seed.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name)
	assert.Equal(t, "/tmp/seed.db", dsn)

	d, dsn, err = ParseDBURL("postgres://user:pw@localhost:5432/seed")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.Driver)
	assert.Equal(t, "$2", d.Placeholder(2))
	assert.Equal(t, "postgres://user:pw@localhost:5432/seed", dsn)

	for _, bad := range []string{"mysql://x", "sqlite://", "seed.db"} {
		_, _, err := ParseDBURL(bad)
		assert.True(t, errors.Is(err, ErrUnsupportedURL), bad)
	}
}
