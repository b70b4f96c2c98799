package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/pagecache/store"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &DB{db: db}, mock
}

func TestCreateEntry(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO entry (uid, row_status, title, content, payload) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_ts, updated_ts, row_status`,
	)).
		WithArgs("abc123", "NORMAL", "hello", "world", "{}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_ts", "updated_ts", "row_status"}).
			AddRow(int64(7), int64(1700000000), int64(1700000000), "NORMAL"))

	entry, err := d.CreateEntry(context.Background(), &store.Entry{
		UID:       "abc123",
		RowStatus: store.Normal,
		Title:     "hello",
		Content:   "world",
		Payload:   "{}",
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, entry.ID)
	require.EqualValues(t, 1700000000, entry.CreatedTs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEntries(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM entry WHERE 1 = 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := d.CountEntries(context.Background(), nil, &store.FindEntry{})
	require.NoError(t, err)
	require.EqualValues(t, 42, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEntriesWithFilters(t *testing.T) {
	d, mock := newMockDB(t)

	rowStatus := store.Normal
	createdAfter := int64(100)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM entry WHERE 1 = 1 AND entry.row_status = $1 AND entry.created_ts > $2`,
	)).
		WithArgs("NORMAL", createdAfter).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := d.CountEntries(context.Background(), nil, &store.FindEntry{
		RowStatus:    &rowStatus,
		CreatedAfter: &createdAfter,
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntriesPagination(t *testing.T) {
	d, mock := newMockDB(t)

	limit, offset := 10, 20
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, uid, created_ts, updated_ts, row_status, title, content, payload FROM entry WHERE 1 = 1 ORDER BY entry.created_ts DESC, entry.id DESC LIMIT 10 OFFSET 20`,
	)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uid", "created_ts", "updated_ts", "row_status", "title", "content", "payload"}).
			AddRow(int64(2), "uid-2", int64(200), int64(200), "NORMAL", "t2", "c2", "{}").
			AddRow(int64(1), "uid-1", int64(100), int64(100), "NORMAL", "t1", "c1", "{}"))

	list, err := d.ListEntries(context.Background(), nil, &store.FindEntry{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "uid-2", list[0].UID)
	require.Equal(t, "uid-1", list[1].UID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntryNotFound(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM entry WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := d.DeleteEntry(context.Background(), &store.DeleteEntry{ID: 99})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
