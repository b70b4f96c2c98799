package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/pagecache/store"
)

func (d *DB) CreateEntry(ctx context.Context, create *store.Entry) (*store.Entry, error) {
	fields := []string{"uid", "row_status", "title", "content", "payload"}
	placeholderValues := []any{create.UID, create.RowStatus, create.Title, create.Content, create.Payload}

	// Add optional timestamps
	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		placeholderValues = append(placeholderValues, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields = append(fields, "updated_ts")
		placeholderValues = append(placeholderValues, create.UpdatedTs)
	}

	stmt := `INSERT INTO entry (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, created_ts, updated_ts, row_status`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return create, nil
}

func (d *DB) CountEntries(ctx context.Context, snap *store.Snapshot, find *store.FindEntry) (int64, error) {
	if snap == nil {
		return countEntries(ctx, d.db, find)
	}
	var count int64
	err := snap.Read(ctx, func(rctx context.Context, tx *sql.Tx) error {
		var err error
		count, err = countEntries(rctx, tx, find)
		return err
	})
	return count, err
}

func (d *DB) ListEntries(ctx context.Context, snap *store.Snapshot, find *store.FindEntry) ([]*store.Entry, error) {
	if snap == nil {
		return listEntries(ctx, d.db, find)
	}
	var list []*store.Entry
	err := snap.Read(ctx, func(rctx context.Context, tx *sql.Tx) error {
		var err error
		list, err = listEntries(rctx, tx, find)
		return err
	})
	return list, err
}

func (d *DB) DeleteEntry(ctx context.Context, delete *store.DeleteEntry) error {
	stmt := `DELETE FROM entry WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("entry not found")
	}

	return nil
}

func entryWhere(find *store.FindEntry) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "entry.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "entry.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "entry.row_status = "+placeholder(len(args)+1)), append(args, v.String())
	}
	if v := find.CreatedAfter; v != nil {
		where, args = append(where, "entry.created_ts > "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatedBefore; v != nil {
		where, args = append(where, "entry.created_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	return where, args
}

func countEntries(ctx context.Context, q queryer, find *store.FindEntry) (int64, error) {
	where, args := entryWhere(find)

	query := `SELECT COUNT(*) FROM entry WHERE ` + strings.Join(where, " AND ")

	var count int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func listEntries(ctx context.Context, q queryer, find *store.FindEntry) ([]*store.Entry, error) {
	where, args := entryWhere(find)

	// Ordering (always newest first, ties broken by id for a stable order)
	orderBy := "ORDER BY entry.created_ts DESC, entry.id DESC"

	query := `
		SELECT
			id, uid, created_ts, updated_ts, row_status,
			title, content, payload
		FROM entry
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Entry, 0)
	for rows.Next() {
		var entry store.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.CreatedTs,
			&entry.UpdatedTs,
			&entry.RowStatus,
			&entry.Title,
			&entry.Content,
			&entry.Payload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return list, nil
}
