package store

// RowStatus is the lifecycle state of an entry row.
type RowStatus string

const (
	// Normal is the status for a visible entry.
	Normal RowStatus = "NORMAL"
	// Archived is the status for an archived entry.
	Archived RowStatus = "ARCHIVED"
)

func (s RowStatus) String() string {
	return string(s)
}

// Entry is one record of the ordered result set the pager reads over.
// The canonical result order is created_ts DESC, id DESC: a stable total
// order, so a page fetched twice from the same snapshot is identical.
type Entry struct {
	ID int64

	// Standard fields
	UID       string
	CreatedTs int64
	UpdatedTs int64
	RowStatus RowStatus

	// Domain specific fields
	Title   string
	Content string
	Payload string
}

// FindEntry filters entry queries. Limit/Offset carry the page geometry.
type FindEntry struct {
	ID            *int64
	UID           *string
	RowStatus     *RowStatus
	CreatedAfter  *int64
	CreatedBefore *int64

	Limit  *int
	Offset *int
}

// DeleteEntry identifies the entry to delete.
type DeleteEntry struct {
	ID int64
}
