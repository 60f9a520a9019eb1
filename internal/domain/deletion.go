package domain

import "time"

// Deletion is the soft-delete state of a row: either active or deleted at a point in time.
// The zero value is active.
type Deletion struct {
	deleted bool
	at      time.Time
}

// Active returns the non-deleted state.
func Active() Deletion {
	return Deletion{}
}

// DeletedAt returns the deleted state stamped with at.
func DeletedAt(at time.Time) Deletion {
	return Deletion{deleted: true, at: at}
}

// DeletionFromColumn maps a nullable deleted_at column.
func DeletionFromColumn(deletedAt *time.Time) Deletion {
	if deletedAt == nil {
		return Active()
	}
	return DeletedAt(*deletedAt)
}

func (d Deletion) IsDeleted() bool {
	return d.deleted
}

// At returns the deletion time; ok is false for active rows.
func (d Deletion) At() (at time.Time, ok bool) {
	return d.at, d.deleted
}

// Column maps the state back to a nullable deleted_at column.
func (d Deletion) Column() *time.Time {
	if !d.deleted {
		return nil
	}
	at := d.at
	return &at
}
