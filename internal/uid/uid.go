/*
Package uid – sortable request identifiers.

IDs are version 7 UUIDs in canonical string form. The leading 48 bits hold
Unix milliseconds, so IDs created later sort after earlier ones.
*/
package uid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Len is the length of every generated ID.
const Len = 36

// New returns an ID for the current time.
func New() string { return uuid.Must(uuid.NewV7()).String() }

// Time extracts the creation time of id at millisecond precision.
func Time(id string) (time.Time, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("uid: %w", err)
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("uid: %s is a version %d UUID", id, u.Version())
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), nil
}
