package id

import (
	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort lexicographically by creation
// time, and ulid.Make's monotonic entropy keeps IDs minted within the same
// millisecond in issue order, which is what makes the greatest otp_id for an
// email the most recently issued record.
func New() string {
	return ulid.Make().String()
}
