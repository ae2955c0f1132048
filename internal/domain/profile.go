package domain

import "time"

// Profile holds the per-user coaching context used to assemble
// recommendation queries. Goal and Summary are both nullable in storage;
// empty strings here mean unset.
type Profile struct {
	UserID    string
	Goal      string
	Summary   string
	UpdatedAt time.Time
}
