package model

import "time"

// JournalEntry records one administrative mutation attempted from this console.
type JournalEntry struct {
	ID        string    `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	Target    string    `json:"target" db:"target"`
	Detail    string    `json:"detail" db:"detail"`
	OK        bool      `json:"ok" db:"ok"`
	Error     string    `json:"error" db:"error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
