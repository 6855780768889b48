package models

import "time"

// Directory is a node in the hierarchy. Path is the canonical
// slash-separated path from the root ("a/b", no leading or trailing slash)
// and is the primary lookup key: it is unique and must always agree with
// the stored parent chain.
type Directory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	ParentID  *string   `json:"parent_id"` // nil means root-level
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
