package models

import "time"

// ApprovalStatus tags a file's position in the approval workflow. It governs
// visibility of the file to non-privileged users.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

// File is a document in a directory (or at root). The current content blob
// lives at Path in the blob store; prior content is relocated into Version
// records before being overwritten.
type File struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	DirectoryID *string `json:"directory_id"` // nil means root
	// DirectoryPath is a denormalized copy of the owning directory's path,
	// used for prefix matching in approval-list queries.
	DirectoryPath  string         `json:"directory_path"`
	Description    string         `json:"description"`
	CreatedBy      string         `json:"created_by"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ApprovedBy     *string        `json:"approved_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Version is an immutable archived snapshot of a file's prior content.
// VersionNumber is 1-based and strictly increasing per file; deletion can
// leave gaps.
type Version struct {
	ID            string    `json:"id"`
	FileID        string    `json:"file_id"`
	FilePath      string    `json:"file_path"` // absolute path to the archived blob
	VersionNumber int       `json:"version_number"`
	CreatedBy     string    `json:"created_by"`
	Description   string    `json:"description"`
	ApprovedBy    *string   `json:"approved_by"` // carried for historical record
	CreatedAt     time.Time `json:"created_at"`
}

// ApprovalDecision distinguishes approval from rejection events. Both write
// the same bookkeeping row, tagged by decision.
type ApprovalDecision string

const (
	DecisionApproved ApprovalDecision = "APPROVED"
	DecisionRejected ApprovalDecision = "REJECTED"
)

// ApprovalEvent records the most recent approval or rejection of a file.
// One row per file, overwritten on re-approval after a new upload or restore.
type ApprovalEvent struct {
	ID        string           `json:"id"`
	FileID    string           `json:"file_id"`
	Decision  ApprovalDecision `json:"decision"`
	DecidedBy string           `json:"decided_by"`
	DecidedAt time.Time        `json:"decided_at"`
}
