package store

import (
	"strings"
	"time"
)

// Record represents one CCTV repair event in the repairs table.
// ID and CreatedAt are assigned by the store and never client-supplied.
type Record struct {
	ID           int64     `json:"id"`
	Region       string    `json:"region"`
	SiteName     string    `json:"site_name"`
	RepairYear   int       `json:"repair_year"`
	RepairMonth  int       `json:"repair_month"`
	RepairDetail string    `json:"repair_detail"`
	CameraType   string    `json:"camera_type"`
	Inspector    string    `json:"inspector"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the invariants every insert/update must hold. Region and
// site name must be non-empty after trimming; month, when set, must be 1-12.
// Callers are expected to pre-validate in the UI, but the store contract does
// not rely on that.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Region) == "" {
		return &ValidationError{Field: "region", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.SiteName) == "" {
		return &ValidationError{Field: "site_name", Reason: "must not be empty"}
	}
	if r.RepairMonth != 0 && (r.RepairMonth < 1 || r.RepairMonth > 12) {
		return &ValidationError{Field: "repair_month", Reason: "must be between 1 and 12"}
	}
	return nil
}
