package domain

import "time"

// Status is the processing state of a mapping file picked up in watch mode.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusError:
		return true
	}
	return false
}

type File struct {
	Name         string     `json:"name"                    db:"name"`
	Status       Status     `json:"status"                  db:"status"`
	EntriesCount int        `json:"entries_count"           db:"entries_count"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"  db:"processed_at"`
}

// DeviceSummary is one device known to the registry.
type DeviceSummary struct {
	Device         string `json:"device"          db:"device"`
	RegistersCount int    `json:"registers_count" db:"registers_count"`
	SourceFiles    int    `json:"source_files"    db:"source_files"`
}

// ConversionResult travels between watch-mode stages. Exactly one of Spec
// and Error is set.
type ConversionResult struct {
	Filename string
	Spec     *MapSpec
	Error    error
}

func (r *ConversionResult) EntriesCount() int {
	if r.Spec == nil {
		return 0
	}

	return len(r.Spec.Entries)
}
