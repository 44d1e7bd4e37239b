package ledger

// Status represents the status of a transaction header
type Status string

const (
	StatusPending   Status = "pending"
	StatusPosted    Status = "posted"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusVoided    Status = "voided"
	StatusReversed  Status = "reversed"
)

// DefaultStatus is used when a create request carries no status
const DefaultStatus = StatusCompleted

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPosted, StatusCompleted, StatusCancelled, StatusVoided, StatusReversed:
		return true
	}
	return false
}

// IsTerminal reports whether the header is frozen
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusVoided || s == StatusReversed
}

// IsSettable reports whether callers may set s directly; reversed is only
// reachable through a compensating transaction.
func (s Status) IsSettable() bool {
	return s.IsValid() && s != StatusReversed
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}
