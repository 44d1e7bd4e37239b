package entity

// Status is the lifecycle state of an entity.
//
//	active -> archived | deleted
//	archived -> active (recover) | deleted
//	deleted -> active (recover)
//
// A hard delete (purge) removes the row and has no stored state.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

var transitions = map[Status][]Status{
	StatusActive:   {StatusArchived, StatusDeleted},
	StatusArchived: {StatusActive, StatusDeleted},
	StatusDeleted:  {StatusActive},
}

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows s -> target
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsRecoverable reports whether recover applies to an entity in this state
func (s Status) IsRecoverable() bool {
	return s == StatusArchived || s == StatusDeleted
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// DeleteMode says how an unreferenced entity is removed.
type DeleteMode string

const (
	DeleteModeSoft DeleteMode = "soft"
	DeleteModeHard DeleteMode = "hard"
)

// IsValid checks if the delete mode is valid
func (m DeleteMode) IsValid() bool {
	return m == DeleteModeSoft || m == DeleteModeHard
}
