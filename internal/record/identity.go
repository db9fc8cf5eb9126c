package record

// Identity is the (participant, session, task) triple locating one
// persisted table. All components are opaque strings coerced from
// whatever the caller supplied.
type Identity struct {
	ParticipantID string
	SessionID     string
	Task          string
}

// String returns a human-readable form for logging.
func (id Identity) String() string {
	return id.ParticipantID + "/" + id.SessionID + "/" + id.Task
}
