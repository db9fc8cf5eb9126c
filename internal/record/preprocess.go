package record

// Preprocess enriches every record in the batch with the identity
// fields and normalizes its timestamp, returning new record copies.
// The input batch is never mutated; the caller still needs it for an
// accurate records_added count.
//
// Identity fields overwrite any same-named fields already present in
// the raw record. A numeric "time" field is replaced by the normalized
// time-of-day string, a "date" field is added, and any pre-existing
// "timestamp" field on that record is dropped as superseded. Records
// without usable timestamp information pass through with only the
// identity fields added, never rejected.
func Preprocess(batch Batch, participantID, sessionID, task string) Batch {
	out := make(Batch, 0, len(batch))

	for _, raw := range batch {
		r := raw.Clone()
		r[ColumnParticipant] = participantID
		r[ColumnSession] = sessionID
		r[ColumnTask] = task

		if v, ok := r[ColumnTime]; ok {
			if _, numeric := Numeric(v); numeric {
				date, timeOfDay := Normalize(v)
				r[ColumnDate] = date
				r[ColumnTime] = timeOfDay
				delete(r, ColumnTimestamp)
			}
		}

		out = append(out, r)
	}

	return out
}
