package trace

// Log collects reservation and queueing records during a simulation run.
// Records are never read back into simulation decisions.
type Log struct {
	Reservations []Reservation `yaml:"reservations"`
	Queue        []QueueEntry  `yaml:"queue"`
}

// NewLog creates a Log ready for recording.
func NewLog() *Log {
	return &Log{
		Reservations: make([]Reservation, 0),
		Queue:        make([]QueueEntry, 0),
	}
}

// RecordReservation appends a reservation record.
func (l *Log) RecordReservation(record Reservation) {
	l.Reservations = append(l.Reservations, record)
}

// RecordQueue appends a queue record.
func (l *Log) RecordQueue(record QueueEntry) {
	l.Queue = append(l.Queue, record)
}

// ReservationsFor returns the reservations of one pool in recording order.
func (l *Log) ReservationsFor(pool string) []Reservation {
	var out []Reservation
	for _, r := range l.Reservations {
		if r.Pool == pool {
			out = append(out, r)
		}
	}
	return out
}
