package model

// Status is the reading state of a bookmark.
type Status string

const (
	StatusUnread  Status = "unread"
	StatusReading Status = "reading"
	StatusDone    Status = "done"
)

// Statuses lists statuses in cycle order.
var Statuses = []Status{StatusUnread, StatusReading, StatusDone}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Next returns the following status in the unread → reading → done → unread cycle.
// Unknown statuses restart the cycle at unread.
func (s Status) Next() Status {
	switch s {
	case StatusUnread:
		return StatusReading
	case StatusReading:
		return StatusDone
	default:
		return StatusUnread
	}
}

// Rank is the fixed sort rank: unread=0, reading=1, done=2, unknown=-1.
func (s Status) Rank() int {
	switch s {
	case StatusUnread:
		return 0
	case StatusReading:
		return 1
	case StatusDone:
		return 2
	default:
		return -1
	}
}
