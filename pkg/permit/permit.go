// Package permit defines the print authorization permit and the strategies
// used to name it.
package permit

import "time"

// StatusAuthorized is the status of every issued permit
const StatusAuthorized = "AUTHORIZED"

// TimestampLayout is the ISO-8601 form used for permit timestamps
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Permit authorizes one design, identified by its fingerprint, to be printed
// on one printer by one identity. Permits are only created by a successful
// authorization and are never modified afterwards.
type Permit struct {
	ID        string `json:"permit_id"`
	FileHash  string `json:"file_hash"`
	Printer   string `json:"printer"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// Issue builds an authorized permit issued at the given time
func Issue(id, fileHash, printer, user string, issued time.Time) *Permit {
	return &Permit{
		ID:        id,
		FileHash:  fileHash,
		Printer:   printer,
		User:      user,
		Timestamp: FormatTimestamp(issued),
		Status:    StatusAuthorized,
	}
}

// FormatTimestamp renders t in UTC using TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
