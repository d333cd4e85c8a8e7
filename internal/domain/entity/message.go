package entity

import "time"

// QueryLogEntry foydalanuvchi so'rovi tarixi
type QueryLogEntry struct {
	ID        string
	UserID    int64
	Username  string
	Text      string
	Found     int
	Missing   int
	Timestamp time.Time
}
