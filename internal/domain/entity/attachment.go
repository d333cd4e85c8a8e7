package entity

import "time"

// Attachment pochtadan olingan Excel fayl
type Attachment struct {
	MessageUID uint32
	Filename   string
	Subject    string
	From       string
	Data       []byte
	Received   time.Time
}
