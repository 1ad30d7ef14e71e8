package core

import "time"

// Message is a relayed chat message. CreatedAt is assigned by the router.
type Message struct {
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}
