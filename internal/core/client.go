package core

import "sync"

const defaultClientBuffer = 64

// Client is one live transport connection as seen by the core layer.
// The transport writes Commands and reads Events; the hub closes Events once
// the disconnect has been processed.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	done       chan struct{}
	doneOnce   sync.Once
	eventsOnce sync.Once
}

// NewClient constructs a client with buffered channels. A non-positive
// buffer uses the default size.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// markDone signals that the transport will send no more commands.
func (c *Client) markDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Client) closeEvents() {
	c.eventsOnce.Do(func() { close(c.Events) })
}
