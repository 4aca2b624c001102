package bot

import "context"

// Button is one inline keyboard choice offered with a message.
type Button struct {
	Label   string
	Payload string
}

// Update is one inbound event from the chat transport. Exactly one of Text
// and ButtonPayload is set.
type Update struct {
	AdminID       int64
	Text          string
	ButtonPayload string
}

// Transport is the chat collaborator boundary. Implementations deliver
// messages for one admin in order; the bot core never assumes anything
// about the underlying messenger beyond that.
type Transport interface {
	// SendMessage sends a new message, returning an ID usable with
	// EditMessage.
	SendMessage(ctx context.Context, adminID int64, text string, buttons ...Button) (int64, error)

	// EditMessage replaces the text of a previously sent message. Used for
	// in-place progress updates.
	EditMessage(ctx context.Context, adminID, messageID int64, text string) error
}
