// Package bot implements the conversational core of the school organizer:
// the per-user conversation machine, the dialogue router, the inline
// calendar widget and the reminder scheduler, all behind a platform Adapter.
package bot

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and message
// sending/receiving for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a user event received from the chat platform.
// Exactly one of Text, CallbackToken or MediaKind is meaningful.
type InboundMessage struct {
	OwnerID  int64  // platform-specific user identifier
	UserName string // human-readable username

	Text string // message text or pressed button label

	CallbackToken     string // inline-keyboard token (calendar interactions)
	CallbackMessageID int    // message carrying the inline keyboard

	MediaKind string // "photo", "video" or "animation"
	MediaData []byte // media payload

	Timestamp time.Time
}

// Keyboard describes reply buttons as rows of labels. Only the
// information content is specified here; layout is up to the adapter.
type Keyboard struct {
	Rows    [][]string
	OneTime bool // hint: hide the keyboard after one use
}

// InlineButton is a single inline-keyboard cell: a label plus the token
// delivered back as CallbackToken when pressed.
type InlineButton struct {
	Label string
	Token string
}

// InlineKeyboard describes callback buttons attached to a message.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	OwnerID int64

	Text     string
	Keyboard *Keyboard       // reply keyboard to show with the text
	Inline   *InlineKeyboard // inline keyboard to attach to the text

	// EditMessageID, when non-zero, replaces the inline keyboard of an
	// existing message in place instead of sending a new one. Used for
	// calendar month navigation.
	EditMessageID int

	// Media send: kind + file path, with an optional caption in Text.
	MediaKind string
	MediaPath string
}
