// Package notify delivers finished episodes to a recipient over a push
// message or an email, whichever channel the recipient directory and the
// configured credentials allow.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrExternalDependency marks a failure in the directory or a transport.
	// It is converted into a Result and never returned by Notify.
	ErrExternalDependency = errors.New("external dependency failed")

	// ErrMissingRecipientChannel means no channel could be selected.
	ErrMissingRecipientChannel = errors.New("recipient has no usable notification channel")
)

// Channel identifies the transport used for a delivery.
type Channel string

const (
	ChannelNone  Channel = ""
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// DefaultTitle is the notification title used when none is configured.
const DefaultTitle = "A new episode has arrived"

// Result is the outcome of one dispatch.
type Result struct {
	Success   bool    `json:"success"`
	MessageID string  `json:"messageId,omitempty"`
	Channel   Channel `json:"channel,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Directory resolves how a user can be reached. Both lookups return an empty
// string when the user has no such channel.
type Directory interface {
	PushAccount(ctx context.Context, userID string) (string, error)
	EmailAddress(ctx context.Context, userID string) (string, error)
}

// Message is what a transport delivers.
type Message struct {
	Title   string
	Content string

	// IdempotencyKey is fresh for every dispatch attempt.
	IdempotencyKey string
}

// Pusher sends a push message to a linked account and returns its message ID.
type Pusher interface {
	Push(ctx context.Context, accountID string, msg Message) (string, error)
}

// Mailer sends an email and returns its message ID.
type Mailer interface {
	Send(ctx context.Context, address string, msg Message) (string, error)
}

// Dispatcher chooses a channel for a recipient and delivers content over it.
// A nil Pusher or Mailer means the corresponding credential is not configured.
type Dispatcher struct {
	directory Directory
	push      Pusher
	mail      Mailer
	title     string
	newToken  func() string
}

// NewDispatcher creates a dispatcher. push and mail may be nil.
func NewDispatcher(directory Directory, push Pusher, mail Mailer) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		push:      push,
		mail:      mail,
		title:     DefaultTitle,
		newToken:  uuid.NewString,
	}
}

// WithTitle sets the notification title.
func (d *Dispatcher) WithTitle(title string) *Dispatcher {
	if strings.TrimSpace(title) != "" {
		d.title = title
	}
	return d
}

// Notify delivers content to recipientID. Push is used exclusively when a push
// credential is configured and the recipient has a linked account; otherwise
// email is tried. It never returns an error: every failure is logged and
// reported in the Result.
func (d *Dispatcher) Notify(ctx context.Context, content, recipientID string) Result {
	res, err := d.dispatch(ctx, content, recipientID)
	if err != nil {
		log.Printf("[Notify] Delivery to %q failed: %v", recipientID, err)
		return Result{Success: false, Channel: res.Channel, Error: err.Error()}
	}
	log.Printf("[Notify] Delivered to %q via %s (message %s)", recipientID, res.Channel, res.MessageID)
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, content, recipientID string) (Result, error) {
	if strings.TrimSpace(recipientID) == "" {
		return Result{}, fmt.Errorf("%w: recipient ID is empty", ErrMissingRecipientChannel)
	}
	if strings.TrimSpace(content) == "" {
		return Result{}, errors.New("content is empty")
	}
	if d.directory == nil {
		return Result{}, fmt.Errorf("%w: recipient directory is not configured", ErrExternalDependency)
	}

	msg := Message{Title: d.title, Content: content, IdempotencyKey: d.newToken()}

	if d.push != nil {
		account, err := d.directory.PushAccount(ctx, recipientID)
		if err != nil {
			return Result{}, fmt.Errorf("%w: push account lookup: %w", ErrExternalDependency, err)
		}
		if account != "" {
			id, err := d.push.Push(ctx, account, msg)
			if err != nil {
				return Result{Channel: ChannelPush}, err
			}
			return Result{Success: true, MessageID: id, Channel: ChannelPush}, nil
		}
	}

	if d.mail != nil {
		address, err := d.directory.EmailAddress(ctx, recipientID)
		if err != nil {
			return Result{}, fmt.Errorf("%w: email lookup: %w", ErrExternalDependency, err)
		}
		if address != "" {
			id, err := d.mail.Send(ctx, address, msg)
			if err != nil {
				return Result{Channel: ChannelEmail}, err
			}
			return Result{Success: true, MessageID: id, Channel: ChannelEmail}, nil
		}
	}

	return Result{}, fmt.Errorf("%w: %s", ErrMissingRecipientChannel, recipientID)
}

// Preview returns the first n characters of content followed by an ellipsis.
func Preview(content string, n int) string {
	if utf8.RuneCountInString(content) > n {
		content = string([]rune(content)[:n])
	}
	return content + "..."
}
