package notify

import "context"

type Kind string

const (
	ConfirmationEmail  Kind = "confirmation"
	PasswordResetEmail Kind = "password_reset"
)

// Message is one outbound account email: who to reach and the one-time token
// they need to type back.
type Message struct {
	Kind  Kind   `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Notifier delivers a message synchronously.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands a message off for delivery without waiting on the outcome.
// Account flows treat dispatch as best-effort: a failed send never fails the
// request that triggered it.
type Dispatcher interface {
	Dispatch(msg Message)
}
