package model

// Notifier delivers alert summaries to an operator channel (email, chat, ...).
type Notifier interface {
	Send(subject, body string) error
}
