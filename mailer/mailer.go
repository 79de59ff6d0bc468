// Package mailer sends the reminder emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
)

type Message struct {
	From    string
	To      []string
	Cc      []string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	// Send returns nil only once the provider accepted the message
	Send(ctx context.Context, msg Message) error
}

// Recipients is To followed by Cc
func (m Message) Recipients() []string {
	r := make([]string, 0, len(m.To)+len(m.Cc))
	r = append(r, m.To...)
	return append(r, m.Cc...)
}

func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("mailer: message has no recipient")
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("mailer: from %q: %w", m.From, err)
	}
	for _, r := range m.Recipients() {
		if _, err := mail.ParseAddress(r); err != nil {
			return fmt.Errorf("mailer: recipient %q: %w", r, err)
		}
	}
	if m.Text == "" && m.HTML == "" {
		return errors.New("mailer: message has no body")
	}
	return nil
}
