package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ Mailer = (*SMTP)(nil)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // empty sends without auth
	Password string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTP struct {
	addr string
	host string
	auth smtp.Auth
	send sendFunc
}

func NewSMTP(conf SMTPConfig) *SMTP {
	s := &SMTP{
		addr: net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)),
		host: conf.Host,
		send: smtp.SendMail,
	}
	if conf.Username != "" {
		s.auth = smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	}
	return s
}

// Send runs the smtp exchange in a goroutine so a cancelled ctx returns early; the exchange itself can't be aborted
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	err := msg.Validate()
	if err != nil {
		return err
	}

	raw, err := build(msg, s.host, time.Now())
	if err != nil {
		return err
	}

	from, _ := mail.ParseAddress(msg.From)
	rcpt := make([]string, 0, len(msg.Recipients()))
	for _, r := range msg.Recipients() {
		a, _ := mail.ParseAddress(r)
		rcpt = append(rcpt, a.Address)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, s.auth, from.Address, rcpt, raw)
	}()

	select {
	case err = <-done:
		if err != nil {
			return fmt.Errorf("mailer: smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// build writes a multipart/alternative message with a text and an html part
func build(msg Message, host string, at time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	headers := []string{
		"From: " + msg.From,
		"To: " + strings.Join(msg.To, ", "),
	}
	if len(msg.Cc) > 0 {
		headers = append(headers, "Cc: "+strings.Join(msg.Cc, ", "))
	}
	headers = append(headers,
		"Subject: "+mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: "+at.Format(time.RFC1123Z),
		fmt.Sprintf("Message-ID: <%s@%s>", uuid.NewString(), host),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary="+w.Boundary(),
	)
	buf.WriteString(strings.Join(headers, "\r\n") + "\r\n\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		_, err = pw.Write([]byte(strings.ReplaceAll(p.body, "\n", "\r\n")))
		if err != nil {
			return nil, err
		}
	}

	err := w.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
