package mail

import (
	"context"
	"net/smtp"
	"time"
)

// WithTransport swaps the SMTP call and clock for tests.
func (s *Sender) WithTransport(send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error, now time.Time) *Sender {
	s.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return send(addr, a, from, to, msg)
	}
	s.now = func() time.Time { return now }

	return s
}

// SendMail exposes the SMTP transport.
var SendMail = sendMail
