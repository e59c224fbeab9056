package mail

import (
	"crypto/tls"

	"github.com/staff-directory-api/internal/config"
	"gopkg.in/gomail.v2"
)

// Message is one outbound email, assembled per send and never persisted.
// Inline points at a file on disk embedded with the given content-id so the
// HTML body can reference it as <img src="cid:...">.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	Inline   []InlineFile
}

type InlineFile struct {
	Path      string
	ContentID string
}

// Sender delivers emails. No retry: a failed send surfaces immediately.
type Sender interface {
	Send(msg Message) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(cfg *config.Config) Sender {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.SSL = cfg.SMTPSecure
	d.TLSConfig = &tls.Config{
		ServerName: cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	return &smtpSender{dialer: d, from: cfg.MailFrom}
}

func (s *smtpSender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	for _, f := range msg.Inline {
		m.Embed(f.Path, gomail.Rename(f.ContentID))
	}
	return s.dialer.DialAndSend(m)
}
