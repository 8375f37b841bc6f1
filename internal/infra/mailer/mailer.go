// Package mailer отправляет смету в PDF по электронной почте.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
)

var (
	ErrDisabled     = errors.New("mailer: smtp is not configured")
	ErrBadRecipient = errors.New("mailer: invalid recipient address")
)

type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// Attachment is a file attached to the letter.
type Attachment struct {
	FileName string
	Content  []byte
}

// Message builds the letter without sending it.
func (m *Mailer) Message(to, companyName string, doc estimate.Document, att Attachment) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	fromName := companyName
	if fromName == "" {
		fromName = "Смета"
	}
	if err := msg.FromFormat(fromName, m.from); err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecipient, err)
	}
	msg.Subject(fmt.Sprintf("Смета № %s от %s", doc.Number, estimate.FormatDate(doc.Date)))
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Здравствуйте!\n\nВо вложении смета № %s от %s.\nИтого к оплате: %s.\n",
		doc.Number, estimate.FormatDate(doc.Date), estimate.FormatMoney(doc.Calculation.GrandTotal),
	))
	msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	return msg, nil
}

func (m *Mailer) Send(ctx context.Context, to, companyName string, doc estimate.Document, att Attachment) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	msg, err := m.Message(to, companyName, doc, att)
	if err != nil {
		return err
	}
	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}
	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
