package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/config"
)

const messageIDHeader mail.Header = "X-Outage-Notifier-Message"

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email sends every message to the configured recipients, with a plain text body and an html alternative.
type Email struct {
	sender  sender
	from    string
	replyTo string
	to      []string
}

func NewEmail(conf config.Email) (Email, error) {
	if conf.From == "" || len(conf.To) == 0 {
		return Email{}, errors.New("email notification requires a sender and at least one recipient")
	}

	opts := []mail.Option{
		mail.WithPort(conf.Port),
		mail.WithTimeout(conf.Timeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}

	if conf.Creds.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(conf.Creds.Username),
			mail.WithPassword(conf.Creds.Password),
		)
	}

	client, err := mail.NewClient(conf.Host, opts...)
	if err != nil {
		return Email{}, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newEmail(client, conf), nil
}

func newEmail(s sender, conf config.Email) Email {
	return Email{
		sender:  s,
		from:    conf.From,
		replyTo: conf.ReplyTo,
		to:      conf.To,
	}
}

func (e Email) Process(ctx context.Context, message Message) error {
	m, err := e.buildMsg(message)
	if err != nil {
		return common.NewErrProcessingError(err, CategoryDelivery, nil, "failed to build email")
	}

	err = e.sender.DialAndSendWithContext(ctx, m)
	if err != nil {
		return common.NewRetryableErrProcessingError(err, CategoryDelivery, nil, "failed to send email")
	}

	return nil
}

func (e Email) buildMsg(message Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	err := m.From(e.from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}

	err = m.To(e.to...)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	if e.replyTo != "" {
		err = m.ReplyTo(e.replyTo)
		if err != nil {
			return nil, fmt.Errorf("invalid reply-to: %w", err)
		}
	}

	m.Subject(message.Subject)
	m.SetDateWithValue(message.CreatedAt)
	m.SetMessageID()
	m.SetGenHeader(messageIDHeader, message.ID)
	m.SetBodyString(mail.TypeTextPlain, message.Text)

	if message.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, message.HTML)
	}

	return m, nil
}
