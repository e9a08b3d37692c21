package mail

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
	"github.com/rs/zerolog"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Postmarkで送信
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (m *PostmarkMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("postmark send: %d %s", res.ErrorCode, res.Message)
	}
	return nil
}

// トークン未設定時（開発）はログに出すだけ
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("mail (not sent)")
	return nil
}
