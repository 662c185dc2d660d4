package email

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type Provider string

const (
	ProviderSES      Provider = "ses"
	ProviderMailgun  Provider = "mailgun"
	ProviderSendGrid Provider = "sendgrid"
)

// SendTimeout bounds a single provider call.
const SendTimeout = 30 * time.Second

type Attachment struct {
	Filename    string
	ContentType string // e.g. "text/csv; charset=utf-8"
	Data        []byte
}

// ParseProvider accepts ses, mailgun or sendgrid (case-insensitive).
func ParseProvider(s string) (provider Provider, e *xerr.Error) {
	provider = Provider(strings.ToLower(strings.TrimSpace(s)))
	switch provider {
	case ProviderSES, ProviderMailgun, ProviderSendGrid:
		return provider, nil
	}
	return "", xerr.NewError(fmt.Errorf("unknown email provider '%s'", s), "parse email provider", "expected ses, mailgun or sendgrid")
}

/*
SendMessage sends one message through provider.

When sendEmails is nil or false the message is only logged (dry run), which
lets pipelines run end to end without provider credentials.
*/
func SendMessage(
	provider Provider, sendEmails *bool, sender string, recipients []string,
	subject, text, html string, attachments []Attachment,
) (e *xerr.Error) {
	recipients = cleanRecipients(recipients)
	if sender == "" || len(recipients) == 0 {
		return xerr.NewError(fmt.Errorf("sender and at least one recipient are required"), "send email", map[string]any{
			"sender": sender, "recipients": recipients,
		})
	}

	if sendEmails == nil || !*sendEmails {
		tl.Log(
			tl.Notice, palette.Yellow, "%s: would send '%s' from '%s' to %s via %s with %d attachments",
			"Dry run", subject, sender, strings.Join(recipients, ", "), provider, len(attachments),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
	defer cancel()

	tl.Log(tl.Info, palette.Blue, "%s '%s' to %s via %s", "Sending email", subject, strings.Join(recipients, ", "), provider)
	var messageID string
	switch provider {
	case ProviderSES:
		messageID, e = sendWithSES(ctx, sender, recipients, subject, text, html, attachments)
	case ProviderMailgun:
		messageID, e = sendWithMailgun(ctx, sender, recipients, subject, text, html, attachments)
	case ProviderSendGrid:
		messageID, e = sendWithSendGrid(ctx, sender, recipients, subject, text, html, attachments)
	default:
		_, e = ParseProvider(string(provider))
	}
	if e != nil {
		return e
	}

	tl.Log(tl.Info1, palette.Green, "%s via %s, message id '%s'", "Email sent", provider, messageID)
	return nil
}

func cleanRecipients(recipients []string) []string {
	cleaned := make([]string, 0, len(recipients))
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient != "" {
			cleaned = append(cleaned, recipient)
		}
	}
	return cleaned
}

// requireEnv returns the values of names or an error naming the first missing one.
func requireEnv(names ...string) (values []string, e *xerr.Error) {
	for _, name := range names {
		value := os.Getenv(name)
		if value == "" {
			return nil, xerr.NewError(fmt.Errorf("environment variable %s is not set", name), "read email provider credentials", name)
		}
		values = append(values, value)
	}
	return values, nil
}
