package email

import (
	"context"
	"os"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/tuumbleweed/xerr"
)

/*
sendWithMailgun needs MAILGUN_DOMAIN and MAILGUN_API_KEY. MAILGUN_API_BASE
switches the region, e.g. https://api.eu.mailgun.net/v3.
*/
func sendWithMailgun(ctx context.Context, sender string, recipients []string, subject, text, html string, attachments []Attachment) (messageID string, e *xerr.Error) {
	credentials, e := requireEnv("MAILGUN_DOMAIN", "MAILGUN_API_KEY")
	if e != nil {
		return "", e
	}

	mg := mailgun.NewMailgun(credentials[0], credentials[1])
	if apiBase := os.Getenv("MAILGUN_API_BASE"); apiBase != "" {
		mg.SetAPIBase(apiBase)
	}

	message := mg.NewMessage(sender, subject, text, recipients...)
	if html != "" {
		message.SetHtml(html)
	}
	for _, attachment := range attachments {
		message.AddBufferAttachment(attachment.Filename, attachment.Data)
	}

	response, id, err := mg.Send(ctx, message)
	if err != nil {
		return "", xerr.NewError(err, "send email with Mailgun", map[string]any{"response": response, "recipients": recipients})
	}
	return id, nil
}
