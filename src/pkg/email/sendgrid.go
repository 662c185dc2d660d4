package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/tuumbleweed/xerr"
)

// newSendGridMessage builds a v3 mail with one personalization for all recipients.
func newSendGridMessage(sender string, recipients []string, subject, text, html string, attachments []Attachment) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail("", sender))
	message.Subject = subject

	personalization := mail.NewPersonalization()
	for _, recipient := range recipients {
		personalization.AddTos(mail.NewEmail("", recipient))
	}
	message.AddPersonalizations(personalization)

	if text != "" {
		message.AddContent(mail.NewContent("text/plain", text))
	}
	if html != "" {
		message.AddContent(mail.NewContent("text/html", html))
	}

	for _, attachment := range attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(attachment.Data))
		a.SetFilename(attachment.Filename)
		a.SetDisposition("attachment")
		if attachment.ContentType != "" {
			a.SetType(attachment.ContentType)
		}
		message.AddAttachment(a)
	}
	return message
}

// sendWithSendGrid needs SENDGRID_API_KEY.
func sendWithSendGrid(ctx context.Context, sender string, recipients []string, subject, text, html string, attachments []Attachment) (messageID string, e *xerr.Error) {
	credentials, e := requireEnv("SENDGRID_API_KEY")
	if e != nil {
		return "", e
	}

	client := sendgrid.NewSendClient(credentials[0])
	var response *rest.Response
	response, err := client.SendWithContext(ctx, newSendGridMessage(sender, recipients, subject, text, html, attachments))
	if err != nil {
		return "", xerr.NewError(err, "send email with SendGrid", recipients)
	}
	if response.StatusCode >= 300 {
		return "", xerr.NewError(fmt.Errorf("status code %d", response.StatusCode), "send email with SendGrid", response.Body)
	}
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}
