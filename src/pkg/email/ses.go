package email

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/tuumbleweed/xerr"
)

/*
sendWithSES sends a raw MIME message through Amazon SES v2. Credentials and
region come from the default chain (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
AWS_REGION, shared config).
*/
func sendWithSES(ctx context.Context, sender string, recipients []string, subject, text, html string, attachments []Attachment) (messageID string, e *xerr.Error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", xerr.NewError(err, "load AWS configuration", nil)
	}

	raw, err := buildRawMessage(sender, recipients, subject, text, html, attachments, time.Now())
	if err != nil {
		return "", xerr.NewError(err, "build raw MIME message", subject)
	}

	client := sesv2.NewFromConfig(cfg)
	output, err := client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content:          &types.EmailContent{Raw: &types.RawMessage{Data: raw}},
	})
	if err != nil {
		return "", xerr.NewError(err, "send email with SES", map[string]any{"sender": sender, "recipients": recipients})
	}
	return aws.ToString(output.MessageId), nil
}
