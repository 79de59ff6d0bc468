package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

const charset = "UTF-8"

var _ Mailer = (*SES)(nil)

type SES struct {
	client sesiface.SESAPI
}

// NewSES uses the default credential chain
func NewSES(region string) (*SES, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("mailer: aws session: %w", err)
	}
	return NewSESWithClient(ses.New(sess, aws.NewConfig().WithRegion(region))), nil
}

func NewSESWithClient(client sesiface.SESAPI) *SES {
	return &SES{client: client}
}

func (s *SES) Send(ctx context.Context, msg Message) error {
	err := msg.Validate()
	if err != nil {
		return err
	}

	body := &ses.Body{}
	if msg.Text != "" {
		body.Text = &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Text)}
	}
	if msg.HTML != "" {
		body.Html = &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.HTML)}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &ses.Destination{
			ToAddresses: aws.StringSlice(msg.To),
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Subject)},
			Body:    body,
		},
	}
	if len(msg.Cc) > 0 {
		input.Destination.CcAddresses = aws.StringSlice(msg.Cc)
	}

	_, err = s.client.SendEmailWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("mailer: ses send: %w", err)
	}
	return nil
}
