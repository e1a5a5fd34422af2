package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"ieltsreader/internal/config"
	"ieltsreader/internal/models"
)

// SESClient is the part of *sesv2.Client the email service uses
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends emails via Amazon SES
type EmailService struct {
	client     SESClient
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	logger     *slog.Logger
}

// NewEmailService creates an email service. Without a sender address it
// returns a disabled service that logs and skips every send.
func NewEmailService(ctx context.Context, cfg config.EmailConfig, logger *slog.Logger) (*EmailService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{debug: cfg.Debug, logger: logger}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", "from", cfg.FromEmail, "region", cfg.AWSRegion)
	return newEmailService(sesv2.NewFromConfig(awsCfg), cfg, logger), nil
}

func newEmailService(client SESClient, cfg config.EmailConfig, logger *slog.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		appBaseURL: strings.TrimRight(cfg.AppBaseURL, "/"),
		enabled:    true,
		debug:      cfg.Debug,
		logger:     logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendDueDigest emails the list of words due for review
func (s *EmailService) SendDueDigest(ctx context.Context, toEmail string, words []models.SavedWord) error {
	if !s.enabled {
		s.logger.Info("skipping email send (service disabled)", "kind", "due_digest", "to", toEmail)
		return nil
	}
	if len(words) == 0 {
		return nil
	}

	reviewLink := s.appBaseURL + "/#/vocabulary"
	subject := fmt.Sprintf("%d IELTS words are ready for review", len(words))
	if len(words) == 1 {
		subject = "1 IELTS word is ready for review"
	}

	var rows, lines strings.Builder
	for _, w := range words {
		fmt.Fprintf(&rows, "<tr><td><strong>%s</strong></td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(w.Word), html.EscapeString(w.Translation), html.EscapeString(w.Definition))
		fmt.Fprintf(&lines, "- %s: %s\n", w.Word, w.Translation)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2f6f5e; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		table { width: 100%%; border-collapse: collapse; }
		td { padding: 6px; border-bottom: 1px solid #ddd; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2f6f5e; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Time to review</h1>
		</div>
		<div class="content">
			<p>These saved words are due today:</p>
			<table>
%s			</table>
			<p style="text-align: center;">
				<a href="%s" class="button">Start reviewing</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from IELTS Reader. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, rows.String(), reviewLink)

	textBody := fmt.Sprintf(`These saved words are due today:

%s
Start reviewing: %s

---
This is an automated email from IELTS Reader. Please do not reply.
`, lines.String(), reviewLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if s.debug {
		s.logger.Debug("sending email", "to", toEmail, "subject", subject, "html_bytes", len(htmlBody))
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if out != nil && out.MessageId != nil {
		s.logger.Info("email sent", "to", toEmail, "message_id", *out.MessageId)
	}
	return nil
}
