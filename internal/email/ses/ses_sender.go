package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"invoiceledger/internal/config"
	"invoiceledger/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	operator    string
}

// NewSESSender creates an SES-backed Notifier that mails the operator.
func NewSESSender(ctx context.Context, cfg config.EmailConfig) (port.Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesSender{
		client:      sesv2.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		operator:    cfg.OperatorAddress,
	}, nil
}

func (s *sesSender) NotifyInvoiceWarnings(ctx context.Context, notice port.InvoiceNotice) error {
	subject := buildSubject(notice)
	textBody := buildWarningText(notice)
	htmlBody := buildWarningHTML(notice)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.operator},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildSubject(n port.InvoiceNotice) string {
	number := n.Invoice.InvoiceNumber
	if number == "" {
		number = "(no number)"
	}
	return fmt.Sprintf("Invoice %s applied to %s with warnings", number, n.ProjectName)
}

func warningLines(n port.InvoiceNotice) []string {
	var lines []string
	for _, l := range strings.Split(n.Invoice.ErrorMessage, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func buildWarningText(n port.InvoiceNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nSource: %s\nFile: %s\nInvoice: %s\n\nWarnings:\n",
		n.ProjectName, n.Source, n.Filename, n.Invoice.InvoiceNumber)
	for _, l := range warningLines(n) {
		fmt.Fprintf(&b, "  - %s\n", l)
	}
	if len(n.Invoice.SkippedLines) > 0 {
		fmt.Fprintf(&b, "\nSkipped lines: %s\n", strings.Join(n.Invoice.SkippedLines, ", "))
	}
	return b.String()
}

func buildWarningHTML(n port.InvoiceNotice) string {
	var items strings.Builder
	for _, l := range warningLines(n) {
		fmt.Fprintf(&items, "    <li>%s</li>\n", html.EscapeString(l))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Invoice applied with warnings</h2>
  <p><strong>Project:</strong> %s<br><strong>Source:</strong> %s<br><strong>File:</strong> %s<br><strong>Invoice:</strong> %s</p>
  <ul>
%s  </ul>
  <p style="color: #666;">Skipped lines: %s</p>
</body>
</html>`,
		html.EscapeString(n.ProjectName),
		html.EscapeString(string(n.Source)),
		html.EscapeString(n.Filename),
		html.EscapeString(n.Invoice.InvoiceNumber),
		items.String(),
		html.EscapeString(strings.Join(n.Invoice.SkippedLines, ", ")),
	)
}
