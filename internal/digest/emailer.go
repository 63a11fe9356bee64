package digest

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/feedbackpulse/feedbackpulse/internal/utils"
)

const (
	emailRetryAttempts = 3
	emailRetryDelay    = 2 * time.Second
)

// Emailer delivers a generated digest through Resend with the archived file
// attached.
type Emailer struct {
	client    *resend.Client
	sender    string
	recipient string
}

// NewEmailer fails fast on incomplete email configuration so a misconfigured
// digest run never half-executes.
func NewEmailer(apiKey, sender, recipient string) (*Emailer, error) {
	if apiKey == "" || sender == "" || recipient == "" {
		return nil, fmt.Errorf("email configuration incomplete: RESEND_API_KEY, EMAIL_SENDER, and EMAIL_RECIPIENT are all required")
	}
	return &Emailer{
		client:    resend.NewClient(apiKey),
		sender:    sender,
		recipient: recipient,
	}, nil
}

func (e *Emailer) Send(d *Digest) error {
	var attachments []*resend.Attachment
	if d.Path != "" {
		content, err := os.ReadFile(d.Path)
		if err != nil {
			slog.Warn("[Digest] Could not read archive for attachment, sending without it",
				slog.String("path", d.Path),
				slog.String("error", err.Error()))
		} else {
			attachments = append(attachments, &resend.Attachment{
				Filename: filepath.Base(d.Path),
				Content:  content,
			})
		}
	}

	params := &resend.SendEmailRequest{
		From:        e.sender,
		To:          []string{e.recipient},
		Subject:     fmt.Sprintf("Customer Sentiment Weekly Digest - %s", d.GeneratedAt.Format("2006-01-02")),
		Html:        renderHTML(d),
		Text:        d.Content,
		Attachments: attachments,
	}

	sent, err := utils.Retry(emailRetryAttempts, emailRetryDelay, func() (*resend.SendEmailResponse, error) {
		return e.client.Emails.Send(params)
	})
	if err != nil {
		return fmt.Errorf("sending digest email: %w", err)
	}

	slog.Info("[Digest] Digest emailed",
		slog.String("email_id", sent.Id),
		slog.String("recipient", e.recipient))
	return nil
}

func renderHTML(d *Digest) string {
	return fmt.Sprintf(`<html>
<body>
<h2>Weekly Customer Sentiment Digest</h2>
<p><strong>Generated:</strong> %s</p>
<pre style="white-space: pre-wrap; font-family: monospace;">%s</pre>
<hr>
<p><em>This is an automated weekly digest from the customer sentiment analysis pipeline.</em></p>
</body>
</html>`,
		d.GeneratedAt.Format(time.DateTime),
		html.EscapeString(d.Content))
}
