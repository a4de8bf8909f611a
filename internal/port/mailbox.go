package port

import "context"

// MailFilter selects the messages that carry supplier invoices.
type MailFilter struct {
	From           string
	SubjectKeyword string
}

// Attachment is a file attached to a mail message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MailMessage is an unread message together with its attachments.
type MailMessage struct {
	UID         uint32
	From        string
	Subject     string
	Attachments []Attachment
}

// Mailbox reads supplier invoices from an inbox.
type Mailbox interface {
	FetchUnread(ctx context.Context, filter MailFilter) ([]MailMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
}
