// Package imap reads supplier invoices from an IMAP inbox.
package imap

import (
	"context"
	"fmt"
	"io"
	"strings"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"invoiceledger/internal/config"
	"invoiceledger/internal/logger"
	"invoiceledger/internal/port"
)

type mailbox struct {
	cfg config.MailboxConfig
	log zerolog.Logger
}

// NewMailbox creates an IMAP-backed Mailbox. Every call opens its own
// session, so the mailbox is safe to share.
func NewMailbox(cfg config.MailboxConfig) port.Mailbox {
	return &mailbox{cfg: cfg, log: logger.WithComponent("imap")}
}

// FetchUnread returns unseen messages matching filter that carry at least one
// attachment. Bodies are fetched with PEEK so nothing is marked as read.
func (m *mailbox) FetchUnread(ctx context.Context, filter port.MailFilter) ([]port.MailMessage, error) {
	c, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.logout(c)

	criteria := goimap.NewSearchCriteria()
	criteria.WithoutFlags = []string{goimap.SeenFlag}
	if filter.From != "" {
		criteria.Header.Add("From", filter.From)
	}
	if filter.SubjectKeyword != "" {
		criteria.Header.Add("Subject", filter.SubjectKeyword)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(uids) == 0 {
		return []port.MailMessage{}, nil
	}

	seqset := new(goimap.SeqSet)
	seqset.AddNum(uids...)
	section := &goimap.BodySectionName{Peek: true}
	items := []goimap.FetchItem{goimap.FetchEnvelope, goimap.FetchUid, section.FetchItem()}

	fetched := make(chan *goimap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, fetched)
	}()

	var out []port.MailMessage
	for msg := range fetched {
		body := msg.GetBody(section)
		if body == nil {
			m.log.Warn().Uint32("uid", msg.Uid).Msg("server returned no message body")
			continue
		}
		parsed, err := parseMessage(body)
		if err != nil {
			m.log.Warn().Err(err).Uint32("uid", msg.Uid).Msg("skipping unparseable message")
			continue
		}
		parsed.UID = msg.Uid
		if len(parsed.Attachments) == 0 {
			continue
		}
		out = append(out, *parsed)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return out, nil
}

// MarkSeen sets the \Seen flag on the message.
func (m *mailbox) MarkSeen(ctx context.Context, uid uint32) error {
	c, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.logout(c)

	seqset := new(goimap.SeqSet)
	seqset.AddNum(uid)
	flags := []interface{}{goimap.SeenFlag}
	if err := c.UidStore(seqset, goimap.FormatFlagsOp(goimap.AddFlags, true), flags, nil); err != nil {
		return fmt.Errorf("imap store: %w", err)
	}
	return nil
}

func (m *mailbox) connect(ctx context.Context) (*client.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		c   *client.Client
		err error
	)
	if m.cfg.TLS {
		c, err = client.DialTLS(m.cfg.Addr(), nil)
	} else {
		c, err = client.Dial(m.cfg.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", m.cfg.Addr(), err)
	}
	c.Timeout = m.cfg.Timeout

	if err := c.Login(m.cfg.Username, m.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(m.cfg.Folder, false); err != nil {
		m.logout(c)
		return nil, fmt.Errorf("imap select %s: %w", m.cfg.Folder, err)
	}
	return c, nil
}

func (m *mailbox) logout(c *client.Client) {
	if err := c.Logout(); err != nil {
		m.log.Debug().Err(err).Msg("imap logout")
	}
}

// parseMessage reads the headers and attachments of a raw RFC 5322 message.
func parseMessage(r io.Reader) (*port.MailMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	msg := &port.MailMessage{}
	msg.Subject, _ = mr.Header.Subject()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading message part: %w", err)
		}

		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, _ := h.Filename()
		contentType, _, _ := h.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %s: %w", filename, err)
		}
		msg.Attachments = append(msg.Attachments, port.Attachment{
			Filename:    strings.TrimSpace(filename),
			ContentType: contentType,
			Data:        data,
		})
	}
	return msg, nil
}
