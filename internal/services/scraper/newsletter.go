package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/models"
)

// NewsletterSource ingests current affairs newsletters from an IMAP mailbox.
// Unseen messages whose subject carries the date key are collected; only the
// text/plain parts are kept.
type NewsletterSource struct {
	config *common.NewsletterConfig
	logger arbor.ILogger
}

// NewNewsletterSource creates the IMAP newsletter source.
func NewNewsletterSource(config *common.NewsletterConfig, logger arbor.ILogger) *NewsletterSource {
	return &NewsletterSource{
		config: config,
		logger: logger,
	}
}

// Name returns the source name.
func (s *NewsletterSource) Name() string {
	return "newsletter"
}

// Fetch collects unseen newsletter messages for a date key.
func (s *NewsletterSource) Fetch(ctx context.Context, dateKey string) (*models.ScrapedArticle, error) {
	if s.config.Server == "" || s.config.Username == "" || s.config.Password == "" {
		return nil, fmt.Errorf("newsletter source is not configured")
	}

	c, err := client.DialTLS(s.config.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(s.config.Username, s.config.Password); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}

	folder := s.config.Folder
	if folder == "" {
		folder = "INBOX"
	}

	mbox, err := c.Select(folder, false)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", folder, err)
	}
	if mbox.Messages == 0 {
		return nil, fmt.Errorf("no messages in %s", folder)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, fmt.Errorf("no unseen newsletter messages")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	messages := make(chan *imap.Message, len(seqNums))
	section := &imap.BodySectionName{}

	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, section.FetchItem()}, messages)
	}()

	var title string
	var bodies []string
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}

		subject := msg.Envelope.Subject
		if !strings.Contains(subject, dateKey) {
			continue
		}

		from := ""
		if len(msg.Envelope.From) > 0 {
			from = msg.Envelope.From[0].Address()
		}
		if !s.senderAllowed(from) {
			s.logger.Debug().
				Str("from", from).
				Str("subject", subject).
				Msg("Skipping newsletter from unlisted sender")
			continue
		}

		body, err := parseMessageBody(msg, section)
		if err != nil {
			s.logger.Warn().Err(err).Uint32("seq", msg.SeqNum).Msg("Failed to parse message body")
			continue
		}
		if body == "" {
			continue
		}

		if title == "" {
			title = subject
		}
		bodies = append(bodies, body)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if len(bodies) == 0 {
		return nil, fmt.Errorf("no newsletter messages for date %s", dateKey)
	}

	s.logger.Info().
		Int("messages", len(bodies)).
		Str("date", dateKey).
		Msg("Newsletter messages collected")

	body := strings.Join(bodies, "\n\n")
	return &models.ScrapedArticle{
		Source:   s.Name(),
		URL:      "imap://" + s.config.Server + "/" + folder,
		Title:    title,
		Body:     body,
		Markdown: body,
	}, nil
}

// senderAllowed checks the sender allowlist; an empty list allows everyone.
func (s *NewsletterSource) senderAllowed(from string) bool {
	if len(s.config.Senders) == 0 {
		return true
	}
	for _, sender := range s.config.Senders {
		if strings.EqualFold(strings.TrimSpace(sender), from) {
			return true
		}
	}
	return false
}

// parseMessageBody extracts the text/plain body from an IMAP message.
func parseMessageBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", fmt.Errorf("no body section")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to create mail reader: %w", err)
	}

	var body string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return "", fmt.Errorf("failed to read body: %w", err)
				}
				body = string(b)
			}
		}
	}

	return strings.TrimSpace(body), nil
}
