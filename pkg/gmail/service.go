package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sort"
	"time"

	syncdomain "github.com/amo-ladoja/neriah/internal/sync/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc persists a refreshed OAuth token back to the profile
type TokenUpdateFunc func(token *oauth2.Token) error

type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// gmailService creates a Gmail API client with the user's tokens,
// refreshing through the notify wrapper so new access tokens reach the
// profile row.
func (s *Service) gmailService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	return srv, nil
}

// FetchRecentMessages returns full messages from the primary category
// received within the last lookbackDays days, newest first, capped at
// maxResults (50 when zero).
func (s *Service) FetchRecentMessages(ctx context.Context, accessToken, refreshToken string, lookbackDays, maxResults int, onTokenRefresh TokenUpdateFunc) ([]*gmail.Message, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	if lookbackDays <= 0 {
		lookbackDays = 1
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	after := time.Now().AddDate(0, 0, -lookbackDays).Unix()
	query := fmt.Sprintf("category:primary after:%d", after)

	log.Printf("[Gmail] Fetching messages with query: %s", query)

	listResp, err := srv.Users.Messages.List("me").Q(query).MaxResults(int64(maxResults)).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	refs := listResp.Messages
	if len(refs) == 0 {
		return nil, nil
	}

	// Fetch full message bodies in parallel with a bounded fan-out
	type result struct {
		msg *gmail.Message
		err error
	}
	results := make(chan result, len(refs))
	semaphore := make(chan struct{}, 10)

	for _, ref := range refs {
		go func(id string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			msg, err := srv.Users.Messages.Get("me", id).Format("full").Do()
			results <- result{msg, err}
		}(ref.Id)
	}

	messages := make([]*gmail.Message, 0, len(refs))
	for i := 0; i < len(refs); i++ {
		r := <-results
		if r.err != nil {
			log.Printf("[Gmail] Skipping unreadable message: %v", r.err)
			continue
		}
		messages = append(messages, r.msg)
	}

	// Parallel fetching returns messages in arbitrary order
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].InternalDate > messages[j].InternalDate
	})

	return messages, nil
}

// Attachment is one downloaded attachment with its decoded bytes
type Attachment struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
}

// DownloadAttachment fetches and decodes one attachment from a message
func (s *Service) DownloadAttachment(ctx context.Context, accessToken, refreshToken, messageID, attachmentID string, onTokenRefresh TokenUpdateFunc) (*Attachment, error) {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message: %w", err)
	}

	var filename, mimeType string
	var findMetadata func(parts []*gmail.MessagePart)
	findMetadata = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.AttachmentId == attachmentID {
				filename = part.Filename
				mimeType = part.MimeType
				return
			}
			if len(part.Parts) > 0 {
				findMetadata(part.Parts)
			}
		}
	}
	if msg.Payload != nil {
		findMetadata(msg.Payload.Parts)
	}
	if filename == "" {
		filename = "attachment"
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	attachPart, err := srv.Users.Messages.Attachments.Get("me", messageID, attachmentID).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve attachment: %w", err)
	}

	data, err := base64.URLEncoding.DecodeString(attachPart.Data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode attachment data: %w", err)
	}

	return &Attachment{
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

// Watch routes new-mail notifications for the user's INBOX to the
// Pub/Sub topic
func (s *Service) Watch(ctx context.Context, accessToken, refreshToken, topicName string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	// Gmail allows one push client per user; clear any stale watch first
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}

	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		return fmt.Errorf("unable to watch mailbox: %w", err)
	}
	log.Printf("[Gmail] Watch started, expiration: %d, historyId: %d", resp.Expiration, resp.HistoryId)

	return nil
}

// StopWatch stops push notifications for the user's mailbox
func (s *Service) StopWatch(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.gmailService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}
	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %w", err)
	}
	return nil
}

// ParseMessage converts a raw Gmail message into the canonical parsed
// form the extraction pipeline consumes. Missing fields degrade to
// empty values, never errors.
func ParseMessage(msg *gmail.Message) *syncdomain.ParsedEmail {
	parsed := &syncdomain.ParsedEmail{
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
		Snippet:   msg.Snippet,
	}

	if msg.InternalDate > 0 {
		parsed.InternalDate = time.UnixMilli(msg.InternalDate)
	}

	if msg.Payload == nil {
		parsed.Body = msg.Snippet
		return parsed
	}

	parsed.From = getHeader(msg.Payload.Headers, "From")
	parsed.To = getHeader(msg.Payload.Headers, "To")
	parsed.Subject = getHeader(msg.Payload.Headers, "Subject")
	parsed.Date = getHeader(msg.Payload.Headers, "Date")

	text, html := getMessageBody(msg.Payload)
	switch {
	case text != "":
		parsed.Body = text
	case html != "":
		parsed.Body = html
	default:
		parsed.Body = msg.Snippet
	}

	parsed.Attachments = getAttachments(msg.Payload)
	parsed.HasAttachments = len(parsed.Attachments) > 0

	return parsed
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Some payloads arrive with standard base64 padding
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// getMessageBody returns the plain-text and HTML bodies, searching
// nested multipart structures for text/plain and text/html leaves
func getMessageBody(payload *gmail.MessagePart) (text, html string) {
	if payload.Body != nil && payload.Body.Data != "" {
		body := decodeBody(payload.Body.Data)
		if payload.MimeType == "text/html" {
			return "", body
		}
		return body, ""
	}

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			switch part.MimeType {
			case "text/plain":
				if part.Body != nil && part.Body.Data != "" && text == "" {
					text = decodeBody(part.Body.Data)
				}
			case "text/html":
				if part.Body != nil && part.Body.Data != "" && html == "" {
					html = decodeBody(part.Body.Data)
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	return text, html
}

// getAttachments walks message parts collecting anything carrying a
// filename
func getAttachments(payload *gmail.MessagePart) []syncdomain.EmailAttachment {
	var attachments []syncdomain.EmailAttachment

	var findAttachments func(parts []*gmail.MessagePart)
	findAttachments = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" {
				att := syncdomain.EmailAttachment{
					Filename: part.Filename,
					MimeType: part.MimeType,
				}
				if part.Body != nil {
					att.Size = part.Body.Size
					att.AttachmentID = part.Body.AttachmentId
				}
				attachments = append(attachments, att)
			}
			if len(part.Parts) > 0 {
				findAttachments(part.Parts)
			}
		}
	}
	findAttachments(payload.Parts)

	return attachments
}

// FormatInternalDate renders a Gmail internal date (ms since epoch) as
// RFC3339 for logs and prompts
func FormatInternalDate(internalDate int64) string {
	if internalDate <= 0 {
		return ""
	}
	return time.UnixMilli(internalDate).UTC().Format(time.RFC3339)
}
