package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	telegramAPI = "https://api.telegram.org"

	// maxMessageLen is Telegram's limit for a single text message.
	maxMessageLen = 4096
)

var ErrNoToken = errors.New("telegram: bot token not configured")

// Notifier posts messages through the Telegram Bot API.
type Notifier struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewNotifier builds a notifier. An empty baseURL uses the public Bot API.
func NewNotifier(token, baseURL string) *Notifier {
	if baseURL == "" {
		baseURL = telegramAPI
	}
	return &Notifier{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a token is configured.
func (n *Notifier) Enabled() bool { return n.token != "" }

// SendMessage sends an HTML-formatted text message to a chat. Text longer
// than Telegram allows is truncated.
func (n *Notifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	if n.token == "" {
		return ErrNoToken
	}
	payload := map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     truncate(text, maxMessageLen),
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/bot"+n.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, errResp.Description)
	}
	return nil
}

var tagRE = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)[^>]*>`)

// truncate shortens HTML text to at most limit runes. The cut never splits a
// tag or an entity, and tags left open by the cut are closed after the
// ellipsis so Telegram can still parse the message.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	for n := limit - 1; n > 0; {
		head := dropPartialMarkup(string(r[:n]))
		if i := strings.LastIndexByte(head, '\n'); i > len(head)/2 {
			head = head[:i+1]
		}
		out := head + "…" + closeTags(head)
		over := utf8.RuneCountInString(out) - limit
		if over <= 0 {
			return out
		}
		n -= over
	}
	return "…"
}

// dropPartialMarkup removes a trailing tag or entity that was cut in half.
func dropPartialMarkup(s string) string {
	if i := strings.LastIndexByte(s, '<'); i >= 0 && strings.IndexByte(s[i:], '>') < 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '&'); i >= 0 && strings.IndexByte(s[i:], ';') < 0 {
		s = s[:i]
	}
	return s
}

// closeTags returns the closing tags for every element still open in s,
// innermost first.
func closeTags(s string) string {
	var open []string
	for _, m := range tagRE.FindAllStringSubmatch(s, -1) {
		name := strings.ToLower(m[2])
		if m[1] == "" {
			open = append(open, name)
			continue
		}
		for i := len(open) - 1; i >= 0; i-- {
			if open[i] == name {
				open = open[:i]
				break
			}
		}
	}
	var b strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</" + open[i] + ">")
	}
	return b.String()
}
