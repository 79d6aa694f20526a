package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"almanara_go/config"

	"github.com/line/line-bot-sdk-go/linebot"
	"github.com/sirupsen/logrus"
)

// Notifier pushes human-readable workflow events to the staff chat. The
// primary channel is a bot webhook (token + chat id from environment,
// Markdown body); an optional LINE group push mirrors it. All sends are
// best-effort: callers never see an error, failures are only logged.
type Notifier struct {
	botToken string
	chatID   string
	endpoint string
	http     *http.Client

	lineBot      *linebot.Client
	lineGroupID  string
	lineDisabled bool
}

// New builds a notifier from the loaded application config.
func New() *Notifier {
	n := &Notifier{
		botToken: config.AppConfig.ChatBotToken,
		chatID:   config.AppConfig.ChatChatID,
		endpoint: "https://api.telegram.org",
		http:     &http.Client{Timeout: 10 * time.Second},
	}

	if config.AppConfig.LineChannelSecret != "" && config.AppConfig.LineChannelToken != "" {
		bot, err := linebot.New(config.AppConfig.LineChannelSecret, config.AppConfig.LineChannelToken)
		if err != nil {
			logrus.WithError(err).Warn("Cannot create LINE bot client, LINE channel disabled")
			n.lineDisabled = true
		} else {
			n.lineBot = bot
			n.lineGroupID = config.AppConfig.LineStaffGroupID
		}
	} else {
		n.lineDisabled = true
	}

	return n
}

// NewWithEndpoint builds a webhook-only notifier pointed at a custom
// endpoint (used by tests).
func NewWithEndpoint(botToken, chatID, endpoint string) *Notifier {
	return &Notifier{
		botToken:     botToken,
		chatID:       chatID,
		endpoint:     endpoint,
		http:         &http.Client{Timeout: 10 * time.Second},
		lineDisabled: true,
	}
}

// Send pushes a Markdown message to every configured channel.
func (n *Notifier) Send(ctx context.Context, text string) {
	if err := n.sendWebhook(ctx, text); err != nil {
		logrus.WithError(err).Warn("Chat webhook notification failed")
	}
	if n.lineBot != nil && n.lineGroupID != "" {
		if _, err := n.lineBot.PushMessage(n.lineGroupID, linebot.NewTextMessage(text)).Do(); err != nil {
			logrus.WithError(err).Warn("LINE notification failed")
		}
	}
}

func (n *Notifier) sendWebhook(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.endpoint, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned %d", resp.StatusCode)
	}
	return nil
}

// PaymentSubmitted formats the message sent after a learner submits a
// payment.
func PaymentSubmitted(email, course, method string, amount float64, currency, wantedTime string) string {
	return fmt.Sprintf(
		"*New payment submitted*\nStudent: %s\nCourse: %s\nMethod: %s\nAmount: %.2f %s\nPreferred time: %s",
		email, course, method, amount, currency, wantedTime,
	)
}

// PaymentReviewed formats the message sent after an admin decision.
func PaymentReviewed(paymentID uint, email, course, decision string) string {
	return fmt.Sprintf(
		"*Payment #%d %s*\nStudent: %s\nCourse: %s",
		paymentID, decision, email, course,
	)
}

// RosterDistributed formats the summary sent after a distribution run.
func RosterDistributed(assignmentID uint, course string, assigned, notified int) string {
	return fmt.Sprintf(
		"*Roster distributed*\nAssignment: #%d (%s)\nStudents assigned: %d\nEmails sent: %d",
		assignmentID, course, assigned, notified,
	)
}
