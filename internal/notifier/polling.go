package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"TickerCard/internal/model"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// CardSource exposes the latest card.
type CardSource interface {
	Card() model.Card
}

// RefreshRunner triggers and reports refresh cycles.
type RefreshRunner interface {
	RunNow(trigger model.TriggerType) (*model.RefreshResult, bool)
	LastResult() *model.RefreshResult
	Running() bool
}

// History reports recorded refresh outcomes.
type History interface {
	RefreshCounts(since time.Time) (map[model.RefreshStatus]int, error)
}

// NewCommandHandler answers /card, /refresh and /status.
func NewCommandHandler(cards CardSource, runner RefreshRunner, history History) CommandHandler {
	return func(command string) string {
		var name string
		if fields := strings.Fields(command); len(fields) > 0 {
			name = strings.SplitN(fields[0], "@", 2)[0]
		}
		switch name {
		case "/card", "/start":
			card := cards.Card()
			return FormatCard(&card)
		case "/refresh":
			res, ok := runner.RunNow(model.TriggerManual)
			if !ok {
				return "A refresh is already running"
			}
			return FormatStatus(res, false)
		case "/status":
			text := FormatStatus(runner.LastResult(), runner.Running())
			counts, err := history.RefreshCounts(time.Now().Add(-24 * time.Hour))
			if err != nil {
				log.Printf("[WARN] refresh counts: %v", err)
				return text
			}
			return text + "\nLast 24h: " + FormatCounts(counts) + "\n"
		default:
			return "Commands:\n• /card\n• /refresh\n• /status"
		}
	}
}

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.endpoint("getUpdates"), offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			log.Printf("[ERROR] create polling request: %v", err)
			return
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[WARN] read polling response: %v", err)
			continue
		}

		var result struct {
			OK     bool             `json:"ok"`
			Result []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil || !result.OK {
			log.Printf("[WARN] bad polling response (status %d): %v", resp.StatusCode, err)
			sleep(ctx, 5*time.Second)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			log.Printf("[INFO] received command: %s", text)
			if reply := handler(text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
