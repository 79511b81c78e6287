// Package notify delivers finalized draw outcomes to display channels.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"numbers-lottery/internal/config"
	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/model"
)

// TelegramNotifier announces draw outcomes to a Telegram channel. With no
// token configured the notifier is a no-op.
type TelegramNotifier struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// NewTelegramNotifier creates the notifier from configuration.
func NewTelegramNotifier(cfg *config.TelegramConfig) (*TelegramNotifier, error) {
	if cfg.Token == "" {
		log.Info().Msg("Telegram token not set, outcome announcements disabled")
		return &TelegramNotifier{}, nil
	}

	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramNotifier{
		bot:  bot,
		chat: &tele.Chat{ID: cfg.ChatID},
	}, nil
}

// PublishOutcome sends the outcome announcement. Failures are logged and
// swallowed so a Telegram hiccup never blocks the draw pipeline.
func (n *TelegramNotifier) PublishOutcome(ctx context.Context, slot model.DrawSlot, outcome engine.Outcome, summary engine.Summary) {
	if n.bot == nil {
		return
	}

	if _, err := n.bot.Send(n.chat, formatOutcome(slot, outcome, summary), tele.ModeMarkdown); err != nil {
		log.Error().Err(err).Str("slot", slot.Key()).Msg("Failed to announce outcome on Telegram")
	}
}

func formatOutcome(slot model.DrawSlot, outcome engine.Outcome, summary engine.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *%s Draw Result*\n", slot.Variant)
	fmt.Fprintf(&b, "📅 %s %s (draw #%d)\n\n", slot.DrawDate.Format("2006-01-02"), slot.DrawTime, slot.Session)

	units := make([]string, 0, len(outcome))
	for unit := range outcome {
		units = append(units, unit)
	}
	sort.Strings(units)
	for _, unit := range units {
		if unit == "" {
			fmt.Fprintf(&b, "🔢 Result: *%s*\n", outcome[unit])
		} else {
			fmt.Fprintf(&b, "🔢 %s: *%s*\n", unit, outcome[unit])
		}
	}

	fmt.Fprintf(&b, "\n🎫 Tickets: %d | Won: %d | Lost: %d",
		summary.TicketsChecked, summary.Won, summary.Lost)
	return b.String()
}
