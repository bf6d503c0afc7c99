package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/gym-console/internal/domain/reconcile"
	"github.com/Spok95/gym-console/internal/domain/tenants"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TenantLookup interface {
	Get(ctx context.Context, id int64) (*tenants.Tenant, error)
}

// Telegram posts the expiring-members digest to the admin chat, one message
// per tenant.
type Telegram struct {
	api     Sender
	chatID  int64
	tenants TenantLookup
	log     *slog.Logger
}

func NewTelegram(api Sender, chatID int64, t TenantLookup, log *slog.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, tenants: t, log: log}
}

func (t *Telegram) NotifyExpiring(ctx context.Context, d reconcile.Digest) error {
	var failed int
	for _, td := range d.Tenants {
		gym := fmt.Sprintf("tenant %d", td.TenantID)
		if t.tenants != nil {
			if tn, err := t.tenants.Get(ctx, td.TenantID); err == nil {
				gym = tn.GymName
			}
		}
		msg := tgbotapi.NewMessage(t.chatID, FormatDigest(gym, d.From, d.To, td))
		if _, err := t.api.Send(msg); err != nil {
			failed++
			t.log.Error("telegram send failed", "tenant_id", td.TenantID, "err", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("telegram: %d of %d messages failed", failed, len(d.Tenants))
	}
	return nil
}

// FormatDigest renders one tenant's section of the digest as plain text.
func FormatDigest(gym string, from, to time.Time, td reconcile.TenantDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d membership(s) expiring %s to %s\n",
		gym, len(td.Members), from.Format(time.DateOnly), to.Format(time.DateOnly))
	for _, m := range td.Members {
		fmt.Fprintf(&b, "• %s (%s), %s plan, expires %s\n", m.Name, m.Phone, m.Plan, m.ExpiryDate.Format(time.DateOnly))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Log writes the digest to the structured log. It is used when no Telegram
// token is configured.
type Log struct{ log *slog.Logger }

func NewLog(log *slog.Logger) *Log { return &Log{log: log} }

func (l *Log) NotifyExpiring(_ context.Context, d reconcile.Digest) error {
	for _, td := range d.Tenants {
		ids := make([]int64, 0, len(td.Members))
		for _, m := range td.Members {
			ids = append(ids, m.ID)
		}
		l.log.Info("memberships expiring",
			"tenant_id", td.TenantID,
			"from", d.From.Format(time.DateOnly),
			"to", d.To.Format(time.DateOnly),
			"member_ids", ids,
		)
	}
	return nil
}
