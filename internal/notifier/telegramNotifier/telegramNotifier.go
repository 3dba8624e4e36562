package telegramNotifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/utils"
	tele "gopkg.in/telebot.v4"
)

// TelegramNotifier posts payment outcomes to the ops chat. Notifications are
// best effort: a delivery failure is logged and dropped.
type TelegramNotifier struct {
	bot       *tele.Bot
	opsChatID int64
}

func New(cfg *config.Config) *TelegramNotifier {
	settings := tele.Settings{Token: cfg.Telegram.Token}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TelegramNotifier{bot: b, opsChatID: cfg.Telegram.OpsChatID}
}

func (n *TelegramNotifier) NotifyPaymentResult(ctx context.Context, userID string, operation model.PaymentOperation) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TelegramNotifier.NotifyPaymentResult"

	var text string
	switch operation.Status {
	case "succeeded":
		text = fmt.Sprintf(
			"✅ investment %s\nuser: %s\nproperty: %s\namount: %s",
			operation.InvestmentRef, userID, operation.PropertyRef, operation.Amount.String(),
		)
	default:
		text = fmt.Sprintf(
			"❌ payment %s (%s)\nuser: %s\nproperty: %s\namount: %s\nmessage: %s",
			operation.InvestmentRef, operation.Status, userID, operation.PropertyRef, operation.Amount.String(), operation.Message,
		)
	}

	_, err := n.bot.Send(tele.ChatID(n.opsChatID), text)
	if err != nil {
		slog.Error("can't send ops notification", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}
