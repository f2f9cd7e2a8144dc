package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/logger"
)

type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
	logger  *logger.Logger
}

func NewNotifier(cfg *config.Config, log *logger.Logger) *Notifier {
	if !cfg.Telegram.Enabled {
		return &Notifier{enabled: false, logger: log}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Error("failed to create telegram bot", "error", err)
		return &Notifier{enabled: false, logger: log}
	}

	log.Info("telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.Telegram.ChatID,
		enabled: true,
		logger:  log,
	}
}

func (n *Notifier) NotifyDealOpened(symbol, direction string, quantity int64, entry, target float64) {
	msg := fmt.Sprintf("🟢 *OPEN* %s %s\nQty: %d\nEntry: %.2f\nTarget: %.2f",
		direction, symbol, quantity, entry, target)
	n.send(msg)
}

func (n *Notifier) NotifyDealClosed(symbol string, quantity int64, exitPrice, pnl, pnlPct float64) {
	emoji := "🔴"
	if pnl > 0 {
		emoji = "💰"
	}
	msg := fmt.Sprintf("%s *CLOSE* %s\nQty: %d\nExit: %.2f\nP&L: %.2f (%.2f%%)",
		emoji, symbol, quantity, exitPrice, pnl, pnlPct)
	n.send(msg)
}

func (n *Notifier) NotifySignal(symbol, direction string, entry, target float64) {
	msg := fmt.Sprintf("📣 *SIGNAL* %s %s\nEntry: %.2f\nTarget: %.2f",
		direction, symbol, entry, target)
	n.send(msg)
}

func (n *Notifier) NotifyError(context string, err error) {
	msg := fmt.Sprintf("⚠️ *Error* [%s]\n%v", context, err)
	n.send(msg)
}

func (n *Notifier) NotifyStatus(message string) {
	n.send(message)
}

func (n *Notifier) send(text string) {
	if !n.enabled {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}
