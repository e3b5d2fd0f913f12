package telegram

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot posts run status to one chat. A zero Bot (no token) drops every
// message, so binaries can alert unconditionally.
type Bot struct {
	api    sender
	chatID int64
	source string
}

// NewBot returns a disabled bot when token is empty.
func NewBot(token string, chatID int64, source string) (*Bot, error) {
	if token == "" || chatID == 0 {
		return &Bot{source: source}, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//api.Debug = true

	return &Bot{api: api, chatID: chatID, source: source}, nil
}

func (b *Bot) Enabled() bool { return b != nil && b.api != nil }

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

func (b *Bot) send(text string) error {
	if !b.Enabled() {
		return nil
	}
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendStatus(message string) error {
	return b.send(fmt.Sprintf("ℹ️ *%s*: %s", escapeMarkdown(b.source), escapeMarkdown(message)))
}

func (b *Bot) SendError(err error) error {
	return b.send(fmt.Sprintf("❌ *%s error*\n%s", escapeMarkdown(b.source), escapeMarkdown(err.Error())))
}

// SendSummary posts a titled block of counters, keys sorted.
func (b *Bot) SendSummary(title string, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *%s*: %s\n", escapeMarkdown(b.source), escapeMarkdown(title))
	for _, k := range keys {
		fmt.Fprintf(&sb, "• %s: `%s`\n", escapeMarkdown(k), escapeMarkdown(fmt.Sprint(fields[k])))
	}
	return b.send(strings.TrimRight(sb.String(), "\n"))
}
