package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
	"github.com/agalitsyn/checklist-bot/internal/model"
	"github.com/agalitsyn/checklist-bot/version"
)

type BotConfig struct {
	UpdateTimeout int
	KeyPrefix     string
	FilterMode    checklist.FilterMode
	CorruptPolicy checklist.CorruptPolicy
	Debounce      time.Duration
}

// Sender is the part of the Telegram API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot keeps one checklist per chat, stored under "<prefix>:<chat id>".
type Bot struct {
	api      Sender
	tg       *tgbotapi.BotAPI
	selfName string

	cfg   BotConfig
	store model.KVStorage
	log   lgr.L

	mu       sync.Mutex
	sessions map[int64]*checklist.Session
}

func NewBot(cfg BotConfig, token string, logger lgr.L, store model.KVStorage) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if err := tgbotapi.SetLogger(lgr.ToStdLogger(logger, "DEBUG")); err != nil {
		return nil, err
	}
	b := NewBotWithSender(cfg, api, api.Self.UserName, logger, store)
	b.tg = api
	return b, nil
}

func NewBotWithSender(cfg BotConfig, api Sender, selfName string, logger lgr.L, store model.KVStorage) *Bot {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = checklist.DefaultKey
	}
	if logger == nil {
		logger = lgr.NoOp
	}
	return &Bot{
		api:      api,
		selfName: selfName,
		cfg:      cfg,
		store:    store,
		log:      logger,
		sessions: make(map[int64]*checklist.Session),
	}
}

// Start polls Telegram for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.tg.GetUpdatesChan(u)
	defer b.tg.StopReceivingUpdates()
	b.Run(ctx, updates)
}

// Run handles updates one at a time until ctx is done or updates is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.closeSessions()
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)

		case <-ctx.Done():
			b.log.Logf("[DEBUG] stopped: %s", ctx.Err())
			return
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if err := b.handleCallbackQuery(ctx, update); err != nil {
			b.log.Logf("[ERROR] handling callback query: %s", err)
		}
		return
	}

	if update.Message == nil { // ignore any non-Message updates
		return
	}

	if !update.Message.IsCommand() {
		if command, ok := parseCommand(update.Message.Text, b.selfName); ok {
			// Create a new update with the parsed command
			cmdUpdate := update
			cmdUpdate.Message.Text = "/" + command
			name, _, _ := strings.Cut(command, " ")
			cmdUpdate.Message.Entities = []tgbotapi.MessageEntity{
				{
					Type:   "bot_command",
					Offset: 0,
					Length: len(name) + 1,
				},
			}
			update = cmdUpdate
		}
	}

	var err error
	if update.Message.IsCommand() {
		err = b.handleCommand(ctx, update)
	} else {
		err = b.handleText(ctx, update)
	}
	if err != nil {
		b.log.Logf("[ERROR] handling message: %s", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	args := strings.TrimSpace(update.Message.CommandArguments())

	switch update.Message.Command() {
	case "start", "help":
		return b.showMainMenu(chatID)
	case "status":
		return b.statusCommand(chatID)
	case "list":
		return b.listCommand(ctx, chatID)
	case "add":
		return b.addCommand(ctx, chatID, args)
	case "search":
		return b.searchCommand(ctx, chatID, args)
	default:
		return b.sendText(chatID, "Unknown command. Try /help.")
	}
}

// handleText treats a plain message like typing into the input box: it
// becomes the draft for /add and, after the debounce window, the search.
func (b *Bot) handleText(ctx context.Context, update tgbotapi.Update) error {
	chatID := update.Message.Chat.ID
	s, err := b.session(ctx, chatID)
	if err != nil {
		return b.reportError(chatID, err)
	}
	s.Type(ctx, update.Message.Text)
	return nil
}

func (b *Bot) listCommand(ctx context.Context, chatID int64) error {
	s, err := b.session(ctx, chatID)
	if err != nil {
		return b.reportError(chatID, err)
	}
	return b.sendList(chatID, s.View().Visible(), s.View().Term())
}

func (b *Bot) addCommand(ctx context.Context, chatID int64, title string) error {
	s, err := b.session(ctx, chatID)
	if err != nil {
		return b.reportError(chatID, err)
	}

	var visible model.TaskCollection
	if title == "" {
		visible, err = s.Submit(ctx)
	} else {
		visible, err = s.Add(ctx, title)
	}
	if err != nil {
		return b.reportError(chatID, err)
	}
	return b.sendList(chatID, visible, s.View().Term())
}

func (b *Bot) searchCommand(ctx context.Context, chatID int64, term string) error {
	s, err := b.session(ctx, chatID)
	if err != nil {
		return b.reportError(chatID, err)
	}
	// the render callback sends the result
	s.Type(ctx, term)
	s.Flush()
	return nil
}

func (b *Bot) statusCommand(chatID int64) error {
	statusText := fmt.Sprintf("🤖 *Bot status*\n\n✅ Running\n📊 Version: %s", version.String())
	msg := tgbotapi.NewMessage(chatID, statusText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) showMainMenu(chatID int64) error {
	text := fmt.Sprintf("📋 *Checklist*\n\n"+
		"Send any text to search your tasks, then /add to save it as a new task.\n"+
		"/add <title> adds a task right away, /search <term> filters now, /list shows everything.\n\n"+
		"_Version: %s_", version.String())

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Show tasks", "cmd_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", "cmd_status"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard

	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) error {
	callback := tgbotapi.NewCallback(update.CallbackQuery.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Logf("[WARN] answering callback query: %s", err)
	}

	if update.CallbackQuery.Message == nil || update.CallbackQuery.Message.Chat == nil {
		return nil
	}
	chatID := update.CallbackQuery.Message.Chat.ID
	messageID := update.CallbackQuery.Message.MessageID

	data := update.CallbackQuery.Data
	switch data {
	case "cmd_list":
		return b.listCommand(ctx, chatID)
	case "cmd_status":
		return b.statusCommand(chatID)
	}

	op, err := parseCallbackData(data)
	if err != nil {
		b.log.Logf("[WARN] unknown callback data %q", data)
		return nil
	}

	s, err := b.session(ctx, chatID)
	if err != nil {
		return b.reportError(chatID, err)
	}

	var visible model.TaskCollection
	if op.delete {
		visible, err = s.Delete(ctx, op.id)
	} else {
		visible, err = s.Advance(ctx, op.id, op.action)
	}
	if err != nil {
		return b.reportError(chatID, err)
	}

	text, markup := renderList(visible, s.View().Term())
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	_, err = b.api.Send(edit)
	return err
}

func (b *Bot) session(ctx context.Context, chatID int64) (*checklist.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[chatID]; ok {
		return s, nil
	}

	svc := checklist.NewService(b.store, checklist.Options{
		Key:           fmt.Sprintf("%s:%d", b.cfg.KeyPrefix, chatID),
		CorruptPolicy: b.cfg.CorruptPolicy,
		Logger:        b.log,
	})
	s := checklist.NewSession(checklist.NewView(svc, b.cfg.FilterMode), checklist.SessionOptions{
		Debounce: b.cfg.Debounce,
		Logger:   b.log,
		Render: func(_ string, visible model.TaskCollection, err error) {
			if err != nil {
				_ = b.reportError(chatID, err)
				return
			}
			if err := b.sendList(chatID, visible, b.term(chatID)); err != nil {
				b.log.Logf("[ERROR] sending search result: %s", err)
			}
		},
	})
	if _, err := s.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}

	b.sessions[chatID] = s
	b.log.Logf("[DEBUG] opened checklist %s", svc.Key())
	return s, nil
}

func (b *Bot) term(chatID int64) string {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		return ""
	}
	return s.View().Term()
}

func (b *Bot) closeSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for chatID, s := range b.sessions {
		s.Close()
		delete(b.sessions, chatID)
	}
}

func (b *Bot) sendList(chatID int64, visible model.TaskCollection, term string) error {
	text, markup := renderList(visible, term)
	msg := tgbotapi.NewMessage(chatID, text)
	if len(markup.InlineKeyboard) > 0 {
		msg.ReplyMarkup = markup
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// reportError tells the user what went wrong. Errors the user can fix are
// not returned to the update loop.
func (b *Bot) reportError(chatID int64, err error) error {
	var corrupt *model.CorruptStateError
	switch {
	case errors.Is(err, model.ErrFieldRequired):
		return b.sendText(chatID, "⚠️ Fill in the task title first.")
	case errors.Is(err, model.ErrInvalidText):
		return b.sendText(chatID, "⚠️ The task title is not valid text.")
	case errors.Is(err, model.ErrTransitionNotAllowed):
		return b.sendText(chatID, "⚠️ This action is not available for the task anymore.")
	case errors.As(err, &corrupt):
		b.log.Logf("[ERROR] %s", err)
		return b.sendText(chatID, "❌ The saved checklist is damaged and was left untouched.")
	default:
		if sendErr := b.sendText(chatID, "❌ Something went wrong, please try again."); sendErr != nil {
			b.log.Logf("[WARN] could not report error: %s", sendErr)
		}
		return err
	}
}

func parseCommand(text string, botUsername string) (string, bool) {
	prefix := "@" + botUsername + " /"
	if strings.HasPrefix(text, prefix) {
		return strings.TrimPrefix(text, prefix), true
	}
	return "", false
}

type callbackOp struct {
	delete bool
	action model.TaskAction
	id     int64
}

// parseCallbackData reads "act:<action>:<id>" and "del:<id>".
func parseCallbackData(data string) (callbackOp, error) {
	parts := strings.Split(data, ":")
	switch {
	case len(parts) == 2 && parts[0] == "del":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return callbackOp{}, err
		}
		return callbackOp{delete: true, id: id}, nil
	case len(parts) == 3 && parts[0] == "act":
		action, err := model.ParseTaskAction(parts[1])
		if err != nil {
			return callbackOp{}, err
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return callbackOp{}, err
		}
		return callbackOp{action: action, id: id}, nil
	default:
		return callbackOp{}, fmt.Errorf("malformed callback data %q", data)
	}
}
