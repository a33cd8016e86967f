package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"financas/internal/core"
	"financas/internal/services"
)

// Handler wires the Telegram long-polling loop to the record and query
// flows. Per-chat state lives in memory; a restart simply drops
// unfinished conversations.
type Handler struct {
	bot          *tgbotapi.BotAPI
	service      *services.TransactionService
	dashboardURL string

	mu           sync.Mutex
	convos       map[int64]*Conversation
	pendingQuery map[int64]core.TransactionKind
}

func NewHandler(token string, service *services.TransactionService, dashboardURL string) (*Handler, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Handler{
		bot:          api,
		service:      service,
		dashboardURL: dashboardURL,
		convos:       make(map[int64]*Conversation),
		pendingQuery: make(map[int64]core.TransactionKind),
	}, nil
}

// Run polls for updates until the context is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := h.bot.GetUpdatesChan(u)
	slog.InfoContext(ctx, "Bot started", "username", h.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			slog.InfoContext(ctx, "Bot stopped", "reason", ctx.Err())
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			if update.Message == nil {
				continue
			}
			h.handleMessage(ctx, update.Message)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		h.handleCommand(ctx, msg)
		return
	}

	h.mu.Lock()
	convo, inConvo := h.convos[chatID]
	queryKind, inQuery := h.pendingQuery[chatID]
	h.mu.Unlock()

	switch {
	case inConvo:
		h.advanceConversation(ctx, msg, convo)
	case inQuery:
		h.answerMonthQuery(ctx, msg, queryKind)
	default:
		h.send(ctx, chatID, Reply{Text: "Use /receita ou /despesa para registrar, /consulta_receita ou /consulta_despesa para consultar."})
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		h.resetState(chatID)
		if err := h.service.RegisterUser(ctx, userFrom(msg)); err != nil {
			slog.ErrorContext(ctx, "Failed to register user", "chat_id", chatID, "error", err)
		}
		h.send(ctx, chatID, Reply{
			Text: "Olá! Eu registro suas finanças.\n\n" +
				"/receita - registrar uma receita\n" +
				"/despesa - registrar uma despesa\n" +
				"/consulta_receita - receitas de um mês\n" +
				"/consulta_despesa - despesas de um mês\n" +
				"/dashboard - link do painel\n" +
				"/cancelar - cancelar a operação atual",
			Options: commandOptions,
		})

	case "receita":
		h.startConversation(ctx, chatID, core.Income)

	case "despesa":
		h.startConversation(ctx, chatID, core.Expense)

	case "consulta_receita":
		h.startMonthQuery(ctx, chatID, core.Income)

	case "consulta_despesa":
		h.startMonthQuery(ctx, chatID, core.Expense)

	case "dashboard":
		h.send(ctx, chatID, Reply{Text: "Painel: " + h.dashboardURL})

	case "cancelar":
		h.resetState(chatID)
		h.send(ctx, chatID, Reply{Text: "Operação cancelada."})

	default:
		h.send(ctx, chatID, Reply{Text: "Comando desconhecido. Use /start para ver as opções."})
	}
}

func (h *Handler) startConversation(ctx context.Context, chatID int64, kind core.TransactionKind) {
	convo, reply := NewConversation(kind)

	h.mu.Lock()
	delete(h.pendingQuery, chatID)
	h.convos[chatID] = convo
	h.mu.Unlock()

	h.send(ctx, chatID, reply)
}

func (h *Handler) advanceConversation(ctx context.Context, msg *tgbotapi.Message, convo *Conversation) {
	chatID := msg.Chat.ID

	tx, reply, done := convo.Advance(msg.Text, time.Now().UTC())
	if !done {
		h.send(ctx, chatID, reply)
		return
	}

	h.resetState(chatID)

	saved, err := h.service.Record(ctx, userFrom(msg), tx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record transaction", "chat_id", chatID, "error", err)
		h.send(ctx, chatID, Reply{Text: "Não consegui salvar. Tente novamente com /receita ou /despesa."})
		return
	}

	noun := "Receita"
	if saved.Kind == core.Expense {
		noun = "Despesa"
	}
	h.send(ctx, chatID, Reply{Text: fmt.Sprintf("%s registrada: %s (%s) - %s em %02d/%02d/%d",
		noun, saved.Description, saved.Category, core.FormatBRL(saved.Amount.Cents),
		saved.OccurredAt.Day(), saved.OccurredAt.Month(), saved.OccurredAt.Year())})
}

func (h *Handler) startMonthQuery(ctx context.Context, chatID int64, kind core.TransactionKind) {
	h.mu.Lock()
	delete(h.convos, chatID)
	h.pendingQuery[chatID] = kind
	h.mu.Unlock()

	h.send(ctx, chatID, Reply{Text: "Qual mês?", Options: core.MonthNames})
}

func (h *Handler) answerMonthQuery(ctx context.Context, msg *tgbotapi.Message, kind core.TransactionKind) {
	chatID := msg.Chat.ID

	month, ok := core.MonthNumber(msg.Text)
	if !ok {
		h.send(ctx, chatID, Reply{Text: "Mês inválido. Escolha uma das opções:", Options: core.MonthNames})
		return
	}

	h.resetState(chatID)

	report, err := h.service.Report(ctx, chatID, kind, time.Now().UTC().Year(), month)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build month report", "chat_id", chatID, "error", err)
		h.send(ctx, chatID, Reply{Text: "Não consegui consultar. Tente novamente."})
		return
	}

	h.send(ctx, chatID, Reply{Text: report.Format()})
}

// commandOptions is the persistent keyboard offered after /start.
var commandOptions = []string{
	"/receita", "/despesa",
	"/consulta_receita", "/consulta_despesa",
	"/dashboard", "/cancelar",
}

// userFrom builds the domain user for the message sender. The chat id
// doubles as the user id.
func userFrom(msg *tgbotapi.Message) core.User {
	u := core.User{ID: msg.Chat.ID}
	if msg.From != nil {
		u.FirstName = msg.From.FirstName
		u.Username = msg.From.UserName
	}
	return u
}

func (h *Handler) resetState(chatID int64) {
	h.mu.Lock()
	delete(h.convos, chatID)
	delete(h.pendingQuery, chatID)
	h.mu.Unlock()
}

func (h *Handler) send(ctx context.Context, chatID int64, reply Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Options) > 0 {
		msg.ReplyMarkup = optionsKeyboard(reply.Options)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := h.bot.Send(msg); err != nil {
		slog.ErrorContext(ctx, "Failed to send message", "chat_id", chatID, "error", err)
	}
}

// optionsKeyboard lays options out two per row.
func optionsKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(options); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(options[i])}
		if i+1 < len(options) {
			row = append(row, tgbotapi.NewKeyboardButton(options[i+1]))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}
