package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Spok95/smeta-bot/internal/confirm"
	"github.com/Spok95/smeta-bot/internal/dialog"
	"github.com/Spok95/smeta-bot/internal/domain/backup"
	"github.com/Spok95/smeta-bot/internal/domain/estimate"
	"github.com/Spok95/smeta-bot/internal/domain/finance"
	"github.com/Spok95/smeta-bot/internal/domain/inventory"
	"github.com/Spok95/smeta-bot/internal/domain/library"
	"github.com/Spok95/smeta-bot/internal/domain/notes"
	"github.com/Spok95/smeta-bot/internal/domain/profile"
	"github.com/Spok95/smeta-bot/internal/domain/projects"
	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/domain/settings"
	"github.com/Spok95/smeta-bot/internal/domain/stages"
	"github.com/Spok95/smeta-bot/internal/domain/tasks"
	"github.com/Spok95/smeta-bot/internal/infra/ai"
	"github.com/Spok95/smeta-bot/internal/infra/mailer"
	"github.com/Spok95/smeta-bot/internal/infra/metrics"
	"github.com/Spok95/smeta-bot/internal/infra/pdf"
	"github.com/Spok95/smeta-bot/internal/infra/webapp"
)

const (
	// Вопрос без ответа дольше этого считается отклонённым.
	confirmTimeout = 10 * time.Minute
	// Воркер чата без обновлений дольше этого завершается.
	workerIdle = 30 * time.Minute
)

// telegram is the part of *tgbotapi.BotAPI the bot uses.
type telegram interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Services are the domain services the bot drives. PDF, Mailer, AI, Links
// and Metrics may be nil.
type Services struct {
	Estimates *estimate.Store
	Projects  *projects.Service
	Finance   *finance.Service
	Stages    *stages.Service
	Notes     *notes.Service
	Tasks     *tasks.Service
	Inventory *inventory.Service
	Scratch   *scratchpad.Service
	Library   *library.Service
	Profile   *profile.Service
	Settings  *settings.Service
	Backup    *backup.Service
	PDF       *pdf.Generator
	Mailer    *mailer.Mailer
	AI        *ai.Suggester
	Links     *webapp.Links
	Metrics   *metrics.Metrics
}

type Bot struct {
	Services
	api     telegram
	log     *slog.Logger
	states  *dialog.Repo
	prompts *confirm.Prompter
	limiter *rate.Limiter
	idle    time.Duration

	mu       sync.Mutex
	sessions map[int64]*estimate.Session
	queues   map[int64]chan tgbotapi.Update
	wg       sync.WaitGroup
}

// New builds the bot. perSecond limits outgoing requests for the whole bot.
func New(api telegram, log *slog.Logger, states *dialog.Repo, svc Services, perSecond float64) *Bot {
	if perSecond <= 0 {
		perSecond = 25
	}
	b := &Bot{
		Services: svc,
		api:      api,
		log:      log,
		states:   states,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
		idle:     workerIdle,
		sessions: map[int64]*estimate.Session{},
		queues:   map[int64]chan tgbotapi.Update{},
	}
	b.prompts = confirm.New(b.sendConfirm)
	return b
}

// Run reads updates until ctx ends. Each chat is handled by its own worker
// so a chat waiting for a confirmation does not hold up the others;
// confirmation answers and /cancel bypass the queue. An idle worker exits
// and the next update of its chat starts a new one.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, upd)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	chatID, kind := route(upd)
	if chatID == 0 {
		return
	}
	b.Metrics.Update(kind)

	if cb := upd.CallbackQuery; cb != nil && strings.HasPrefix(cb.Data, "cf:") {
		b.onConfirmAnswer(cb)
		return
	}
	if m := upd.Message; m != nil && m.IsCommand() && m.Command() == "cancel" {
		b.prompts.CancelAll(chatID)
	}

	// enqueue under the lock so retire never drops a queue holding an update
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[chatID]
	if !ok {
		q = make(chan tgbotapi.Update, 32)
		b.queues[chatID] = q
		b.wg.Add(1)
		go b.worker(ctx, chatID, q)
	}
	select {
	case q <- upd:
	default:
		b.log.Warn("chat queue is full, update dropped", "chat_id", chatID)
	}
}

func route(upd tgbotapi.Update) (int64, string) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		return upd.CallbackQuery.Message.Chat.ID, "callback"
	case upd.Message == nil:
		return 0, ""
	case upd.Message.IsCommand():
		return upd.Message.Chat.ID, "command"
	case upd.Message.Document != nil, len(upd.Message.Photo) > 0:
		return upd.Message.Chat.ID, "file"
	default:
		return upd.Message.Chat.ID, "message"
	}
}

func (b *Bot) worker(ctx context.Context, chatID int64, q chan tgbotapi.Update) {
	defer b.wg.Done()
	idle := time.NewTimer(b.idle)
	defer idle.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case upd := <-q:
			b.handle(ctx, upd)
			idle.Reset(b.idle)
		case <-idle.C:
			if b.retire(chatID, q) {
				return
			}
			idle.Reset(b.idle)
		}
	}
}

// retire forgets an idle chat: its queue and, unless the form has unsaved
// changes, its session. It reports false when an update arrived meanwhile.
func (b *Bot) retire(chatID int64, q chan tgbotapi.Update) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(q) > 0 {
		return false
	}
	delete(b.queues, chatID)
	if s, ok := b.sessions[chatID]; ok && !s.Dirty() {
		delete(b.sessions, chatID)
	}
	b.log.Debug("idle chat worker stopped", "chat_id", chatID)
	return true
}

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("update handler panicked", "panic", r, "update_id", upd.UpdateID)
		}
	}()
	switch {
	case upd.CallbackQuery != nil:
		b.onCallback(ctx, upd.CallbackQuery)
	case upd.Message.IsCommand():
		b.handleCommand(ctx, upd.Message)
	case upd.Message.Document != nil || len(upd.Message.Photo) > 0:
		b.onFile(ctx, upd.Message)
	default:
		b.onText(ctx, upd.Message)
	}
}

// session returns the chat's editing session, opening it on first use and
// refreshing it from storage afterwards.
func (b *Bot) session(ctx context.Context, chatID, owner int64) *estimate.Session {
	b.mu.Lock()
	s, ok := b.sessions[chatID]
	b.mu.Unlock()
	if ok {
		s.Refresh(ctx)
		return s
	}
	s = estimate.NewSession(owner, b.Estimates, &chatBridge{bot: b, chatID: chatID}, b.log)
	s.Open(ctx)
	b.mu.Lock()
	b.sessions[chatID] = s
	b.mu.Unlock()
	return s
}

func (b *Bot) wait(ctx context.Context) {
	if err := b.limiter.Wait(ctx); err != nil {
		b.log.Debug("send throttle interrupted", "err", err)
	}
}

func (b *Bot) send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.wait(ctx)
	m, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("send failed", "err", err)
	}
	return m, err
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, _ = b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyKB(ctx context.Context, chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	m := tgbotapi.NewMessage(chatID, text)
	if len(kb.InlineKeyboard) > 0 {
		m.ReplyMarkup = kb
	}
	_, _ = b.send(ctx, m)
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	if _, err := b.api.Request(resp); err != nil {
		b.log.Warn("answer callback failed", "err", err)
	}
}

func (b *Bot) sendFile(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := b.send(ctx, doc)
	return err
}

// downloadTelegramFile скачивает файл по FileID через Telegram API.
func (b *Bot) downloadTelegramFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
