package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"boxwatch/internal/components/assert"
	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	report_telegram_send    = "telegram.send"
	report_telegram_notify  = "telegram.notify"
	report_telegram_command = "telegram.command"
)

// telegramSendInterval keeps us clear of telegram's per chat rate limit.
const telegramSendInterval = 2 * time.Second

var ErrQueueFull = errors.New("telegram: message queue is full")

// Bot is the part of tgbotapi.BotAPI the notifier uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// StatusRequest asks the tracking loop for a status summary, the answer is
// sent on Reply.
type StatusRequest struct {
	Reply chan<- string
}

// Telegram sends notifications to every subscribed chat and answers the
// /ping, /notify and /status commands. Nothing is sent until Run is called.
type Telegram struct {
	bot   Bot
	clock chrono.API
	tel   telemetry.API

	queue  chan tgbotapi.MessageConfig
	status chan StatusRequest

	mu    sync.Mutex
	chats map[int64]bool
}

func NewTelegram(bot Bot, chats []int64, clock chrono.API, tel telemetry.API) *Telegram {
	assert.NotNil(bot)
	assert.NotNil(clock)
	assert.NotNil(tel)

	t := &Telegram{
		bot:    bot,
		clock:  clock,
		tel:    telemetry.NewScopedAPI("telegram", tel),
		queue:  make(chan tgbotapi.MessageConfig, 100),
		status: make(chan StatusRequest, 8),
		chats:  map[int64]bool{},
	}
	for _, chat := range chats {
		t.chats[chat] = true
	}
	return t
}

// StatusRequests yields a request for every /status command received.
func (t *Telegram) StatusRequests() <-chan StatusRequest {
	return t.status
}

// Chats returns the subscribed chat ids.
func (t *Telegram) Chats() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int64, 0, len(t.chats))
	for chat := range t.chats {
		out = append(out, chat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *Telegram) subscribe(chat int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.chats[chat] {
		return false
	}
	t.chats[chat] = true
	return true
}

func (t *Telegram) enqueue(ctx context.Context, msg tgbotapi.MessageConfig) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case t.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Notify queues the notification for every subscribed chat.
func (t *Telegram) Notify(ctx context.Context, n tracker.Notification) error {
	chats := t.Chats()
	if len(chats) == 0 {
		t.tel.ReportWarning(report_telegram_notify, "no subscribed chats", Subject(n))
		return nil
	}

	text := Message(n)
	for _, chat := range chats {
		err := t.enqueue(ctx, tgbotapi.NewMessage(chat, text))
		if err != nil {
			return fmt.Errorf("notify chat %d: %w", chat, err)
		}
	}
	return nil
}

// Run sends queued messages and handles incoming commands until ctx is done.
func (t *Telegram) Run(ctx context.Context) {
	updates := t.bot.GetUpdatesChan(tgbotapi.UpdateConfig{Timeout: 60})
	defer t.bot.StopReceivingUpdates()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.sendLoop(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				wg.Wait()
				return
			}
			if update.Message == nil {
				continue
			}
			t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *Telegram) sendLoop(ctx context.Context) {
	var lastSend time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.queue:
			if !t.send(ctx, msg, &lastSend) {
				return
			}
		}
	}
}

// Drain sends whatever is still queued, for one-off runs that never call Run.
func (t *Telegram) Drain(ctx context.Context) {
	var lastSend time.Time
	for {
		select {
		case msg := <-t.queue:
			if !t.send(ctx, msg, &lastSend) {
				return
			}
		default:
			return
		}
	}
}

// send returns false if ctx ended while waiting for the send interval.
func (t *Telegram) send(ctx context.Context, msg tgbotapi.MessageConfig, lastSend *time.Time) bool {
	if !lastSend.IsZero() {
		wait := telegramSendInterval - t.clock.Now().Sub(*lastSend)
		if wait > 0 {
			err := t.clock.Sleep(ctx, wait)
			if err != nil {
				return false
			}
		}
	}
	*lastSend = t.clock.Now()
	_, err := t.bot.Send(msg)
	if err != nil {
		t.tel.ReportBroken(report_telegram_send, err, msg.ChatID)
	}
	return true
}

func (t *Telegram) reply(ctx context.Context, chat int64, text string) {
	err := t.enqueue(ctx, tgbotapi.NewMessage(chat, text))
	if err != nil {
		t.tel.ReportWarning(report_telegram_command, err, chat)
	}
}

func (t *Telegram) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	chat := message.Chat.ID
	command := strings.ToLower(strings.Fields(text)[0])
	// commands sent in groups look like /ping@botname
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/ping":
		t.reply(ctx, chat, "Pong!")
	case "/notify":
		if t.subscribe(chat) {
			t.tel.ReportDebug("chat subscribed", chat)
			t.reply(ctx, chat, "Will now send notifications here.")
			return
		}
		t.reply(ctx, chat, "Already sending notifications here.")
	case "/status":
		t.requestStatus(ctx, chat)
	default:
		t.reply(ctx, chat, "Commands: /ping, /notify, /status")
	}
}

// requestStatus hands a status request to the tracking loop, which answers
// between passes, and relays the answer without blocking update handling.
func (t *Telegram) requestStatus(ctx context.Context, chat int64) {
	reply := make(chan string, 1)
	select {
	case t.status <- StatusRequest{Reply: reply}:
	default:
		t.reply(ctx, chat, "Busy, try again later.")
		return
	}
	go func() {
		select {
		case <-ctx.Done():
		case text := <-reply:
			t.reply(ctx, chat, text)
		}
	}()
}
