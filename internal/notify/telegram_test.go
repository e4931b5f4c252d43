package notify

import (
	"context"
	"testing"
	"time"

	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	updates chan tgbotapi.Update
	sent    chan tgbotapi.MessageConfig
	stopped chan struct{}
}

func newFakeBot() *fakeBot {
	return &fakeBot{
		updates: make(chan tgbotapi.Update, 10),
		sent:    make(chan tgbotapi.MessageConfig, 10),
		stopped: make(chan struct{}),
	}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent <- c.(tgbotapi.MessageConfig)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	close(b.stopped)
}

func (b *fakeBot) command(chat int64, text string) {
	b.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chat},
		Text: text,
	}}
}

func (b *fakeBot) next(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	select {
	case msg := <-b.sent:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a telegram message")
		return tgbotapi.MessageConfig{}
	}
}

func TestTelegram(t *testing.T) {
	bot := newFakeBot()
	clock := chrono.NewFakeImpl(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	notifier := NewTelegram(bot, []int64{1}, clock, telemetry.NewTestAPI())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		notifier.Run(ctx)
		close(done)
	}()

	bot.command(5, "/ping")
	msg := bot.next(t)
	require.Equal(t, int64(5), msg.ChatID)
	require.Equal(t, "Pong!", msg.Text)

	bot.command(7, "/notify@boxwatch_bot")
	require.Equal(t, "Will now send notifications here.", bot.next(t).Text)
	require.Equal(t, []int64{1, 7}, notifier.Chats())

	require.NoError(t, notifier.Notify(context.Background(), sampleNotification(false)))
	got := map[int64]string{}
	for i := 0; i < 2; i++ {
		msg := bot.next(t)
		got[msg.ChatID] = msg.Text
	}
	require.Equal(t, map[int64]string{
		1: Message(sampleNotification(false)),
		7: Message(sampleNotification(false)),
	}, got)

	bot.command(7, "/status")
	select {
	case req := <-notifier.StatusRequests():
		req.Reply <- "2 matchups, 1 notified"
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a status request")
	}
	require.Equal(t, "2 matchups, 1 notified", bot.next(t).Text)

	bot.command(7, "/what")
	require.Equal(t, "Commands: /ping, /notify, /status", bot.next(t).Text)

	// messages are spaced out, the fake clock never moves on its own
	for _, slept := range clock.Slept() {
		require.LessOrEqual(t, slept, telegramSendInterval)
	}
	require.Contains(t, clock.Slept(), telegramSendInterval)

	cancel()
	<-done
	<-bot.stopped
}

func TestTelegramWithoutChats(t *testing.T) {
	tel := telemetry.NewTestAPI()
	notifier := NewTelegram(newFakeBot(), nil, chrono.NewStandardImpl(), tel)

	require.NoError(t, notifier.Notify(context.Background(), sampleNotification(false)))
	require.Len(t, tel.Warnings(), 1)
}

func TestTelegramQueueFull(t *testing.T) {
	notifier := NewTelegram(newFakeBot(), []int64{1}, chrono.NewStandardImpl(), telemetry.NewTestAPI())
	for i := 0; i < cap(notifier.queue); i++ {
		require.NoError(t, notifier.Notify(context.Background(), sampleNotification(false)))
	}
	require.ErrorIs(t, notifier.Notify(context.Background(), sampleNotification(false)), ErrQueueFull)
}

func TestTelegramDrain(t *testing.T) {
	bot := newFakeBot()
	clock := chrono.NewFakeImpl(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	notifier := NewTelegram(bot, []int64{1, 2}, clock, telemetry.NewTestAPI())

	require.NoError(t, notifier.Notify(context.Background(), sampleNotification(true)))
	notifier.Drain(context.Background())

	require.Len(t, bot.sent, 2)
	require.Equal(t, []time.Duration{telegramSendInterval}, clock.Slept())
}
