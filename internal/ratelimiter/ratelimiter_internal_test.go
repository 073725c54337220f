package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []time.Time
	chats []any
	err   error
}

func (s *recordingSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, time.Now())
	s.chats = append(s.chats, params.ChatID)

	if s.err != nil {
		return nil, s.err
	}

	return &models.Message{Text: params.Text}, nil
}

func TestRateLimiterPacesSameChat(t *testing.T) {
	sender := &recordingSender{}
	rl := newWithRates(sender, 20*time.Millisecond, 100*time.Millisecond, slog.Default())
	defer rl.Stop()

	ctx := context.Background()
	for range 2 {
		if _, err := rl.Send(ctx, &bot.SendMessageParams{ChatID: int64(-100), Text: "hi"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.sent))
	}

	if gap := sender.sent[1].Sub(sender.sent[0]); gap < 90*time.Millisecond {
		t.Fatalf("expected group chat pacing, got gap %s", gap)
	}
}

func TestRateLimiterReturnsSenderResult(t *testing.T) {
	sender := &recordingSender{}
	rl := newWithRates(sender, time.Millisecond, time.Millisecond, slog.Default())
	defer rl.Stop()

	msg, err := rl.Send(context.Background(), &bot.SendMessageParams{ChatID: int64(7), Text: "build"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg == nil || msg.Text != "build" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	sender.mu.Lock()
	sender.err = errors.New("forbidden")
	sender.mu.Unlock()

	if _, err = rl.Send(context.Background(), &bot.SendMessageParams{ChatID: int64(8), Text: "x"}); err == nil {
		t.Fatalf("expected sender error to propagate")
	}
}

func TestRateLimiterStop(t *testing.T) {
	rl := newWithRates(&recordingSender{}, time.Millisecond, time.Millisecond, slog.Default())
	rl.Stop()

	if _, err := rl.Send(context.Background(), &bot.SendMessageParams{ChatID: int64(1)}); err == nil {
		t.Fatalf("expected error after stop")
	}
}

func TestGetChatID(t *testing.T) {
	if getChatID(int64(-42)) != -42 || getChatID(5) != 5 || getChatID("@channel") != 0 {
		t.Fatalf("unexpected chat ID conversion")
	}
}
