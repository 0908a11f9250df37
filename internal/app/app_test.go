package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emoticon-bot/internal/config"
	"github.com/haytac/emoticon-bot/internal/database"
	"github.com/haytac/emoticon-bot/internal/emoticon"
	"github.com/haytac/emoticon-bot/internal/scheduler"
	"github.com/haytac/emoticon-bot/internal/telegram"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

type recordingSender struct {
	mu    sync.Mutex
	sends [][]interfaces.MessagePart
}

func (s *recordingSender) SendMessage(_ context.Context, _ interfaces.Destination, parts []interfaces.MessagePart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, parts)
	return nil
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) all() [][]interfaces.MessagePart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]interfaces.MessagePart(nil), s.sends...)
}

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts [][]openai.ChatCompletionMessage
}

func (f *fakeCompleter) Complete(_ context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, messages)
	return f.reply, f.err
}

func testConfig(t *testing.T, images ...string) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0755))
	for _, img := range images {
		require.NoError(t, os.WriteFile(filepath.Join(imagesDir, img), []byte("img"), 0644))
	}
	return &config.AppConfig{
		ImagesDir:      imagesDir,
		SettingsPath:   filepath.Join(dir, "config.json"),
		MarkerSyntax:   "percent",
		SingleEmoticon: true,
		ResponsePolicy: "first",
		RepairPolicy:   "memory",
		SystemPrompt:   "Be nice.",
		HistoryTurns:   4,
		DatabasePath:   filepath.Join(dir, "bot.db"),
	}
}

func newTestWorker(t *testing.T, completer *fakeCompleter, images ...string) (*ChatWorker, *recordingSender) {
	t.Helper()
	plugin, err := BuildPlugin(testConfig(t, images...), nil)
	require.NoError(t, err)
	sender := &recordingSender{}
	return NewChatWorker(plugin, completer, sender, NewHistory(4), "Be nice.", zerolog.Nop()), sender
}

func incoming(text string) telegram.Incoming {
	return telegram.Incoming{
		Destination: interfaces.Destination{Platform: telegram.PlatformName, ConversationID: "42"},
		Text:        text,
	}
}

func TestBuildPlugin_InvalidOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.MarkerSyntax = "angle"
	_, err := BuildPlugin(cfg, nil)
	assert.ErrorIs(t, err, emoticon.ErrUnknownSyntax)

	cfg = testConfig(t)
	cfg.ResponsePolicy = "some"
	_, err = BuildPlugin(cfg, nil)
	assert.Error(t, err)
}

func TestChatWorker_ResponseWithEmoticon(t *testing.T) {
	completer := &fakeCompleter{reply: "aww %smile% glad to hear"}
	w, sender := newTestWorker(t, completer, "smile.png")

	w.HandleMessage(context.Background(), incoming("I passed my exam"))

	sends := sender.all()
	require.Len(t, sends, 2, "image and text are sent separately")
	assert.Equal(t, interfaces.PartImagePath, sends[0][0].Kind)
	assert.Equal(t, "smile", sends[0][0].Emoticon)
	assert.Equal(t, "aww glad to hear", sends[1][0].Text)

	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	require.Len(t, prompt, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, prompt[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, prompt[1].Role)
	assert.Equal(t, openai.ChatMessageRoleSystem, prompt[2].Role)
	assert.Contains(t, prompt[2].Content, "smile")
}

func TestChatWorker_PlainResponse(t *testing.T) {
	completer := &fakeCompleter{reply: "congrats %unknown%"}
	w, sender := newTestWorker(t, completer, "smile.png")

	w.HandleMessage(context.Background(), incoming("I passed"))

	sends := sender.all()
	require.Len(t, sends, 1)
	assert.Equal(t, "congrats %unknown%", sends[0][0].Text)
}

func TestChatWorker_InboundMarkersSkipModel(t *testing.T) {
	completer := &fakeCompleter{reply: "unused"}
	w, sender := newTestWorker(t, completer, "smile.png")

	w.HandleMessage(context.Background(), incoming("look %smile%"))

	assert.Empty(t, completer.prompts)
	sends := sender.all()
	require.Len(t, sends, 1, "one combined reply")
	require.Len(t, sends[0], 2)
	assert.Equal(t, interfaces.PartImagePath, sends[0][0].Kind)
	assert.Equal(t, "look", sends[0][1].Text)
}

func TestChatWorker_HistoryFeedsPrompt(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	w, _ := newTestWorker(t, completer, "smile.png")

	w.HandleMessage(context.Background(), incoming("first"))
	w.HandleMessage(context.Background(), incoming("second"))

	require.Len(t, completer.prompts, 2)
	prompt := completer.prompts[1]
	// system, user(first), assistant(ok), user(second), instruction
	require.Len(t, prompt, 5)
	assert.Equal(t, "first", prompt[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, prompt[2].Role)
	assert.Equal(t, "second", prompt[3].Content)
	assert.Equal(t, openai.ChatMessageRoleSystem, prompt[4].Role)
}

func TestChatWorker_CompletionError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	w, sender := newTestWorker(t, completer)

	w.HandleMessage(context.Background(), incoming("hello"))

	sends := sender.all()
	require.Len(t, sends, 1)
	assert.Equal(t, fallbackReply, sends[0][0].Text)
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	for _, c := range []string{"a", "b", "c", "d"} {
		h.Append("x", openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: c})
	}
	got := h.Get("x")
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Content)
	assert.Empty(t, h.Get("y"))

	off := NewHistory(0)
	off.Append("x", openai.ChatCompletionMessage{Content: "a"})
	assert.Empty(t, off.Get("x"))
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zerolog.Nop())
	assert.NoError(t, s.SendMessage(context.Background(), interfaces.Destination{}, []interfaces.MessagePart{interfaces.TextPart("x")}))
	assert.Equal(t, "dry-run", s.Name())
}

func TestApplication_ServeAndJobs(t *testing.T) {
	cfg := testConfig(t, "smile.png")
	cfg.RescanIntervalSeconds = 60
	cfg.HistoryRetentionDays = 7

	db, err := database.Connect(cfg.DatabasePath, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := database.NewDeliveryStore(db)

	plugin, err := BuildPlugin(cfg, store)
	require.NoError(t, err)
	sender := &recordingSender{}
	completer := &fakeCompleter{reply: "%smile% hi"}

	application := &Application{
		Config:     cfg,
		DB:         db,
		Deliveries: store,
		Plugin:     plugin,
		Worker:     NewChatWorker(plugin, completer, sender, NewHistory(0), "", zerolog.Nop()),
		Scheduler:  scheduler.New(),
	}
	require.NoError(t, application.ScheduleJobs())
	assert.Equal(t, 2, application.Scheduler.Len())

	in := make(chan telegram.Incoming, 3)
	for i := 0; i < 3; i++ {
		in <- incoming("hello")
	}
	close(in)
	application.Serve(context.Background(), in, 2)

	assert.Len(t, sender.all(), 6)
	deliveries, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, deliveries, 6)
}
