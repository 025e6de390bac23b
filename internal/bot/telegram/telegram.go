// Package telegram implements the bot Adapter for Telegram via long polling.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/bot"
)

// pollTimeout is the long-poll timeout in seconds for GetUpdates.
const pollTimeout = 60

// downloadTimeout bounds a single media download from Telegram servers.
const downloadTimeout = 30 * time.Second

// api abstracts the tgbotapi.BotAPI methods we use, enabling test mocks.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// realAPI wraps *tgbotapi.BotAPI to implement the api interface.
type realAPI struct {
	b *tgbotapi.BotAPI
}

func (r *realAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) { return r.b.Send(c) }
func (r *realAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return r.b.Request(c)
}
func (r *realAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return r.b.GetUpdatesChan(config)
}
func (r *realAPI) StopReceivingUpdates()                        { r.b.StopReceivingUpdates() }
func (r *realAPI) GetFileDirectURL(fileID string) (string, error) { return r.b.GetFileDirectURL(fileID) }

// Adapter implements bot.Adapter for Telegram.
type Adapter struct {
	token string

	mu        sync.Mutex
	tg        api
	connected bool
	closed    bool
	inbound   chan bot.InboundMessage

	httpClient *http.Client
}

// AdapterOpts holds parameters for creating a Telegram Adapter.
type AdapterOpts struct {
	Token string
	// For testing: inject a mock API instead of the real Telegram client.
	API api
}

// New creates a Telegram Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.API == nil && opts.Token == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	return &Adapter{
		token:      opts.Token,
		tg:         opts.API,
		inbound:    make(chan bot.InboundMessage, 100),
		httpClient: &http.Client{Timeout: downloadTimeout},
	}, nil
}

// Connect authorizes against the Telegram Bot API.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("telegram: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.tg == nil {
		b, err := tgbotapi.NewBotAPI(a.token)
		if err != nil {
			return fmt.Errorf("telegram: authorize: %w", err)
		}
		log.Printf("telegram: connected as @%s", b.Self.UserName)
		a.tg = &realAPI{b: b}
	}

	a.connected = true
	return nil
}

// Listen starts long polling and returns the inbound channel. Must be
// called after Connect. The channel is closed when the adapter closes.
func (a *Adapter) Listen(ctx context.Context) (<-chan bot.InboundMessage, error) {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return nil, fmt.Errorf("telegram: not connected")
	}
	tg := a.tg
	a.mu.Unlock()

	updates := tg.GetUpdatesChan(tgbotapi.UpdateConfig{Timeout: pollTimeout})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				a.handleUpdate(upd)
			}
		}
	}()

	return a.inbound, nil
}

// Send delivers an outbound message to Telegram.
func (a *Adapter) Send(ctx context.Context, msg bot.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("telegram: not connected")
	}
	tg := a.tg
	a.mu.Unlock()

	// In-place markup replacement (calendar month navigation).
	if msg.EditMessageID != 0 && msg.Inline != nil {
		edit := tgbotapi.NewEditMessageReplyMarkup(msg.OwnerID, msg.EditMessageID, inlineMarkup(msg.Inline))
		if _, err := tg.Request(edit); err != nil {
			return fmt.Errorf("telegram: edit markup: %w", err)
		}
		return nil
	}

	// Media send.
	if msg.MediaKind != "" && msg.MediaPath != "" {
		chattable, err := mediaChattable(msg)
		if err != nil {
			return err
		}
		if _, err := tg.Send(chattable); err != nil {
			return fmt.Errorf("telegram: send media: %w", err)
		}
		return nil
	}

	out := tgbotapi.NewMessage(msg.OwnerID, msg.Text)
	switch {
	case msg.Inline != nil:
		out.ReplyMarkup = inlineMarkup(msg.Inline)
	case msg.Keyboard != nil:
		out.ReplyMarkup = replyMarkup(msg.Keyboard)
	}
	if _, err := tg.Send(out); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// Close gracefully shuts down the adapter.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.tg != nil {
		a.tg.StopReceivingUpdates()
	}
	close(a.inbound)
	return nil
}

// handleUpdate converts a Telegram update into an InboundMessage.
func (a *Adapter) handleUpdate(upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		cb := upd.CallbackQuery
		// Acknowledge the press so the client stops its spinner.
		if _, err := a.tg.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("telegram: answer callback: %v", err)
		}
		msg := bot.InboundMessage{
			OwnerID:       cb.From.ID,
			UserName:      cb.From.UserName,
			CallbackToken: cb.Data,
			Timestamp:     time.Now(),
		}
		if cb.Message != nil {
			msg.CallbackMessageID = cb.Message.MessageID
		}
		a.deliver(msg)

	case upd.Message != nil:
		m := upd.Message
		if m.From == nil || m.From.IsBot {
			return
		}
		msg := bot.InboundMessage{
			OwnerID:   m.From.ID,
			UserName:  m.From.UserName,
			Text:      m.Text,
			Timestamp: m.Time(),
		}

		kind, fileID := mediaOf(m)
		if kind != "" {
			data, err := a.download(fileID)
			if err != nil {
				log.Printf("telegram: download %s: %v", kind, err)
				return
			}
			msg.MediaKind = kind
			msg.MediaData = data
			if msg.Text == "" {
				msg.Text = m.Caption
			}
		}
		a.deliver(msg)
	}
}

// deliver pushes an inbound message unless the adapter is closed.
func (a *Adapter) deliver(msg bot.InboundMessage) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}
	a.inbound <- msg
}

// mediaOf extracts the media kind and file id from a message, preferring
// the largest photo size.
func mediaOf(m *tgbotapi.Message) (kind, fileID string) {
	switch {
	case len(m.Photo) > 0:
		return blobs.KindPhoto, m.Photo[len(m.Photo)-1].FileID
	case m.Animation != nil:
		// Animation must precede video: Telegram sets both for GIFs.
		return blobs.KindAnimation, m.Animation.FileID
	case m.Video != nil:
		return blobs.KindVideo, m.Video.FileID
	}
	return "", ""
}

// download fetches a file's bytes from Telegram servers.
func (a *Adapter) download(fileID string) ([]byte, error) {
	url, err := a.tg.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram: file url: %w", err)
	}
	resp, err := a.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("telegram: fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram: fetch file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: read file: %w", err)
	}
	return data, nil
}

// mediaChattable builds the platform send config for a media message.
func mediaChattable(msg bot.OutboundMessage) (tgbotapi.Chattable, error) {
	file := tgbotapi.FilePath(msg.MediaPath)
	switch msg.MediaKind {
	case blobs.KindPhoto:
		photo := tgbotapi.NewPhoto(msg.OwnerID, file)
		photo.Caption = msg.Text
		return photo, nil
	case blobs.KindVideo:
		video := tgbotapi.NewVideo(msg.OwnerID, file)
		video.Caption = msg.Text
		return video, nil
	case blobs.KindAnimation:
		anim := tgbotapi.NewAnimation(msg.OwnerID, file)
		anim.Caption = msg.Text
		return anim, nil
	default:
		return nil, fmt.Errorf("telegram: unsupported media kind %q", msg.MediaKind)
	}
}

// replyMarkup translates a Keyboard into a Telegram reply keyboard.
func replyMarkup(kb *bot.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, len(kb.Rows))
	for i, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, len(row))
		for j, label := range row {
			buttons[j] = tgbotapi.NewKeyboardButton(label)
		}
		rows[i] = buttons
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = kb.OneTime
	return markup
}

// inlineMarkup translates an InlineKeyboard into Telegram inline markup.
func inlineMarkup(kb *bot.InlineKeyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, len(kb.Rows))
	for i, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			buttons[j] = tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Token)
		}
		rows[i] = buttons
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
