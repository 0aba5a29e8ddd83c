// Package handler routes incoming Telegram updates: admin uploads, user
// queries and selection button presses.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"telegram-movie-bot/internal/config"
	"telegram-movie-bot/internal/logging"
	"telegram-movie-bot/internal/search"
	"telegram-movie-bot/internal/storage"
	"telegram-movie-bot/internal/title"
)

const (
	// callbackPrefix tags selection tokens rendered into inline buttons.
	callbackPrefix = "dl_"
	// labelMaxLen bounds button labels; Telegram truncates long ones anyway.
	labelMaxLen = 30

	msgNotFound    = "❌ Not Found!\nThis movie has not been uploaded yet."
	msgRemoved     = "❌ This file was removed or could not be found."
	msgFetchError  = "⚠️ Error fetching file, please try again."
	msgSearchError = "⚠️ Search failed, please try again."
	msgSaveError   = "⚠️ Could not save this file, please try again."
)

// recordStore is the slice of the storage layer the handler uses directly.
type recordStore interface {
	Upsert(rec storage.Record) (uint64, error)
	GetByID(id uint64) (storage.Record, error)
}

// TelegramAPI covers the bot operations the handler performs. *bot.Bot
// satisfies it; tests substitute fakes.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *tg.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *tg.SendDocumentParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *tg.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *tg.AnswerCallbackQueryParams) (bool, error)
}

// Handler processes updates one at a time. It keeps no per-conversation
// state; the record store is the only shared resource.
type Handler struct {
	store         recordStore
	matcher       *search.Matcher
	adminID       int64
	directReplies bool
	tagMediaKind  bool
}

// New builds a Handler from the loaded configuration and an open store.
func New(cfg *config.Config, store *storage.Store) *Handler {
	return &Handler{
		store:         store,
		matcher:       &search.Matcher{Store: store, Limit: cfg.SearchLimit},
		adminID:       cfg.AdminID,
		directReplies: cfg.DirectReplies,
		tagMediaKind:  cfg.TagMediaKind,
	}
}

// HandleUpdate processes a single Telegram update to completion. It never
// panics and never returns an error to the polling loop; failures degrade to
// a user-visible message and a log entry.
func (h *Handler) HandleUpdate(ctx context.Context, b TelegramAPI, upd *models.Update) {
	ctx = logging.Context(ctx)

	if cq := upd.CallbackQuery; cq != nil {
		ctx = logging.WithUser(ctx, cq.From.ID)
		if strings.HasPrefix(cq.Data, callbackPrefix) {
			h.handleSelection(ctx, b, cq)
		}
		return
	}

	if upd.Message == nil {
		return
	}
	msg := upd.Message
	ctx = logging.WithChat(ctx, msg.Chat.ID)
	if msg.From != nil {
		ctx = logging.WithUser(ctx, msg.From.ID)
	}

	if att := mediaAttachment(msg); att != nil {
		h.handleUpload(ctx, b, msg, att)
		return
	}

	if cmd, _, ok := parseCommand(msg); ok {
		if cmd == "start" {
			h.handleStart(ctx, b, msg)
		}
		return
	}

	if msg.Text != "" {
		h.handleQuery(ctx, b, msg)
	}
}

// handleStart greets the sender; the admin gets the archiving hint.
func (h *Handler) handleStart(ctx context.Context, b TelegramAPI, msg *models.Message) {
	text := "🎬 Movie Finder Bot Ready!\n\n" +
		"To get a movie, just type its name.\n" +
		"(Example: Lucifer, Premam)"
	if msg.From != nil && msg.From.ID == h.adminID {
		text = "🎬 Movie Finder Bot Ready!\n\n" +
			"⚠️ Admin mode: forward movie files here to save them."
	} else if msg.From != nil && msg.From.FirstName != "" {
		text = "🎬 Hi " + msg.From.FirstName + "!\n\n" +
			"To get a movie, just type its name.\n" +
			"(Example: Lucifer, Premam)"
	}
	if _, err := b.SendMessage(ctx, &tg.SendMessageParams{ChatID: msg.Chat.ID, Text: text}); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("greeting send failed")
	}
}

// handleUpload archives a media attachment. Non-admin senders are dropped
// without any reply.
func (h *Handler) handleUpload(ctx context.Context, b TelegramAPI, msg *models.Message, att *attachment) {
	log := logging.Ctx(ctx)
	if msg.From == nil || msg.From.ID != h.adminID {
		log.Debug().Str("event", "upload_ignored").Msg("non-admin upload dropped")
		return
	}

	name, key := title.Normalize(msg.Caption, att.fileName)
	kind := "video"
	if h.tagMediaKind {
		kind = att.kind
	}
	id, err := h.store.Upsert(storage.Record{
		FileID:       att.fileID,
		FileUniqueID: att.uniqueID,
		Name:         name,
		SearchName:   key,
		Kind:         kind,
	})
	if err != nil {
		log.Error().Err(err).Str("event", "save_failed").Msg("upsert failed")
		h.send(ctx, b, msg.Chat.ID, msgSaveError)
		return
	}
	log.Info().Str("event", "file_saved").Uint64("record_id", id).Str("search_name", key).Msg("file archived")
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("✅ Saved to Database!\n📂 Name: %s", name))
}

// handleQuery answers a free-text search. Queries below the minimum length
// are ignored entirely.
func (h *Handler) handleQuery(ctx context.Context, b TelegramAPI, msg *models.Message) {
	log := logging.Ctx(ctx)
	if search.Tokens(msg.Text) == nil {
		log.Debug().Str("event", "query_ignored").Msg("query below minimum length")
		return
	}
	query := strings.ToLower(strings.TrimSpace(msg.Text))
	log.Info().Str("event", "query").Str("snippet", logging.Snippet(query, 30)).Msg("incoming query")

	ack, err := b.SendMessage(ctx, &tg.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   fmt.Sprintf("🔎 Searching for: %s...", query),
	})
	if err != nil {
		log.Error().Err(err).Msg("search ack failed")
		ack = nil
	}

	recs, err := h.matcher.Match(msg.Text)
	if err != nil {
		log.Error().Err(err).Str("event", "search_failed").Msg("store lookup failed")
		h.respond(ctx, b, msg.Chat.ID, ack, msgSearchError, nil)
		return
	}
	if len(recs) == 0 {
		log.Info().Str("event", "no_results").Msg("nothing matched")
		h.respond(ctx, b, msg.Chat.ID, ack, msgNotFound, nil)
		return
	}
	log.Info().Str("event", "results").Int("count", len(recs)).Msg("query matched")

	if h.directReplies {
		h.sendDirect(ctx, b, msg.Chat.ID, recs)
		return
	}

	buttons := make([][]models.InlineKeyboardButton, len(recs))
	for i, rec := range recs {
		buttons[i] = []models.InlineKeyboardButton{{
			Text:         "🎬 " + truncate(rec.Name, labelMaxLen),
			CallbackData: callbackPrefix + strconv.FormatUint(rec.ID, 10),
		}}
	}
	h.respond(ctx, b, msg.Chat.ID, ack,
		fmt.Sprintf("🎬 Found %d file(s), pick one:", len(recs)),
		&models.InlineKeyboardMarkup{InlineKeyboard: buttons})
}

// handleSelection resolves an inline button press back to a stored file.
func (h *Handler) handleSelection(ctx context.Context, b TelegramAPI, cq *models.CallbackQuery) {
	log := logging.Ctx(ctx)
	if _, err := b.AnswerCallbackQuery(ctx, &tg.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
		log.Warn().Err(err).Msg("callback ack failed")
	}

	chatID := cq.From.ID
	if cq.Message.Message != nil {
		chatID = cq.Message.Message.Chat.ID
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(cq.Data, callbackPrefix), 10, 64)
	if err != nil {
		log.Error().Err(err).Str("data", cq.Data).Msg("bad selection token")
		h.send(ctx, b, chatID, msgFetchError)
		return
	}

	rec, err := h.store.GetByID(id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Info().Str("event", "selection_gone").Uint64("record_id", id).Msg("record no longer stored")
		h.send(ctx, b, chatID, msgRemoved)
	case err != nil:
		log.Error().Err(err).Uint64("record_id", id).Msg("selection lookup failed")
		h.send(ctx, b, chatID, msgFetchError)
	default:
		_, err := b.SendDocument(ctx, &tg.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileString{Data: rec.FileID},
			Caption:  "🎬 " + rec.Name,
		})
		if err != nil {
			log.Error().Err(err).Uint64("record_id", id).Msg("file send failed")
			h.send(ctx, b, chatID, msgFetchError)
			return
		}
		log.Info().Str("event", "file_sent").Uint64("record_id", id).Msg("file delivered")
	}
}

// sendDirect replies with each matching file immediately. A failed item is
// logged and skipped; the rest of the batch still goes out.
func (h *Handler) sendDirect(ctx context.Context, b TelegramAPI, chatID int64, recs []storage.Record) {
	log := logging.Ctx(ctx)
	for _, rec := range recs {
		_, err := b.SendDocument(ctx, &tg.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileString{Data: rec.FileID},
			Caption:  fmt.Sprintf("🎬 %s\n🤖 Uploaded by Movie Bot", rec.Name),
		})
		if err != nil {
			log.Error().Err(err).Uint64("record_id", rec.ID).Msg("direct send failed")
			continue
		}
		log.Info().Str("event", "file_sent").Uint64("record_id", rec.ID).Msg("file delivered")
	}
}

// respond edits the interim "searching" message in place when possible and
// falls back to a fresh message otherwise.
func (h *Handler) respond(ctx context.Context, b TelegramAPI, chatID int64, ack *models.Message, text string, markup *models.InlineKeyboardMarkup) {
	if ack != nil {
		params := &tg.EditMessageTextParams{ChatID: chatID, MessageID: ack.ID, Text: text}
		if markup != nil {
			params.ReplyMarkup = markup
		}
		_, err := b.EditMessageText(ctx, params)
		if err == nil {
			return
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("edit failed, sending fresh message")
	}
	params := &tg.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("reply send failed")
	}
}

func (h *Handler) send(ctx context.Context, b TelegramAPI, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &tg.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("reply send failed")
	}
}

// attachment is the transport-level identity of an archivable media payload.
type attachment struct {
	fileID   string
	uniqueID string
	fileName string
	kind     string
}

// mediaAttachment extracts the archivable payload of a message: document,
// else video, else audio.
func mediaAttachment(msg *models.Message) *attachment {
	switch {
	case msg.Document != nil:
		return &attachment{msg.Document.FileID, msg.Document.FileUniqueID, msg.Document.FileName, "document"}
	case msg.Video != nil:
		return &attachment{msg.Video.FileID, msg.Video.FileUniqueID, msg.Video.FileName, "video"}
	case msg.Audio != nil:
		return &attachment{msg.Audio.FileID, msg.Audio.FileUniqueID, msg.Audio.FileName, "audio"}
	}
	return nil
}

func parseCommand(msg *models.Message) (cmd, args string, ok bool) {
	if msg.Text == "" {
		return "", "", false
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			cmd = strings.TrimPrefix(msg.Text[:e.Length], "/")
			args = strings.TrimSpace(msg.Text[e.Length:])
			return cmd, args, true
		}
	}
	return "", "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
