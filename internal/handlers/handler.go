// Package handlers implements the Telegram ad wizard: the operator
// sends a three-photo album (reference ad, brand logo, product) with
// the campaign text as caption, reviews and edits the generated plan,
// then renders the final ad. Errors are reported inline and never end
// the session.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"adcraft/internal/gemini"
	"adcraft/internal/mediagroup"
	"adcraft/internal/pipeline"
	"adcraft/internal/plan"
	"adcraft/internal/session"
	"adcraft/internal/telegram"
)

type Options struct {
	Telegram *telegram.Client
	Flow     *pipeline.Flow
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         *telegram.Client
	flow       *pipeline.Flow
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		flow:     opts.Flow,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(chatID, userID, msg)
	}

	if msg.Text != "" {
		return h.handleText(chatID, userID, msg.Text)
	}

	return nil
}

// HandleAlbum fires once the media-group aggregator has collected a
// full album: download the photos, store the inputs, and run the plan
// stage right away when campaign text is available.
func (h *Handler) HandleAlbum(ctx context.Context, album mediagroup.Album) {
	chatID := album.ChatID
	key := sessionKey(chatID, album.UserID)

	if len(album.FileIDs) != 3 {
		_ = h.tg.SendText(chatID, fmt.Sprintf(
			"❌ I need exactly 3 images in one album: reference ad, brand logo, product photo (got %d).",
			len(album.FileIDs)))
		return
	}

	h.tg.SendTyping(chatID)

	images, err := h.downloadAll(ctx, album.FileIDs)
	if err != nil {
		h.logger.Error("album download failed", "err", err)
		_ = h.tg.SendText(chatID, "❌ Failed to download the images. Please send the album again.")
		return
	}

	campaign := strings.TrimSpace(album.Caption)
	sess := h.sessions.Update(key, func(s *session.Session) {
		s.Inputs = pipeline.Inputs{
			Reference: images[0],
			Logo:      images[1],
			Product:   images[2],
		}
		s.HasPlan = false
		s.Generated = nil
		if campaign != "" {
			s.CampaignData = campaign
		}
	})

	if sess.CampaignData == "" {
		_ = h.tg.SendText(chatID, "✅ Images received. Now send the campaign text (or /campaign <text>), then /plan.")
		return
	}

	h.runPlan(ctx, chatID, key)
}

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	key := sessionKey(chatID, userID)

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID,
			"🎨 Ad Campaign Generator\n\n"+
				"1. Send ONE album with 3 photos in order: reference ad, brand logo, product.\n"+
				"   Put the campaign text in the album caption (or use /campaign <text>).\n"+
				"2. I analyze them and reply with a 3-part plan: text_swap, product_swap, edits.\n"+
				"3. Edit any part by sending e.g. \"edits: use warm golden grading\".\n"+
				"4. /render generates the final ad.\n\n"+
				"Other commands:\n"+
				"/plan - redo the plan stage\n"+
				"/reset - start over",
		)
	case "campaign":
		text := strings.TrimSpace(msg.CommandArguments())
		if text == "" {
			return h.tg.SendText(chatID, "❌ Usage: /campaign <brand info and campaign directions>")
		}
		h.sessions.Update(key, func(s *session.Session) {
			s.CampaignData = text
		})
		return h.tg.SendText(chatID, "✅ Campaign text saved. Send /plan when the images are in.")
	case "plan":
		sess, ok := h.sessions.Get(key)
		if !ok || len(sess.Inputs.Reference.Data) == 0 {
			return h.tg.SendText(chatID, "❌ Send the 3-photo album first.")
		}
		if sess.CampaignData == "" {
			return h.tg.SendText(chatID, "❌ No campaign text yet. Use /campaign <text>.")
		}
		h.runPlan(ctx, chatID, key)
		return nil
	case "render":
		return h.runRender(ctx, chatID, key)
	case "reset":
		h.sessions.Delete(key)
		return h.tg.SendText(chatID, "✅ Session cleared. Send a new album to start over.")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. See /help.")
	}
}

func (h *Handler) handleText(chatID, userID int64, text string) error {
	key := sessionKey(chatID, userID)

	if field, value, ok := parsePlanEdit(text); ok {
		sess, exists := h.sessions.Get(key)
		if !exists || !sess.HasPlan {
			return h.tg.SendText(chatID, "❌ There is no plan to edit yet. Send the album and run /plan first.")
		}
		h.sessions.Update(key, func(s *session.Session) {
			switch field {
			case "text_swap":
				s.Plan.TextSwap = value
			case "product_swap":
				s.Plan.ProductSwap = value
			case "edits":
				s.Plan.Edits = value
			}
		})
		return h.tg.SendText(chatID, fmt.Sprintf("✅ %s updated. /render when ready.", field))
	}

	// Plain text before any plan exists is treated as campaign data.
	sess, exists := h.sessions.Get(key)
	if exists && !sess.HasPlan {
		h.sessions.Update(key, func(s *session.Session) {
			s.CampaignData = strings.TrimSpace(text)
		})
		return h.tg.SendText(chatID, "✅ Campaign text saved. Send /plan to build the plan.")
	}

	return h.tg.SendText(chatID,
		"To edit the plan, start the message with text_swap:, product_swap: or edits:. Use /render to generate the ad.")
}

func (h *Handler) handlePhoto(chatID, userID int64, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     msg.From.UserName,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       photo.FileID,
		})
		return nil
	}

	return h.tg.SendText(chatID,
		"❌ Please send the 3 images as a single album (reference ad, brand logo, product photo).")
}

func (h *Handler) runPlan(ctx context.Context, chatID int64, key string) {
	sess, ok := h.sessions.Get(key)
	if !ok {
		_ = h.tg.SendText(chatID, "❌ Session not found. Send the album again.")
		return
	}

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🧠 Analyzing the reference and building the plan...")

	p, usage, err := h.flow.Plan(ctx, sess.CampaignData, sess.Inputs)
	if err != nil {
		h.logger.Error("plan stage failed", "err", err)
		_ = h.tg.SendText(chatID, planErrorMessage(err))
		return
	}

	h.sessions.Update(key, func(s *session.Session) {
		s.Plan = p
		s.HasPlan = true
		s.Usage = s.Usage.Add(usage)
	})

	_ = h.tg.SendText(chatID, formatPlan(p, usage))
}

func (h *Handler) runRender(ctx context.Context, chatID int64, key string) error {
	sess, ok := h.sessions.Get(key)
	if !ok || !sess.HasPlan {
		return h.tg.SendText(chatID, "❌ Build a plan first: send the album, then /plan.")
	}

	h.tg.SendUploadingPhoto(chatID)
	_ = h.tg.SendText(chatID, "🎨 Rendering the final ad, this can take a while...")

	image, usage, err := h.flow.Render(ctx, sess.CampaignData, sess.Plan, sess.Inputs)
	if err != nil {
		h.logger.Error("render stage failed", "err", err)
		return h.tg.SendText(chatID, renderErrorMessage(err))
	}

	total := h.sessions.Update(key, func(s *session.Session) {
		s.Generated = image
		s.Usage = s.Usage.Add(usage)
	}).Usage

	caption := fmt.Sprintf("✅ Done! Tokens this session: %d in / %d out.", total.InputTokens, total.OutputTokens)
	if err := h.tg.SendPhotoBytes(chatID, "ad.png", image, caption); err != nil {
		return err
	}
	// Full-resolution copy alongside the preview.
	return h.tg.SendDocumentBytes(chatID, "ad.png", image, "")
}

func (h *Handler) downloadAll(ctx context.Context, fileIDs []string) ([]gemini.ImageInput, error) {
	images := make([]gemini.ImageInput, len(fileIDs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		i, fileID := i, fileID
		eg.Go(func() error {
			data, mimeType, err := h.tg.DownloadFile(egCtx, fileID)
			if err != nil {
				return err
			}
			images[i] = gemini.ImageInput{Data: data, MimeType: mimeType}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func parsePlanEdit(text string) (field, value string, ok bool) {
	for _, f := range []string{"text_swap", "product_swap", "edits"} {
		prefix := f + ":"
		if strings.HasPrefix(strings.ToLower(text), prefix) {
			return f, strings.TrimSpace(text[len(prefix):]), true
		}
	}
	return "", "", false
}

func formatPlan(p plan.Plan, usage gemini.Usage) string {
	var sb strings.Builder
	sb.WriteString("📋 Plan ready. Review and edit, then /render.\n\n")
	sb.WriteString("1️⃣ text_swap:\n")
	sb.WriteString(p.TextSwap)
	sb.WriteString("\n\n2️⃣ product_swap:\n")
	sb.WriteString(p.ProductSwap)
	sb.WriteString("\n\n3️⃣ edits:\n")
	sb.WriteString(p.Edits)
	sb.WriteString(fmt.Sprintf("\n\nTokens: %d in / %d out", usage.InputTokens, usage.OutputTokens))
	return sb.String()
}

func planErrorMessage(err error) string {
	if errors.Is(err, plan.ErrMalformed) {
		return "❌ The model returned an unusable plan. Try /plan again or adjust the campaign text."
	}
	return "❌ Plan stage failed. Please try /plan again."
}

func renderErrorMessage(err error) string {
	if errors.Is(err, gemini.ErrNoImagePayload) {
		return "❌ The model returned no image. Try /render again, or tweak the plan fields."
	}
	return "❌ Render stage failed. Please try /render again."
}
