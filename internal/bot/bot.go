// Package bot wires the telegram transport to the location workflow: it
// dispatches commands, renders localized replies and applies the
// send-to-user-first delivery policy.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/usermap/internal/coords"
	"github.com/UnknownOlympus/usermap/internal/i18n"
	"github.com/UnknownOlympus/usermap/internal/models"
	"github.com/UnknownOlympus/usermap/internal/repository"
	"github.com/UnknownOlympus/usermap/internal/service"
	tele "gopkg.in/telebot.v3"
)

// LocationService is the workflow surface the bot dispatches commands to.
type LocationService interface {
	UpdateRegion(ctx context.Context, userID int64, place string) (*models.Location, error)
	UpdateGeo(ctx context.Context, userID int64, text string) (*models.Location, error)
	Get(ctx context.Context, userID int64) (*models.Location, error)
	Delete(ctx context.Context, userID int64) error
}

const pollTimeout = 10 * time.Second

// Bot holds the telegram client and its collaborators.
type Bot struct {
	bot    *tele.Bot
	svc    LocationService
	tr     *i18n.Translator
	log    *slog.Logger
	mapURL string

	// ctx is the process context, set by Run. Telebot handlers receive no
	// context of their own.
	ctx context.Context
}

// New creates the bot, authorizes against the telegram API and registers all
// command handlers.
func New(
	token string,
	svc LocationService,
	tr *i18n.Translator,
	log *slog.Logger,
	mapURL string,
) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		OnError: func(err error, _ tele.Context) {
			log.Error("Unhandled bot error", "error", err)
		},
	})
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		bot:    tb,
		svc:    svc,
		tr:     tr,
		log:    log,
		mapURL: mapURL,
		ctx:    context.Background(),
	}
	bot.registerHandlers()

	return bot, nil
}

// Run starts long polling and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	b.ctx = ctx

	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()

	b.log.InfoContext(ctx, "Bot started", "username", b.bot.Me.Username)
	b.bot.Start()
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", func(c tele.Context) error {
		return b.reply(c, b.tr.Get("start"), true)
	})

	b.bot.Handle("/help", func(c tele.Context) error {
		return b.reply(c, b.tr.Get("help"), true)
	})

	b.bot.Handle("/intro", func(c tele.Context) error {
		// Intro always goes to the originating chat; it addresses the group.
		text := b.tr.Format("intro", map[string]string{
			"botname": b.bot.Me.Username,
			"map":     b.mapURL,
		})
		_, err := b.bot.Send(c.Chat(), text, tele.ModeMarkdown)
		return err
	})

	b.bot.Handle("/region", func(c tele.Context) error {
		text, markdown := b.regionMessage(b.ctx, c.Sender().ID, c.Message().Payload)
		return b.reply(c, text, markdown)
	})

	b.bot.Handle("/geo", func(c tele.Context) error {
		text, markdown := b.geoMessage(b.ctx, c.Sender().ID, c.Message().Payload)
		return b.reply(c, text, markdown)
	})

	b.bot.Handle("/get", func(c tele.Context) error {
		return b.reply(c, b.getMessage(b.ctx, c.Sender().ID), false)
	})

	b.bot.Handle("/delete", func(c tele.Context) error {
		return b.reply(c, b.deleteMessage(b.ctx, c.Sender().ID), false)
	})

	b.bot.Handle("/map", func(c tele.Context) error {
		return b.reply(c, b.mapURL, false)
	})

	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// Only unrecognized commands get a reply; plain chatter is ignored.
		if !strings.HasPrefix(c.Text(), "/") {
			return nil
		}
		return b.reply(c, b.tr.Get("unknown"), false)
	})
}

// reply sends text to the sender's private chat first. When that fails (the
// user never started a private conversation with the bot), it appends the
// localized hint and sends once to the originating chat instead.
func (b *Bot) reply(c tele.Context, text string, markdown bool) error {
	var opts []interface{}
	if markdown {
		opts = append(opts, tele.ModeMarkdown)
	}

	if _, err := b.bot.Send(c.Sender(), text, opts...); err != nil {
		b.log.DebugContext(b.ctx, "Private delivery failed, falling back to chat",
			"user_id", c.Sender().ID, "error", err)

		text += b.tr.Format("hint", map[string]string{"botname": b.bot.Me.Username})
		if _, err = b.bot.Send(c.Chat(), text, opts...); err != nil {
			return err
		}
	}

	return nil
}

// regionMessage runs the by-name update and renders the outcome. The second
// return value reports whether the text carries markdown.
func (b *Bot) regionMessage(ctx context.Context, userID int64, payload string) (string, bool) {
	loc, err := b.svc.UpdateRegion(ctx, userID, payload)

	switch {
	case err == nil:
		return b.tr.Format("region_success", map[string]string{"loc": loc.DisplayName}), true
	case errors.Is(err, service.ErrEmptyInput):
		return b.tr.Get("region_help"), true
	case errors.Is(err, service.ErrPlaceNotFound):
		return b.tr.Format("region_error", map[string]string{"loc": strings.TrimSpace(payload)}), false
	default:
		b.log.ErrorContext(ctx, "Region update failed", "user_id", userID, "error", err)
		return b.tr.Get("error"), false
	}
}

// geoMessage runs the by-coordinates update and renders the outcome.
func (b *Bot) geoMessage(ctx context.Context, userID int64, payload string) (string, bool) {
	loc, err := b.svc.UpdateGeo(ctx, userID, payload)

	switch {
	case err == nil:
		return b.tr.Format("geo_success", map[string]string{
			"lat": formatCoord(loc.Latitude),
			"lng": formatCoord(loc.Longitude),
			"loc": loc.DisplayName,
		}), true
	case errors.Is(err, coords.ErrMalformed), errors.Is(err, service.ErrOutOfRange):
		return b.tr.Get("geo_help"), false
	default:
		b.log.ErrorContext(ctx, "Geo update failed", "user_id", userID, "error", err)
		return b.tr.Get("error"), false
	}
}

// getMessage renders the stored location for the user.
func (b *Bot) getMessage(ctx context.Context, userID int64) string {
	loc, err := b.svc.Get(ctx, userID)

	switch {
	case err == nil:
		return b.tr.Format("get_found", map[string]string{
			"loc":  loc.DisplayName,
			"lat":  formatCoord(loc.Latitude),
			"lng":  formatCoord(loc.Longitude),
			"time": loc.LastUpdated.Format("2006-01-02 15:04"),
		})
	case errors.Is(err, repository.ErrNotFound):
		return b.tr.Get("get_notfound")
	default:
		b.log.ErrorContext(ctx, "Location lookup failed", "user_id", userID, "error", err)
		return b.tr.Get("error")
	}
}

// deleteMessage removes the stored location and renders the outcome.
func (b *Bot) deleteMessage(ctx context.Context, userID int64) string {
	if err := b.svc.Delete(ctx, userID); err != nil {
		b.log.ErrorContext(ctx, "Location delete failed", "user_id", userID, "error", err)
		return b.tr.Get("error")
	}

	return b.tr.Get("delete")
}

func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
