package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_bot/internal/config"
	"flight_bot/internal/intent"
	"flight_bot/internal/metrics"
	"flight_bot/internal/model"
	"flight_bot/internal/storage"
	"flight_bot/internal/subscription"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// FlightProvider is the subset of the aviation client the bot needs.
type FlightProvider interface {
	FetchFlight(ctx context.Context, code string) (*model.Flight, error)
	FetchDepartures(ctx context.Context, airport string, limit int) ([]model.Flight, error)
	FetchArrivals(ctx context.Context, airport string, limit int) ([]model.Flight, error)
	SearchRoute(ctx context.Context, dep, arr string, limit int) ([]model.Flight, error)
	FetchAirport(ctx context.Context, iata string) (*model.Airport, error)
}

// Resolver classifies free-text messages.
type Resolver interface {
	Resolve(ctx context.Context, text string) intent.Intent
}

// Deps groups the collaborators a Bot dispatches to.
type Deps struct {
	Store    storage.Storage
	Registry *subscription.Registry
	Provider FlightProvider
	Resolver Resolver
	Metrics  *metrics.Metrics
}

// Bot is the Telegram bot that answers flight questions and delivers alerts.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	registry *subscription.Registry
	provider FlightProvider
	resolver Resolver
	metrics  *metrics.Metrics
	cfg      *config.Config
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token and collaborators.
func New(token string, cfg *config.Config, deps Deps, log *slog.Logger) (*Bot, error) {
	// Long polling holds requests open for 60s.
	client := &http.Client{Timeout: 75 * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, cfg, deps, log), nil
}

func newBot(api telegramAPI, cfg *config.Config, deps Deps, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		store:    deps.Store,
		registry: deps.Registry,
		provider: deps.Provider,
		resolver: deps.Resolver,
		metrics:  deps.Metrics,
		cfg:      cfg,
		log:      log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.From == nil || !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg.Chat.ID, msg.Text)
}

// Notify sends text to the chat identified by address, the decimal chat ID.
func (b *Bot) Notify(ctx context.Context, address, text string) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat address %q: %w", address, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start", "help":
		b.handleStart(chatID)
	case cmdTrack:
		b.handleTrack(ctx, chatID, args)
	case "status":
		b.handleStatus(chatID)
	case cmdCancel:
		b.handleCancel(chatID)
	case "departures":
		b.handleBoardCommand(ctx, chatID, boardDepartures, args)
	case "arrivals":
		b.handleBoardCommand(ctx, chatID, boardArrivals, args)
	case "route":
		b.handleRouteCommand(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

func address(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
