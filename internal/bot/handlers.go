package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_bot/internal/aviation"
	"flight_bot/internal/intent"
	"flight_bot/internal/model"
	"flight_bot/internal/storage"
)

const providerDownText = "Sorry, I couldn't reach the flight data provider. Please try again in a few minutes."

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, WelcomeText(b.cfg.HomeAirport))
}

// handleText dispatches a free-text message.
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)

	switch strings.ToLower(text) {
	case "cancel", "stop":
		b.handleCancel(chatID)
		return
	case "menu":
		b.handleStart(chatID)
		return
	}

	if dep, arr, ok := ParseRoute(text); ok {
		b.handleRoute(ctx, chatID, dep, arr)
		return
	}

	in := b.resolver.Resolve(ctx, text)
	b.metrics.Intent(string(in.Kind), string(in.Source))
	b.log.Debug("intent", "chat_id", chatID, "kind", in.Kind, "source", in.Source, "flight", in.FlightCode)

	switch in.Kind {
	case intent.KindGreeting:
		b.handleStart(chatID)
	case intent.KindFlightStatus:
		b.showFlight(ctx, chatID, in.FlightCode)
	case intent.KindDepartures:
		b.handleBoardText(ctx, chatID, boardDepartures, text)
	case intent.KindArrivals:
		b.handleBoardText(ctx, chatID, boardArrivals, text)
	default:
		b.reply(chatID, FallbackText())
	}
}

func (b *Bot) handleTrack(ctx context.Context, chatID int64, args string) {
	code := intent.NormalizeFlightCode(args)
	if code == "" {
		b.reply(chatID, "Usage: /track <flight>, e.g. /track EK509")
		return
	}
	b.showFlight(ctx, chatID, code)
}

// showFlight replies with flight details and starts tracking the flight,
// replacing whatever the user tracked before.
func (b *Bot) showFlight(ctx context.Context, chatID int64, code string) {
	flight, err := b.provider.FetchFlight(ctx, code)
	if errors.Is(err, aviation.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Flight %s not found.\n\nCheck the flight number and try again.", code))
		return
	}
	if err != nil {
		b.log.Warn("fetch flight", "chat_id", chatID, "flight", code, "error", err)
		b.metrics.ProviderError("fetch_flight")
		b.reply(chatID, providerDownText)
		return
	}

	sub := model.Subscription{
		UserAddress:     address(chatID),
		FlightCode:      code,
		LastKnownGate:   flight.Gate(),
		LastKnownStatus: flight.Status,
	}
	if err := b.registry.Upsert(sub); err != nil {
		b.log.Error("upsert subscription", "chat_id", chatID, "flight", code, "error", err)
	} else {
		b.log.Info("tracking flight", "chat_id", chatID, "flight", code, "gate", sub.LastKnownGate, "status", sub.LastKnownStatus)
	}

	msg := tgbotapi.NewMessage(chatID, FormatFlight(flight))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Refresh", cmdTrack+":"+code),
			tgbotapi.NewInlineKeyboardButtonData("Stop alerts", cmdCancel),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send flight details", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleStatus(chatID int64) {
	sub, ok := b.registry.Get(address(chatID))
	if !ok {
		b.reply(chatID, "You are not tracking any flight. Send a flight number, e.g. EK509.")
		return
	}
	b.reply(chatID, FormatSubscription(sub))
}

func (b *Bot) handleCancel(chatID int64) {
	if !b.registry.Remove(address(chatID)) {
		b.reply(chatID, "You are not tracking any flight.")
		return
	}
	b.log.Info("tracking cancelled", "chat_id", chatID)
	b.reply(chatID, "Tracking cancelled.\n\nSend a flight number to track a new flight.")
}

func (b *Bot) handleBoardCommand(ctx context.Context, chatID int64, kind boardKind, args string) {
	code, err := ParseAirportArg(args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /%s [airport], e.g. /%s LHR", kind, kind))
		return
	}
	if code == "" {
		b.showBoard(ctx, chatID, kind, b.homeAirport(ctx))
		return
	}

	airport, err := b.lookupAirport(ctx, code)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, aviation.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Unknown airport %s.", code))
		return
	}
	if err != nil {
		b.log.Warn("lookup airport", "chat_id", chatID, "airport", code, "error", err)
		b.reply(chatID, providerDownText)
		return
	}
	b.showBoard(ctx, chatID, kind, *airport)
}

// handleBoardText shows a board for the first airport code in text that
// resolves, or for the home airport.
func (b *Bot) handleBoardText(ctx context.Context, chatID int64, kind boardKind, text string) {
	for _, code := range AirportTokens(text) {
		airport, err := b.lookupAirport(ctx, code)
		if err == nil {
			b.showBoard(ctx, chatID, kind, *airport)
			return
		}
		b.log.Debug("airport token did not resolve", "token", code, "error", err)
	}
	b.showBoard(ctx, chatID, kind, b.homeAirport(ctx))
}

func (b *Bot) showBoard(ctx context.Context, chatID int64, kind boardKind, airport model.Airport) {
	var (
		flights []model.Flight
		err     error
	)
	if kind == boardArrivals {
		flights, err = b.provider.FetchArrivals(ctx, airport.IATA, b.cfg.BoardLimit)
	} else {
		flights, err = b.provider.FetchDepartures(ctx, airport.IATA, b.cfg.BoardLimit)
	}
	if err != nil {
		b.log.Warn("fetch board", "chat_id", chatID, "kind", kind, "airport", airport.IATA, "error", err)
		b.metrics.ProviderError("fetch_" + string(kind))
		b.reply(chatID, providerDownText)
		return
	}
	b.reply(chatID, FormatBoard(kind, airport, flights))
}

func (b *Bot) handleRouteCommand(ctx context.Context, chatID int64, args string) {
	dep, arr, err := ParseRouteArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.handleRoute(ctx, chatID, dep, arr)
}

func (b *Bot) handleRoute(ctx context.Context, chatID int64, dep, arr string) {
	flights, err := b.provider.SearchRoute(ctx, dep, arr, b.cfg.BoardLimit)
	if err != nil {
		b.log.Warn("search route", "chat_id", chatID, "dep", dep, "arr", arr, "error", err)
		b.metrics.ProviderError("search_route")
		b.reply(chatID, providerDownText)
		return
	}
	b.reply(chatID, FormatRoute(dep, arr, flights))
}

// lookupAirport resolves code through the directory, falling back to the
// provider and caching what it finds.
func (b *Bot) lookupAirport(ctx context.Context, code string) (*model.Airport, error) {
	airport, err := b.store.GetAirport(ctx, code)
	if err == nil {
		return airport, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	airport, err = b.provider.FetchAirport(ctx, code)
	if err != nil {
		if !errors.Is(err, aviation.ErrNotFound) {
			b.metrics.ProviderError("fetch_airport")
		}
		return nil, err
	}
	if err := b.store.UpsertAirport(ctx, airport); err != nil {
		b.log.Warn("cache airport", "airport", code, "error", err)
	}
	return airport, nil
}

func (b *Bot) homeAirport(ctx context.Context) model.Airport {
	airport, err := b.store.GetAirport(ctx, b.cfg.HomeAirport)
	if err != nil {
		return model.Airport{IATA: b.cfg.HomeAirport}
	}
	return *airport
}
