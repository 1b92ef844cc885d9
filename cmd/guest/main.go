package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/bookingflow"
	"github.com/Domenick1991/hotelbooking/internal/client"
	"github.com/Domenick1991/hotelbooking/internal/countdown"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("BOOKING_API_URL", "http://localhost:8080/api"), "booking API base URL")
	roomID := flag.String("room", "", "room id")
	checkIn := flag.String("check-in", "", "check-in date, YYYY-MM-DD")
	checkOut := flag.String("check-out", "", "check-out date, YYYY-MM-DD")
	guests := flag.Int("guests", 1, "number of guests")
	name := flag.String("name", "", "prefill full name")
	email := flag.String("email", "", "prefill email")
	tel := flag.String("tel", "", "prefill phone")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logger.New(config.LogConfig{Level: *logLevel})
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.NewClient(client.WithBaseURL(*apiURL), client.WithUserAgent("hotelbooking-guest/1.0"))

	selection, err := selectRoom(ctx, api, *roomID, *checkIn, *checkOut, *guests)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	term := newTerminal(os.Stdin, os.Stdout)
	cfg := bookingflow.Config{
		API:        api,
		Notifier:   term,
		Modal:      term,
		Redirector: term,
		Selection:  selection,
		Logger:     log,
		TimerOptions: []countdown.Option{
			countdown.WithOnChange(func(left int) {
				if left == 0 {
					log.Debug("confirmation code can be resent")
				}
			}),
		},
	}
	if *name != "" || *email != "" || *tel != "" {
		cfg.Prefill = &bookingflow.Prefill{FullName: *name, Email: *email, Tel: *tel}
	}

	session := bookingflow.NewSession(cfg)
	defer session.Close()

	fmt.Printf("Room %s, %s to %s, %d guest(s), total %d\n",
		selection.RoomID, selection.CheckInDate, selection.CheckOutDate, selection.NumOfGuest, selection.TotalPrice)

	if err := term.run(ctx, session); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Error("booking flow stopped")
		os.Exit(1)
	}
}

// selectRoom resolves the room and quotes the stay from the room list.
func selectRoom(ctx context.Context, api *client.Client, roomID, checkIn, checkOut string, guests int) (bookingflow.Selection, error) {
	in, err := domain.ParseDate(checkIn)
	if err != nil {
		return bookingflow.Selection{}, fmt.Errorf("check-in: %w", err)
	}
	out, err := domain.ParseDate(checkOut)
	if err != nil {
		return bookingflow.Selection{}, fmt.Errorf("check-out: %w", err)
	}
	if domain.Nights(in, out) < 1 {
		return bookingflow.Selection{}, errors.New("check-out must be after check-in")
	}

	rooms, err := api.ListRooms(ctx)
	if err != nil {
		return bookingflow.Selection{}, fmt.Errorf("list rooms: %w", err)
	}
	for _, room := range rooms {
		if room.ID != roomID {
			continue
		}
		if guests > room.Capacity {
			return bookingflow.Selection{}, fmt.Errorf("room %s sleeps at most %d guests", room.ID, room.Capacity)
		}
		return bookingflow.Selection{
			RoomID:       room.ID,
			CheckInDate:  in,
			CheckOutDate: out,
			TotalPrice:   room.Quote(in, out),
			NumOfGuest:   guests,
		}, nil
	}
	return bookingflow.Selection{}, fmt.Errorf("room %q not found", roomID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
