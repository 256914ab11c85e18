package kiosk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultColumns  = 16
	DefaultDebounce = 3 * time.Second
	DefaultRetry    = 5 * time.Second
)

// Display shows a two-line status, like the character LCD on a station.
type Display interface {
	Show(line1, line2 string)
}

// TextDisplay writes both lines to w, cut to the panel width.
type TextDisplay struct {
	w    io.Writer
	cols int
}

func NewTextDisplay(w io.Writer, cols int) *TextDisplay {
	if cols <= 0 {
		cols = DefaultColumns
	}
	return &TextDisplay{w: w, cols: cols}
}

func (d *TextDisplay) Show(line1, line2 string) {
	fmt.Fprintf(d.w, "%s\n%s\n", truncate(line1, d.cols), truncate(line2, d.cols))
}

func truncate(s string, cols int) string {
	r := []rune(s)
	if len(r) <= cols {
		return s
	}
	return string(r[:cols])
}

type Station struct {
	client   *Client
	display  Display
	log      *zap.Logger
	now      func() time.Time
	debounce time.Duration
	retry    time.Duration

	lastCard string
	lastScan time.Time
}

func NewStation(client *Client, display Display, log *zap.Logger) *Station {
	return &Station{
		client:   client,
		display:  display,
		log:      log,
		now:      time.Now,
		debounce: DefaultDebounce,
		retry:    DefaultRetry,
	}
}

// WithClock replaces the station's time source.
func (s *Station) WithClock(now func() time.Time) *Station {
	s.now = now
	return s
}

// WithRetry sets how long WaitForServer sleeps between health checks.
func (s *Station) WithRetry(d time.Duration) *Station {
	s.retry = d
	return s
}

// WaitForServer blocks until the health check passes or ctx is done.
func (s *Station) WaitForServer(ctx context.Context) error {
	for {
		err := s.client.Health(ctx)
		if err == nil {
			s.log.Info("Backend connected")
			s.ready()
			return nil
		}

		s.log.Warn("Waiting for backend API", zap.Error(err))
		s.display.Show("Connecting to", "Server...")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry):
		}
	}
}

// Run reads one card id per line from r until EOF or ctx is done.
func (s *Station) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			s.Scan(ctx, line)
		}
	}
}

// Scan handles one card read. A card repeated within the debounce window
// is ignored and reported as false.
func (s *Station) Scan(ctx context.Context, card string) bool {
	card = strings.TrimSpace(card)
	if card == "" {
		return false
	}

	now := s.now()
	if card == s.lastCard && now.Sub(s.lastScan) <= s.debounce {
		s.log.Debug("Ignoring repeated scan", zap.String("rfid_key", card))
		return false
	}
	s.lastCard = card
	s.lastScan = now

	s.log.Info("RFID detected", zap.String("rfid_key", card))
	s.toggle(ctx, card)
	return true
}

func (s *Station) toggle(ctx context.Context, card string) {
	s.display.Show("Processing...", "ID: "+card)

	user, err := s.client.LookupUser(ctx, card)
	if err != nil {
		s.fail(card, err)
		return
	}

	if user.LoggedIn {
		err = s.client.SignOut(ctx, card)
	} else {
		err = s.client.SignIn(ctx, card)
	}
	if err != nil {
		s.fail(card, err)
		return
	}

	status := "Signed In"
	if user.LoggedIn {
		status = "Signed Out"
	}
	s.log.Info("Attendance updated",
		zap.String("user_id", user.UserID),
		zap.String("status", status),
	)
	s.display.Show(user.Name, status)
}

func (s *Station) fail(card string, err error) {
	s.log.Warn("Scan failed", zap.String("rfid_key", card), zap.Error(err))
	s.display.Show("ERROR!", errorLine(err))
}

func errorLine(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnknownCard):
		return "User Not Found"
	case errors.Is(err, ErrUnavailable):
		return "No Connection"
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 || apiErr.Message == "" {
			return "Server Error"
		}
		return apiErr.Message
	default:
		return "System Error"
	}
}

func (s *Station) ready() {
	s.display.Show("Scan RFID Card", "Ready...")
}
