package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ForexSignal/internal/model"
	"ForexSignal/internal/notifier"
	"ForexSignal/internal/recorder"
	"ForexSignal/internal/service"
)

// WatchItem is one symbol evaluated on every scheduled run.
type WatchItem struct {
	Symbol    string
	Threshold float64
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Service   *service.SignalService
	Notifier  notifier.Notifier
	Watchlist []WatchItem
	// LookbackDays is the calendar span requested ending today.
	LookbackDays int
	Concurrency  int
	Ctx          context.Context
	Now          func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.SignalService, n notifier.Notifier, watchlist []WatchItem, lookbackDays int) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Service:      svc,
		Notifier:     n,
		Watchlist:    watchlist,
		LookbackDays: lookbackDays,
		Concurrency:  4,
		Ctx:          ctx,
		Now:          time.Now,
	}
}

// RegisterAll registers the daily watchlist run and, when backtestCron is
// set, the periodic backtest summary.
func (s *Scheduler) RegisterAll(dailyCron, backtestCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if backtestCron != "" {
		if _, err := s.Cron.AddFunc(backtestCron, s.backtestTask); err != nil {
			return fmt.Errorf("register backtest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("watchlist", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the watchlist run immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

// request builds the request for symbol covering the lookback up to today.
func (s *Scheduler) request(symbol string, threshold float64) model.Request {
	end := s.Now().UTC()
	start := end.AddDate(0, 0, -s.LookbackDays)
	return model.Request{
		Symbol:    symbol,
		StartDate: start.Format(model.DateLayout),
		EndDate:   end.Format(model.DateLayout),
		Threshold: threshold,
	}
}

// each runs fn for every watchlist item, at most Concurrency at a time,
// and returns the messages in watchlist order.
func (s *Scheduler) each(fn func(ctx context.Context, item WatchItem) string) []string {
	out := make([]string, len(s.Watchlist))
	g, ctx := errgroup.WithContext(s.Ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i, item := range s.Watchlist {
		i, item := i, item
		g.Go(func() error {
			out[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Scheduler) dailyTask() {
	log.Info().Int("symbols", len(s.Watchlist)).Msg("running watchlist")
	msgs := s.each(func(ctx context.Context, item WatchItem) string {
		return s.signal(ctx, item.Symbol, item.Threshold, recorder.SourceSchedule)
	})
	if len(msgs) == 0 {
		return
	}
	header := fmt.Sprintf("📊 <b>ForexSignal daily</b> | %s\n\n", s.Now().UTC().Format(model.DateLayout))
	s.trySend(header + strings.Join(msgs, "\n"))
}

func (s *Scheduler) backtestTask() {
	log.Info().Int("symbols", len(s.Watchlist)).Msg("running backtests")
	msgs := s.each(func(ctx context.Context, item WatchItem) string {
		return s.backtest(ctx, item.Symbol, item.Threshold, recorder.SourceSchedule)
	})
	if len(msgs) == 0 {
		return
	}
	s.trySend(strings.Join(msgs, "\n"))
}

func (s *Scheduler) signal(ctx context.Context, symbol string, threshold float64, source string) string {
	res, err := s.Service.Generate(ctx, s.request(symbol, threshold), source)
	if err != nil {
		return notifier.FormatFailure(symbol, err)
	}
	return notifier.FormatSignal(res)
}

func (s *Scheduler) backtest(ctx context.Context, symbol string, threshold float64, source string) string {
	rep, err := s.Service.Backtest(ctx, s.request(symbol, threshold), source)
	if err != nil {
		return notifier.FormatFailure(symbol, err)
	}
	return notifier.FormatBacktest(rep)
}

const helpText = "Available commands:\n" +
	"• /signal SYMBOL [THRESHOLD]\n" +
	"• /backtest SYMBOL [THRESHOLD]\n" +
	"• /history [N]\n" +
	"• /watchlist"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/signal@MyBot EURUSD" addresses the bot in group chats
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch name {
	case "/signal", "/backtest":
		if len(args) == 0 {
			return fmt.Sprintf("Usage: %s SYMBOL [THRESHOLD]", name)
		}
		symbol := strings.ToUpper(args[0])
		threshold, err := s.threshold(symbol, args[1:])
		if err != nil {
			return err.Error()
		}
		if name == "/signal" {
			return s.signal(ctx, symbol, threshold, recorder.SourceTelegram)
		}
		return s.backtest(ctx, symbol, threshold, recorder.SourceTelegram)
	case "/history":
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return "Usage: /history [N]"
			}
			limit = n
		}
		records, err := s.Service.History(limit)
		if err != nil {
			log.Error().Err(err).Msg("load history")
			return "History is unavailable right now."
		}
		return notifier.FormatHistory(records)
	case "/watchlist":
		s.dailyTask()
		return ""
	default:
		return helpText
	}
}

// threshold reads an explicit threshold or falls back to the watchlist entry.
func (s *Scheduler) threshold(symbol string, args []string) (float64, error) {
	if len(args) > 0 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return 0, fmt.Errorf("Threshold %q is not a number", args[0])
		}
		return v, nil
	}
	for _, item := range s.Watchlist {
		if strings.EqualFold(item.Symbol, symbol) {
			return item.Threshold, nil
		}
	}
	return 0, fmt.Errorf("No threshold configured for %s, use /signal %s THRESHOLD", symbol, symbol)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
