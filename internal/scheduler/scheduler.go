// Package scheduler wires the draw engine to the clock: per-variant cron
// entries inside the operating window, with a terminal run at closing hour.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/model"
	"numbers-lottery/internal/pkg/lock"
)

// ErrOutsideOperatingHours is returned by manual triggers fired outside the
// operating window.
var ErrOutsideOperatingHours = errors.New("outside operating hours")

// cycleTimeout bounds one draw cycle end to end.
const cycleTimeout = 2 * time.Minute

// VariantSchedule is one variant's draw cadence.
type VariantSchedule struct {
	Variant         model.GameVariant
	IntervalMinutes int
}

// Scheduler triggers draw cycles on a fixed cadence.
type Scheduler struct {
	engine    *engine.Engine
	cron      *cron.Cron
	loc       *time.Location
	openHour  int
	closeHour int
	schedules []VariantSchedule
}

// New creates a scheduler. Draws fire every IntervalMinutes from openHour
// up to (but not including) closeHour, plus one terminal run exactly at
// closeHour.
func New(e *engine.Engine, loc *time.Location, openHour, closeHour int, schedules []VariantSchedule) *Scheduler {
	return &Scheduler{
		engine:    e,
		cron:      cron.New(cron.WithLocation(loc)),
		loc:       loc,
		openHour:  openHour,
		closeHour: closeHour,
		schedules: schedules,
	}
}

// Start registers the cron entries and starts the clock.
func (s *Scheduler) Start() error {
	for _, sched := range s.schedules {
		sched := sched

		window := fmt.Sprintf("*/%d %d-%d * * *", sched.IntervalMinutes, s.openHour, s.closeHour-1)
		if _, err := s.cron.AddFunc(window, func() { s.run(sched.Variant) }); err != nil {
			return fmt.Errorf("failed to schedule %s draws: %w", sched.Variant, err)
		}

		terminal := fmt.Sprintf("0 %d * * *", s.closeHour)
		if _, err := s.cron.AddFunc(terminal, func() { s.run(sched.Variant) }); err != nil {
			return fmt.Errorf("failed to schedule %s terminal draw: %w", sched.Variant, err)
		}

		log.Info().
			Str("variant", string(sched.Variant)).
			Int("interval_minutes", sched.IntervalMinutes).
			Msgf("Scheduled draws %02d:00-%02d:00", s.openHour, s.closeHour)
	}

	s.cron.Start()
	return nil
}

// Stop stops the clock and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// TriggerNow runs one draw cycle for a variant immediately, used by the
// operator trigger endpoint. Gated by the same operating window as the
// clock.
func (s *Scheduler) TriggerNow(ctx context.Context, variant model.GameVariant) (*engine.CycleResult, error) {
	now := time.Now().In(s.loc)
	if !s.withinOperatingHours(now) {
		return nil, ErrOutsideOperatingHours
	}
	return s.engine.RunDrawCycle(ctx, s.SlotFor(variant, now))
}

// SlotFor derives the draw slot for a variant at the given instant: the
// calendar day, the clock label and the session index counted from opening
// hour. The instant is truncated to the cadence boundary, so a run firing
// seconds or minutes late still labels the slot it was scheduled for — the
// slot key must match the one purchases attached to, or the draw would
// settle nothing.
func (s *Scheduler) SlotFor(variant model.GameVariant, now time.Time) model.DrawSlot {
	now = now.In(s.loc)
	interval := s.intervalFor(variant)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	open := day.Add(time.Duration(s.openHour) * time.Hour)

	session := 0
	drawAt := open
	if sinceOpen := int(now.Sub(open) / time.Minute); sinceOpen >= 0 && interval > 0 {
		boundary := sinceOpen - sinceOpen%interval
		session = boundary/interval + 1
		drawAt = open.Add(time.Duration(boundary) * time.Minute)
	}

	return model.DrawSlot{
		Variant:  variant,
		DrawDate: day,
		DrawTime: drawAt.Format("03:04:05 PM"),
		Session:  session,
	}
}

// NextSlotFor returns the slot of the next draw that will fire for a
// variant, the one open purchases attach to. Outside the operating window
// it rolls to the first draw of the next open day.
func (s *Scheduler) NextSlotFor(variant model.GameVariant, now time.Time) model.DrawSlot {
	now = now.In(s.loc)
	interval := s.intervalFor(variant)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	open := day.Add(time.Duration(s.openHour) * time.Hour)
	closing := day.Add(time.Duration(s.closeHour) * time.Hour)

	var session int
	switch {
	case interval <= 0:
		session = 0
	case now.Before(open):
		session = 1
	case !now.Before(closing):
		day = day.AddDate(0, 0, 1)
		open = open.AddDate(0, 0, 1)
		session = 1
	default:
		sinceOpen := int(now.Sub(open) / time.Minute)
		session = sinceOpen/interval + 2
	}

	drawAt := open.Add(time.Duration((session-1)*interval) * time.Minute)
	return model.DrawSlot{
		Variant:  variant,
		DrawDate: day,
		DrawTime: drawAt.Format("03:04:05 PM"),
		Session:  session,
	}
}

func (s *Scheduler) intervalFor(variant model.GameVariant) int {
	for _, sched := range s.schedules {
		if sched.Variant == variant {
			return sched.IntervalMinutes
		}
	}
	return 0
}

func (s *Scheduler) withinOperatingHours(now time.Time) bool {
	h := now.Hour()
	if h < s.openHour || h > s.closeHour {
		return false
	}
	// The closing hour admits only the terminal minute.
	if h == s.closeHour && now.Minute() > 0 {
		return false
	}
	return true
}

func (s *Scheduler) run(variant model.GameVariant) {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	slot := s.SlotFor(variant, time.Now().In(s.loc))
	_, err := s.engine.RunDrawCycle(ctx, slot)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrAlreadyDrawn), errors.Is(err, lock.ErrCycleInProgress):
		log.Debug().Str("slot", slot.Key()).Msg("Skipping duplicate draw trigger")
	case errors.Is(err, engine.ErrGameDisabled):
		log.Debug().Str("slot", slot.Key()).Msg("Skipping draw for disabled game")
	default:
		log.Error().Err(err).Str("slot", slot.Key()).Msg("Draw cycle failed, will retry next tick")
	}
}
