// Package lifecycle projects persisted order records into what the user sees
// at a given instant: a display status, at most one live countdown and the
// set of legal actions. Everything here is a pure function of the record and
// the wall clock; callers re-invoke on a tick, the functions themselves never
// depend on cadence.
package lifecycle

import (
	"time"

	"github.com/simvault/orderdesk/internal/model"
)

// TypeConfig carries the per-service-type timer windows. The four service
// types share one engine; only the windows and the status domain differ.
type TypeConfig struct {
	// PendingWindow bounds how long a Short order may sit pending before its
	// display degrades to a dash.
	PendingWindow time.Duration
	// ActiveWindow bounds how long a rental order may sit active without a
	// code before it is displayed as inactive.
	ActiveWindow time.Duration
	// CodeRevealWindow bounds the post-wake window during which a delivered
	// code is surfaced via a countdown rather than its raw value.
	CodeRevealWindow time.Duration
}

const defaultWindow = 5 * time.Minute

// Engine evaluates the lifecycle rules under a set of per-type configs.
type Engine struct {
	configs map[model.ServiceType]TypeConfig
}

// NewEngine returns an engine with the default five-minute windows for every
// type, overridden per type by overrides.
func NewEngine(overrides map[model.ServiceType]TypeConfig) *Engine {
	configs := map[model.ServiceType]TypeConfig{
		model.TypeShort:    {PendingWindow: defaultWindow, CodeRevealWindow: defaultWindow},
		model.TypeMiddle:   {ActiveWindow: defaultWindow, CodeRevealWindow: defaultWindow},
		model.TypeLong:     {ActiveWindow: defaultWindow, CodeRevealWindow: defaultWindow},
		model.TypeEmptySim: {ActiveWindow: defaultWindow, CodeRevealWindow: defaultWindow},
	}
	for t, cfg := range overrides {
		configs[t] = cfg
	}
	return &Engine{configs: configs}
}

// Default returns an engine with the stock windows.
func Default() *Engine {
	return NewEngine(nil)
}

// ConfigFor returns the windows in effect for a service type.
func (e *Engine) ConfigFor(t model.ServiceType) TypeConfig {
	return e.configs[t]
}

// Project computes the display status of rec at now. It never mutates rec and
// always returns a value in the type's display domain. The display may run
// ahead of the persisted status only inside the "timer lapsed, not yet
// server-confirmed" window; because it is recomputed from the persisted
// status on every call, it reconverges as soon as the feed catches up.
func (e *Engine) Project(rec *model.OrderRecord, now time.Time) model.DisplayStatus {
	cfg := e.configs[rec.ServiceType]

	if rec.ServiceType == model.TypeShort {
		switch rec.Status {
		case model.StatusPending:
			if now.Before(rec.CreatedAt.Add(cfg.PendingWindow)) {
				return model.DisplayPending
			}
			// Window lapsed without a code. The authoritative transition to
			// timed_out must come from the feed; until then show a dash.
			return model.DisplayNone
		case model.StatusCompleted:
			return model.DisplayCompleted
		case model.StatusCancelled:
			return model.DisplayCancelled
		case model.StatusTimedOut:
			return model.DisplayTimedOut
		}
		return model.DisplayNone
	}

	switch rec.Status {
	case model.StatusInactive:
		return model.DisplayInactive
	case model.StatusActive:
		if rec.HasCode() {
			return model.DisplayActive
		}
		if now.Before(rec.CreatedAt.Add(cfg.ActiveWindow)) {
			return model.DisplayActive
		}
		// Fictitious inactive: the active window lapsed without a code and
		// the feed has not confirmed the transition yet.
		return model.DisplayInactive
	case model.StatusCancelled:
		return model.DisplayCancelled
	case model.StatusExpired:
		return model.DisplayExpired
	}
	return model.DisplayNone
}

// NextCountdown returns the remaining time of the single live timer window,
// or nil when none applies. Precedence: wake, code reveal, pending expiry,
// active expiry. Remaining time is clamped to zero.
func (e *Engine) NextCountdown(rec *model.OrderRecord, now time.Time) *model.Countdown {
	cfg := e.configs[rec.ServiceType]

	if rec.Asleep(now) {
		return clamped(model.TimerWake, rec.AwakeIn.Sub(now))
	}

	if rec.CodeAwakeAt != nil && !now.Before(*rec.CodeAwakeAt) {
		if end := rec.CodeAwakeAt.Add(cfg.CodeRevealWindow); now.Before(end) {
			return clamped(model.TimerCodeReveal, end.Sub(now))
		}
	}

	if rec.ServiceType == model.TypeShort {
		if rec.Status == model.StatusPending {
			if end := rec.CreatedAt.Add(cfg.PendingWindow); now.Before(end) {
				return clamped(model.TimerPendingExpiry, end.Sub(now))
			}
		}
		return nil
	}

	if rec.Status == model.StatusActive && !rec.HasCode() {
		if end := rec.CreatedAt.Add(cfg.ActiveWindow); now.Before(end) {
			return clamped(model.TimerActiveExpiry, end.Sub(now))
		}
	}
	return nil
}

// Eligible returns the actions legal for rec at now. Eligibility is computed
// from the persisted status, not the display status: a Short order whose
// pending window lapsed locally remains cancellable until the feed confirms
// the timeout. A live wake timer removes all actions.
func (e *Engine) Eligible(rec *model.OrderRecord, now time.Time) []model.ActionKind {
	if rec.Asleep(now) {
		return nil
	}

	if rec.ServiceType == model.TypeShort {
		if rec.Status == model.StatusPending {
			return []model.ActionKind{model.ActionCancel}
		}
		return nil
	}

	switch rec.Status {
	case model.StatusActive:
		if rec.HasCode() {
			return nil
		}
		return []model.ActionKind{model.ActionCancel}
	case model.StatusInactive:
		if rec.HasCode() {
			return []model.ActionKind{model.ActionActivate}
		}
		return []model.ActionKind{model.ActionCancel, model.ActionActivate}
	}
	return nil
}

// CanPerform reports whether kind is among the actions legal for rec at now.
func (e *Engine) CanPerform(rec *model.OrderRecord, now time.Time, kind model.ActionKind) bool {
	for _, k := range e.Eligible(rec, now) {
		if k == kind {
			return true
		}
	}
	return false
}

// BuildView combines projection, countdown and eligibility into the render
// model. While a code-reveal countdown is live the raw code is withheld; the
// countdown stands in for it.
func (e *Engine) BuildView(rec *model.OrderRecord, now time.Time, processing bool) model.OrderView {
	countdown := e.NextCountdown(rec, now)

	code := rec.Code
	if countdown != nil && countdown.Kind == model.TimerCodeReveal {
		code = ""
	}

	return model.OrderView{
		ID:            rec.ID,
		ServiceType:   rec.ServiceType,
		Number:        rec.Number,
		Country:       rec.Country,
		ServiceName:   rec.ServiceName,
		Price:         rec.Price,
		DisplayStatus: e.Project(rec, now),
		Code:          code,
		Countdown:     countdown,
		Actions:       e.Eligible(rec, now),
		Processing:    processing,
	}
}

func clamped(kind model.TimerKind, d time.Duration) *model.Countdown {
	if d < 0 {
		d = 0
	}
	return &model.Countdown{Kind: kind, Remaining: d}
}
