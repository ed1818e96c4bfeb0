package service

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mathieu-neron/creatordash/internal/model"
)

// RevenueResolver owns the revenue session state: the last ingested snapshot,
// the manual/automatic preference and the current RPM baseline.
//
// Resolution rules:
//
//	manual override in force:  rpm = override, revenue = views/1000 * override
//	actual revenue available:  rpm = revenue/views * 1000 (0 if no views), revenue = actual
//	otherwise:                 rpm = default, revenue = views/1000 * default
type RevenueResolver struct {
	defaultRPM float64
	currency   string

	mu          sync.Mutex
	snapshot    model.RevenueSnapshot
	hasSnapshot bool
	manual      bool
	currentRPM  float64
}

func NewRevenueResolver(defaultRPM float64, currency string) *RevenueResolver {
	return &RevenueResolver{
		defaultRPM: defaultRPM,
		currency:   currency,
		currentRPM: defaultRPM,
	}
}

// IngestSnapshot replaces the last snapshot. A nil snapshot means every fetch
// failed and is stored as zero views with no actual revenue.
func (r *RevenueResolver) IngestSnapshot(snapshot *model.RevenueSnapshot) {
	s := model.RevenueSnapshot{ConversionRate: 1}
	if snapshot != nil {
		s = *snapshot
		if s.Views < 0 {
			s.Views = 0
		}
		if s.ConversionRate <= 0 {
			s.ConversionRate = 1
		}
		if s.ActualRevenue != nil {
			actual := math.Max(*s.ActualRevenue, 0)
			s.ActualRevenue = &actual
		}
	}

	r.mu.Lock()
	r.snapshot = s
	r.hasSnapshot = true
	r.mu.Unlock()
}

// MaxManualRPM bounds a manual override so estimates stay representable.
const MaxManualRPM = 1_000_000

var maxRounded = decimal.NewFromInt(math.MaxInt64)

// ApplyManualOverride switches to manual mode with the given RPM. Negative,
// NaN, infinite and out-of-range values are rejected and leave the state
// untouched.
func (r *RevenueResolver) ApplyManualOverride(rpm float64) error {
	if math.IsNaN(rpm) || rpm < 0 || rpm > MaxManualRPM {
		return fmt.Errorf("%w: rpm must be between 0 and %d, got %v", ErrInvalidInput, MaxManualRPM, rpm)
	}

	r.mu.Lock()
	r.manual = true
	r.currentRPM = rpm
	r.mu.Unlock()
	return nil
}

// ResetToAutomatic clears the manual preference. The next Resolve falls back
// to actual or default RPM.
func (r *RevenueResolver) ResetToAutomatic() {
	r.mu.Lock()
	r.manual = false
	r.mu.Unlock()
}

// Resolve computes the display state. In automatic modes the resolved RPM
// becomes the new baseline.
func (r *RevenueResolver) Resolve() model.RevenueDisplayState {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := r.snapshot.Views
	state := model.RevenueDisplayState{
		Views:       views,
		Currency:    r.currency,
		HasSnapshot: r.hasSnapshot,
	}

	switch {
	case r.manual:
		override := r.currentRPM
		state.Mode = model.RevenueModeManual
		state.EffectiveRPM = override
		state.EffectiveRevenue = estimateRevenue(views, override)
		state.ManualRPMOverride = &override
	case r.snapshot.HasActual():
		revenue := *r.snapshot.ActualRevenue * r.snapshot.ConversionRate
		state.Mode = model.RevenueModeActual
		state.EffectiveRevenue = revenue
		if views > 0 {
			state.EffectiveRPM = revenue / float64(views) * 1000
		}
		r.currentRPM = state.EffectiveRPM
	default:
		state.Mode = model.RevenueModeAIDefault
		state.EffectiveRPM = r.defaultRPM
		state.EffectiveRevenue = estimateRevenue(views, r.defaultRPM)
		r.currentRPM = state.EffectiveRPM
	}

	state.EffectiveRPM = saturate(state.EffectiveRPM)
	state.EffectiveRevenue = saturate(state.EffectiveRevenue)
	state.BaselineRPM = saturate(r.currentRPM)
	state.RoundedRevenue = roundMoney(state.EffectiveRevenue)
	state.RoundedRPM = roundMoney(state.EffectiveRPM)
	state.RoundedBaseline = roundMoney(state.BaselineRPM)
	return state
}

// Snapshot returns the last ingested snapshot.
func (r *RevenueResolver) Snapshot() (model.RevenueSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot, r.hasSnapshot
}

// Reset drops all session state (used on logout).
func (r *RevenueResolver) Reset() {
	r.mu.Lock()
	r.snapshot = model.RevenueSnapshot{}
	r.hasSnapshot = false
	r.manual = false
	r.currentRPM = r.defaultRPM
	r.mu.Unlock()
}

func estimateRevenue(views int64, rpm float64) float64 {
	return float64(views) / 1000 * rpm
}

// saturate keeps a display value finite and non-negative.
func saturate(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	}
	return v
}

// roundMoney rounds half away from zero to a whole currency unit, clamped to
// [0, MaxInt64].
func roundMoney(v float64) int64 {
	v = saturate(v)
	d := decimal.NewFromFloat(v).Round(0)
	if d.GreaterThanOrEqual(maxRounded) {
		return math.MaxInt64
	}
	return d.IntPart()
}
