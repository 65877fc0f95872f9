// Package tracker converts a stream of price ticks into HOLD/SELL signals
// by detecting momentum climbs and emitting a sell once the pullback from
// the peak exceeds the accumulated gain divided by the golden ratio.
package tracker

import (
	"math"

	log "github.com/sirupsen/logrus"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
)

// Tracker is a pure per-symbol state machine. No I/O; all state is owned by
// the instance and mutated only inside ProcessTick.
type Tracker struct {
	symbol        string
	status        model.TrackerStatus
	previousPrice *float64
	climbStart    float64
	climbPeak     float64
	climbGain     float64
	sellDrop      float64
}

// New creates a tracker in the IDLE state.
func New(symbol string) *Tracker {
	return &Tracker{symbol: symbol, status: model.StatusIdle}
}

// ProcessTick feeds one bar into the state machine and returns the signal.
// A non-finite close is skipped entirely: it is logged, the signal is HOLD,
// and previousPrice is left untouched so the next valid tick is compared
// against the last valid one.
func (t *Tracker) ProcessTick(tick model.PriceTick) model.Signal {
	price := tick.Close
	if math.IsNaN(price) || math.IsInf(price, 0) {
		log.Warnf("%s: skipping tick %s with invalid close", t.symbol, tick.Timestamp)
		return model.SignalHold
	}

	if t.previousPrice == nil {
		// Cannot detect a direction change without a prior price.
		t.previousPrice = &price
		return model.SignalHold
	}
	prev := *t.previousPrice

	signal := model.SignalHold
	switch t.status {
	case model.StatusIdle:
		if price >= prev {
			t.status = model.StatusClimbing
			t.climbStart = prev
			t.setPeak(price)
			log.Debugf("%s: climb started at %s (start=%.4f peak=%.4f)", t.symbol, tick.Timestamp, t.climbStart, t.climbPeak)
		}

	case model.StatusClimbing:
		if price >= prev {
			// Ties keep the climb alive but only a strict new high
			// recomputes the gain.
			if price > t.climbPeak {
				t.setPeak(price)
			}
		} else {
			t.status = model.StatusPeakedDipping
			// The same tick that breaks the climb can trigger the sale.
			signal = t.evaluateSell(price, tick.Timestamp)
		}

	case model.StatusPeakedDipping:
		signal = t.evaluateSell(price, tick.Timestamp)
		if signal == model.SignalHold && price >= prev && price > t.climbPeak {
			// Price recovered past the original peak: the climb resumes
			// from its original start.
			t.status = model.StatusClimbing
			t.setPeak(price)
			log.Debugf("%s: climb resumed at %s (start=%.4f peak=%.4f)", t.symbol, tick.Timestamp, t.climbStart, t.climbPeak)
		}
	}

	t.previousPrice = &price
	return signal
}

func (t *Tracker) setPeak(price float64) {
	t.climbPeak = price
	t.climbGain = t.climbPeak - t.climbStart
	t.sellDrop = t.climbGain * config.SellOffToleranceFactor
}

// evaluateSell checks the trailing-stop condition. A zero-gain climb never
// sells: no profit has been locked in to protect.
func (t *Tracker) evaluateSell(price float64, timestamp string) model.Signal {
	if t.climbGain > 0 && price < t.climbPeak-t.sellDrop {
		log.Infof("%s: SELL at %s price=%.4f (peak=%.4f gain=%.4f tolerated drop=%.4f)",
			t.symbol, timestamp, price, t.climbPeak, t.climbGain, t.sellDrop)
		t.reset()
		return model.SignalSell
	}
	return model.SignalHold
}

// reset zeroes all climb fields and returns to IDLE. previousPrice is
// retained for continuous tick comparison.
func (t *Tracker) reset() {
	t.status = model.StatusIdle
	t.climbStart = 0
	t.climbPeak = 0
	t.climbGain = 0
	t.sellDrop = 0
}

// Symbol returns the tracked symbol.
func (t *Tracker) Symbol() string { return t.symbol }

// Status returns the current state.
func (t *Tracker) Status() model.TrackerStatus { return t.status }

// PreviousPrice returns the last valid close seen, if any.
func (t *Tracker) PreviousPrice() (float64, bool) {
	if t.previousPrice == nil {
		return 0, false
	}
	return *t.previousPrice, true
}

// ClimbStartPrice returns the price the current climb started from.
func (t *Tracker) ClimbStartPrice() float64 { return t.climbStart }

// ClimbPeakPrice returns the highest close of the current climb.
func (t *Tracker) ClimbPeakPrice() float64 { return t.climbPeak }

// AccumulatedGain returns peak minus climb start.
func (t *Tracker) AccumulatedGain() float64 { return t.climbGain }

// SellDropAmount returns the tolerated pullback in absolute price units.
func (t *Tracker) SellDropAmount() float64 { return t.sellDrop }
