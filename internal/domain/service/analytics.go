package service

import "ForexPulse/internal/domain/models"

// SignalStrategy derives a trading signal for one symbol.
// prev is the series from the previously committed snapshot and may be empty.
// ok=false means the strategy has nothing to say for this symbol and it is omitted.
type SignalStrategy interface {
	Name() string
	Compute(cur, prev models.Series) (res models.SignalResult, ok bool)
}
