package signals

import (
	"math"
	"time"
)

// Regime is a coarse volatility classification.
type Regime string

const (
	RegimeLowVol  Regime = "low_vol"
	RegimeNormal  Regime = "normal"
	RegimeHighVol Regime = "high_vol"
	RegimeUnknown Regime = "unknown"
)

// Volatility thresholds for regime classification.
const (
	lowVolThreshold  = 0.005
	highVolThreshold = 0.02
)

// Bar is a single OHLCV sample.
type Bar struct {
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Quant holds the indicator snapshot for one symbol over one bar window.
// Indicator fields are NaN when there is not enough history; consumers must
// check with math.IsNaN and treat NaN as "no signal", never feed it into
// further arithmetic.
type Quant struct {
	Symbol     string  `json:"symbol"`
	Window     int     `json:"window"`
	SMA        float64 `json:"sma"`
	EMA        float64 `json:"ema"`
	RSI        float64 `json:"rsi"`
	ATR        float64 `json:"atr"`
	Volatility float64 `json:"volatility"`
	Regime     Regime  `json:"regime"`
}

// SMA returns the mean of the last window values, NaN on short input.
func SMA(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return math.NaN()
	}
	sum := 0.0
	for i := len(values) - window; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(window)
}

// EMA seeds with the first value and applies the smoothing factor 2/(window+1)
// across the entire series, not just the trailing window. Using the full
// series makes the average more responsive to the oldest supplied context.
func EMA(values []float64, window int) float64 {
	if window <= 0 || len(values) == 0 {
		return math.NaN()
	}
	alpha := 2.0 / (float64(window) + 1.0)
	ema := values[0]
	for _, v := range values[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}

// RSI computes the relative strength index over the last period deltas.
// Returns 100 when the average loss is zero or undefined.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) <= period {
		return math.NaN()
	}
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		ch := closes[i] - closes[i-1]
		if ch > 0 {
			gains = append(gains, ch)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -ch)
		}
	}
	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	if avgLoss == 0 || math.IsNaN(avgLoss) {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// TrueRanges returns the true-range series. The first element has no prior
// close, so its true range is simply high-low.
func TrueRanges(highs, lows, closes []float64) []float64 {
	trs := make([]float64, 0, len(highs))
	for i := range highs {
		if i == 0 {
			trs = append(trs, highs[i]-lows[i])
			continue
		}
		tr := math.Max(
			highs[i]-lows[i],
			math.Max(
				math.Abs(highs[i]-closes[i-1]),
				math.Abs(lows[i]-closes[i-1]),
			),
		)
		trs = append(trs, tr)
	}
	return trs
}

// ATR is the simple moving average of the true-range series.
func ATR(highs, lows, closes []float64, period int) float64 {
	return SMA(TrueRanges(highs, lows, closes), period)
}

// Volatility is the sample standard deviation of the trailing window of values.
func Volatility(closes []float64, window int) float64 {
	if window <= 1 || len(closes) < window {
		return math.NaN()
	}
	tail := closes[len(closes)-window:]
	mean := 0.0
	for _, v := range tail {
		mean += v
	}
	mean /= float64(window)
	variance := 0.0
	for _, v := range tail {
		d := v - mean
		variance += d * d
	}
	variance /= float64(window - 1)
	return math.Sqrt(math.Max(variance, 0))
}

// ClassifyRegime maps a volatility reading to a regime bucket.
func ClassifyRegime(vol float64) Regime {
	switch {
	case math.IsNaN(vol):
		return RegimeUnknown
	case vol < lowVolThreshold:
		return RegimeLowVol
	case vol > highVolThreshold:
		return RegimeHighVol
	default:
		return RegimeNormal
	}
}

// FromBars computes the quant snapshot for an ordered bar sequence. Empty
// input yields an all-NaN snapshot with regime "unknown"; it never fails.
func FromBars(symbol string, bars []Bar, window int) Quant {
	if len(bars) == 0 {
		return Quant{
			Symbol:     symbol,
			Window:     window,
			SMA:        math.NaN(),
			EMA:        math.NaN(),
			RSI:        math.NaN(),
			ATR:        math.NaN(),
			Volatility: math.NaN(),
			Regime:     RegimeUnknown,
		}
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	period := window / 2
	if period > 14 {
		period = 14
	}
	if period < 2 {
		period = 2
	}

	vol := Volatility(closes, window)
	return Quant{
		Symbol:     symbol,
		Window:     window,
		SMA:        SMA(closes, window),
		EMA:        EMA(closes, window),
		RSI:        RSI(closes, period),
		ATR:        ATR(highs, lows, closes, period),
		Volatility: vol,
		Regime:     ClassifyRegime(vol),
	}
}
