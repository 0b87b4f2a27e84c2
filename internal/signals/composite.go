package signals

import "math"

// Direction of a composite signal.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionFlat  Direction = "flat"
)

// Weights control the blend of quant, news, and social components.
type Weights struct {
	Quant  float64
	News   float64
	Social float64
}

// DefaultWeights is the standard quant-heavy blend.
var DefaultWeights = Weights{Quant: 0.5, News: 0.3, Social: 0.2}

// DefaultThreshold is the minimum combined score before a direction is called.
const DefaultThreshold = 0.05

// Composite is the normalized directional signal blending quant, news, and
// social inputs. Score is always within [-1, 1] and Confidence within [0, 1].
type Composite struct {
	Symbol     string    `json:"symbol"`
	Score      float64   `json:"score"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Quant      Quant     `json:"quant"`
	NLP        NLP       `json:"nlp"`
	Social     *Social   `json:"social,omitempty"`
}

// Aggregate merges the component signals into one composite. It is a pure
// function: identical inputs always produce identical output. A NaN RSI means
// the quant engine had no signal and contributes zero rather than poisoning
// the blend.
func Aggregate(symbol string, quant Quant, nlp NLP, social *Social, w Weights, threshold float64) Composite {
	quantScore := 0.0
	if !math.IsNaN(quant.RSI) {
		quantScore = clamp((quant.RSI-50.0)/50.0, -1, 1)
	}

	newsScore := nlp.Sentiment * math.Max(0, nlp.ImpactScore)

	socialScore := 0.0
	if social != nil {
		socialScore = social.Sentiment * math.Max(0, social.BuzzScore)
	}

	combined := clamp(w.Quant*quantScore+w.News*newsScore+w.Social*socialScore, -1, 1)

	direction := DirectionFlat
	if combined > threshold {
		direction = DirectionLong
	} else if combined < -threshold {
		direction = DirectionShort
	}

	return Composite{
		Symbol:     symbol,
		Score:      combined,
		Direction:  direction,
		Confidence: math.Abs(combined),
		Quant:      quant,
		NLP:        nlp,
		Social:     social,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
