package signals

// Social is a lightweight social-sentiment snapshot for a symbol.
type Social struct {
	Symbol      string  `json:"symbol"`
	Sentiment   float64 `json:"sentiment"`    // -1 .. 1
	BuzzScore   float64 `json:"buzz_score"`   // 0 .. 1, engagement / hype
	VolumeScore float64 `json:"volume_score"` // 0 .. 1, activity vs history
}

// NeutralSocial returns a snapshot with no social push. The shape is stable
// so real ingestion can back it later without changing call sites.
func NeutralSocial(symbol string) Social {
	return Social{Symbol: symbol}
}
