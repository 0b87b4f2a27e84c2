package signals

import (
	"math"
	"regexp"
	"strings"
)

// NLP is an aggregated news-sentiment snapshot for one entity.
type NLP struct {
	Entity      string          `json:"entity"`
	Sentiment   float64         `json:"sentiment"`    // -1 .. 1
	ImpactScore float64         `json:"impact_score"` // 0 .. 1
	EventFlags  map[string]bool `json:"event_flags"`
	Language    string          `json:"language,omitempty"`
}

// NewsItem is one already-filtered text item (headline plus optional body).
type NewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var (
	arabicRange = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

var positiveWords = []string{
	"profit", "surge", "gain", "bull", "upgrade", "positive", "rally", "upswing", "gains",
}

var negativeWords = []string{
	"loss", "drop", "fall", "bear", "downgrade", "negative", "selloff", "losses", "decline",
}

var eventKeywords = map[string][]string{
	"earnings": {"earnings", "results", "quarter", "q1", "q2", "q3", "q4"},
	"ma":       {"m&a", "merger", "acquisition"},
	"guidance": {"guidance", "forecast", "outlook"},
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func detectLanguage(text string) string {
	if arabicRange.MatchString(text) {
		return "ar"
	}
	return "en"
}

// SentimentScore scores text in [-1, 1] from positive/negative keyword hits;
// no hits score 0.
func SentimentScore(text string) float64 {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	if pos == 0 && neg == 0 {
		return 0
	}
	score := float64(pos-neg) / float64(pos+neg)
	return clamp(score, -1, 1)
}

// DetectEvents flags which known event categories the text mentions.
func DetectEvents(text string) map[string]bool {
	lower := strings.ToLower(text)
	events := make(map[string]bool, len(eventKeywords))
	for name, kws := range eventKeywords {
		hit := false
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				hit = true
				break
			}
		}
		events[name] = hit
	}
	return events
}

// NLPFromItems aggregates sentiment and event flags for an entity over text
// items. Items are assumed already filtered to the entity.
func NLPFromItems(entity string, items []NewsItem) NLP {
	var sentiments []float64
	eventCounts := make(map[string]int, len(eventKeywords))
	for name := range eventKeywords {
		eventCounts[name] = 0
	}
	langCounts := map[string]int{}

	for _, item := range items {
		text := cleanText(strings.TrimSpace(item.Title + ". " + item.Description))
		if text == "" || text == "." {
			continue
		}
		langCounts[detectLanguage(text)]++
		sentiments = append(sentiments, SentimentScore(text))
		for name, hit := range DetectEvents(text) {
			if hit {
				eventCounts[name]++
			}
		}
	}

	if len(sentiments) == 0 {
		flags := make(map[string]bool, len(eventKeywords))
		for name := range eventKeywords {
			flags[name] = false
		}
		return NLP{Entity: entity, EventFlags: flags}
	}

	avg := 0.0
	for _, s := range sentiments {
		avg += s
	}
	avg /= float64(len(sentiments))

	eventPresent := false
	flags := make(map[string]bool, len(eventCounts))
	for name, n := range eventCounts {
		flags[name] = n > 0
		if n > 0 {
			eventPresent = true
		}
	}

	impact := math.Abs(avg) * 0.7
	if eventPresent {
		impact += 0.3
	}
	if impact > 1 {
		impact = 1
	}

	dominant := ""
	best := 0
	for lang, n := range langCounts {
		if n > best || (n == best && lang < dominant) {
			dominant = lang
			best = n
		}
	}

	return NLP{
		Entity:      entity,
		Sentiment:   avg,
		ImpactScore: impact,
		EventFlags:  flags,
		Language:    dominant,
	}
}
