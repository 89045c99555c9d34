package analysis

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sentiment is the three-way label derived from a polarity score.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// Threshold for Positive/Negative. Exactly ±Threshold is Neutral.
const Threshold = 0.25

// Label maps a polarity score to a Sentiment.
func Label(score float64) Sentiment {
	switch {
	case score > Threshold:
		return Positive
	case score < -Threshold:
		return Negative
	default:
		return Neutral
	}
}

// Score is what a sentiment provider returns for a piece of text.
type Score struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// Result is one persisted sentiment analysis.
type Result struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Sentiment     Sentiment `json:"sentiment"`
	Score         float64   `json:"score"`
	Magnitude     float64   `json:"magnitude"`
	AudioFilename *string   `json:"audio_filename"`
	CreatedAt     time.Time `json:"date"`
}

// legacyLayout is the timezone-less ISO 8601 form found in older records.
// Those timestamps are read as UTC.
const legacyLayout = "2006-01-02T15:04:05.999999999"

func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	aux := struct {
		*plain
		CreatedAt recordTime `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.CreatedAt = time.Time(aux.CreatedAt)
	return nil
}

type recordTime time.Time

func (t *recordTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		parsed, err = time.ParseInLocation(legacyLayout, s, time.UTC)
		if err != nil {
			return fmt.Errorf("date %q: not an ISO 8601 timestamp", s)
		}
	}
	*t = recordTime(parsed)
	return nil
}
