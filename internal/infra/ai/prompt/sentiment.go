package prompt

import "fmt"

// GetSentimentSystemPrompt asks for a single JSON object with score and magnitude.
func GetSentimentSystemPrompt() string {
	return `You are a sentiment analysis engine. You must produce one valid JSON object only (no markdown, no commentary). Do not include code fences.

Requirements:
- "score" is the overall polarity of the text, a number from -1.0 (clearly negative) to 1.0 (clearly positive). Use 0.0 for neutral or mixed text.
- "magnitude" is the overall emotional strength of the text regardless of polarity, a non-negative number. It grows with the amount of emotional content, so long texts with strong feelings may exceed 1.0.
- Judge the text as a whole, not individual sentences.

Schema:
{"score": 0.0, "magnitude": 0.0}`
}

// GetSentimentUserPrompt wraps the text to score.
func GetSentimentUserPrompt(text string) string {
	return fmt.Sprintf("Analyze the sentiment of the following text and respond with the JSON per schema.\n\nText:\n%s", text)
}
