package models

import "time"

// Satisfaction is the customer's rating of a single response.
type Satisfaction string

const (
	SatisfactionUnrated   Satisfaction = ""
	SatisfactionHelpful   Satisfaction = "helpful"
	SatisfactionUnhelpful Satisfaction = "unhelpful"
)

// ChatMessage is one transcript entry. Transcripts alternate speakers by
// position: even index = assistant turn, odd index = customer turn. The
// producer of the transcript owns that convention.
type ChatMessage struct {
	Text         string       `json:"text"`
	Timestamp    time.Time    `json:"timestamp"`
	Satisfaction Satisfaction `json:"satisfaction,omitempty"`
}

// Sentiment classifies the customer's overall mood in a conversation.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ChatSummary is derived from a transcript; it is never stored independently
// of the chat history it was computed from.
type ChatSummary struct {
	Summary            string    `json:"summary"`
	KeyIssues          []string  `json:"keyIssues"`
	CustomerSentiment  Sentiment `json:"customerSentiment"`
	EscalationTriggers []string  `json:"escalationTriggers"`
	MessageCount       int       `json:"messageCount"`
	Duration           string    `json:"duration"`
}

// UnhelpfulCount returns how many messages in the transcript were explicitly
// marked unhelpful.
func UnhelpfulCount(history []ChatMessage) int {
	n := 0
	for _, msg := range history {
		if msg.Satisfaction == SatisfactionUnhelpful {
			n++
		}
	}
	return n
}
