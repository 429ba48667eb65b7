// Package summarize derives structured summaries from chat transcripts.
//
// Summarize is a pure function: the same transcript always produces the same
// summary, and malformed or empty transcripts degrade to a documented
// empty-state result instead of erroring. Triage must always produce some
// actionable output.
package summarize

import (
	"fmt"
	"math"
	"strings"

	"github.com/zulandar/helpline/internal/models"
)

// issueCategory pairs a key-issue tag with the keywords that select it.
// Categories are evaluated in this order; a category is reported at most
// once, in first-seen order across the customer's turns.
type issueCategory struct {
	name     string
	keywords []string
}

var issueLexicon = []issueCategory{
	{"fiber", []string{"fiber", "internet", "connection", "slow", "speed", "wifi"}},
	{"mobile", []string{"mobile", "phone", "data", "network", "signal", "coverage"}},
	{"billing", []string{"bill", "payment", "charge", "account", "invoice", "cost"}},
	{"technical", []string{"not working", "broken", "error", "problem", "issue", "fault"}},
	{"service", []string{"service", "support", "help", "assistance", "complaint"}},
}

// fallbackIssue is reported when no lexicon category matches any customer turn.
const fallbackIssue = "general inquiry"

var negativeWords = []string{"frustrated", "angry", "terrible", "awful", "hate", "worst", "useless", "disappointed"}

var positiveWords = []string{"great", "good", "excellent", "thanks", "helpful", "appreciate", "perfect"}

const (
	// triggerExcerptLen caps escalation-trigger excerpts.
	triggerExcerptLen = 100
	// leadExcerptLen caps the narrative lead taken from the first customer turn.
	leadExcerptLen = 150
	// minInformativeLen is the shortest first customer turn worth quoting.
	minInformativeLen = 10
)

// Summarize distills a transcript into a ChatSummary. An empty transcript
// yields the fixed empty-state summary, not an error.
func Summarize(history []models.ChatMessage) models.ChatSummary {
	if len(history) == 0 {
		return models.ChatSummary{
			Summary:            "No conversation history available",
			KeyIssues:          []string{},
			CustomerSentiment:  models.SentimentNeutral,
			EscalationTriggers: []string{},
			MessageCount:       0,
			Duration:           "0 minutes",
		}
	}

	customer := customerTurns(history)
	issues := extractKeyIssues(customer)
	triggers := escalationTriggers(history)

	return models.ChatSummary{
		Summary:            narrative(customer, issues, len(triggers)),
		KeyIssues:          issues,
		CustomerSentiment:  analyzeSentiment(history),
		EscalationTriggers: triggers,
		MessageCount:       len(history),
		Duration:           formatDuration(history),
	}
}

// customerTurns returns the odd-indexed messages (positional convention:
// even = assistant, odd = customer).
func customerTurns(history []models.ChatMessage) []models.ChatMessage {
	var turns []models.ChatMessage
	for i, msg := range history {
		if i%2 == 1 {
			turns = append(turns, msg)
		}
	}
	return turns
}

// extractKeyIssues classifies the customer's turns against the issue lexicon.
func extractKeyIssues(customer []models.ChatMessage) []string {
	issues := []string{}
	seen := map[string]bool{}
	for _, msg := range customer {
		text := strings.ToLower(msg.Text)
		for _, cat := range issueLexicon {
			if seen[cat.name] {
				continue
			}
			for _, word := range cat.keywords {
				if strings.Contains(text, word) {
					issues = append(issues, cat.name)
					seen[cat.name] = true
					break
				}
			}
		}
	}
	if len(issues) == 0 {
		return []string{fallbackIssue}
	}
	return issues
}

// escalationTriggers collects excerpts of every unhelpful-marked message,
// in transcript order.
func escalationTriggers(history []models.ChatMessage) []string {
	triggers := []string{}
	for _, msg := range history {
		if msg.Satisfaction == models.SatisfactionUnhelpful {
			triggers = append(triggers, truncate(msg.Text, triggerExcerptLen))
		}
	}
	return triggers
}

// analyzeSentiment scores the conversation. Explicit satisfaction ratings
// outweigh lexical hits: each unhelpful mark costs 2 points, each negative
// word present in a message costs 1, each positive word gains 1.
func analyzeSentiment(history []models.ChatMessage) models.Sentiment {
	score := -2 * models.UnhelpfulCount(history)
	for _, msg := range history {
		text := strings.ToLower(msg.Text)
		for _, word := range negativeWords {
			if strings.Contains(text, word) {
				score--
			}
		}
		for _, word := range positiveWords {
			if strings.Contains(text, word) {
				score++
			}
		}
	}
	switch {
	case score <= -2:
		return models.SentimentNegative
	case score >= 2:
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}

// narrative builds the free-text summary line.
func narrative(customer []models.ChatMessage, issues []string, triggerCount int) string {
	if len(customer) == 0 {
		return "Customer initiated chat but did not provide specific details."
	}

	first := customer[0].Text
	var lead string
	if len([]rune(first)) > minInformativeLen {
		lead = truncate(first, leadExcerptLen)
	} else {
		lead = "Customer contacted regarding " + strings.Join(issues, ", ")
	}

	var b strings.Builder
	b.WriteString(lead)
	if triggerCount > 0 {
		fmt.Fprintf(&b, " Customer was unsatisfied with %d response%s.", triggerCount, plural(triggerCount))
	}
	fmt.Fprintf(&b, " Conversation involved %d customer message%s.", len(customer), plural(len(customer)))
	return b.String()
}

// formatDuration reports whole minutes between the first and last message.
// The transcript's recorded order is trusted; it is not re-sorted.
func formatDuration(history []models.ChatMessage) string {
	elapsed := history[len(history)-1].Timestamp.Sub(history[0].Timestamp)
	minutes := int(math.Round(elapsed.Minutes()))
	return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
