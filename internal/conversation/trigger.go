package conversation

import "strings"

// TriggerFunc decides whether a completed generative exchange should start
// the lead interview. Implementations must be pure.
type TriggerFunc func(userText, assistantText string) bool

var (
	visitorIntentWords       = []string{"interested", "quote", "price", "cost", "hire"}
	assistantSolicitingWords = []string{"contact", "information", "details"}
)

// ShouldStartInterview is the default keyword heuristic: buying-intent words
// from the visitor or solicitation words from the assistant.
func ShouldStartInterview(userText, assistantText string) bool {
	return containsAny(strings.ToLower(userText), visitorIntentWords) ||
		containsAny(strings.ToLower(assistantText), assistantSolicitingWords)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
