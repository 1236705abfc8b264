package conversation

import "fmt"

const DefaultSupportEmail = "contact@assistauraofficial.com"

const (
	GreetingText     = "Hello! I'm AssistAura's AI Assistant. How can I help?"
	InterviewAckText = "I'd be happy to help you get started! Let me collect some information so our team can assist you better."
	LeadSavedText    = "Thank you! Your information has been saved. Our team will contact you soon. Is there anything else I can help you with?"
)

// GenerationFallbackText is shown in place of a reply when generation fails.
func GenerationFallbackText(supportEmail string) string {
	return fmt.Sprintf("I apologize, but I'm having trouble processing your request right now. Please try again or contact us directly at %s", orDefaultEmail(supportEmail))
}

// LeadSaveFailedText is shown when a completed interview could not be stored.
// The answers are discarded, so it asks the visitor to start over.
func LeadSaveFailedText(supportEmail string) string {
	return fmt.Sprintf("I apologize, there was an error saving your information. Just let me know you'd like to get started and we can go through the details again, or contact us directly at %s", orDefaultEmail(supportEmail))
}

func orDefaultEmail(email string) string {
	if email == "" {
		return DefaultSupportEmail
	}
	return email
}
