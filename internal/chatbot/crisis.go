package chatbot

import "strings"

// crisisKeywords are matched as case-insensitive substrings of the user's
// latest message. Kept deliberately blunt; false positives are acceptable,
// false negatives are not.
var crisisKeywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"want to die",
	"better off dead",
	"self-harm",
	"self harm",
	"hurt myself",
	"harm myself",
	"no reason to live",
	"end it all",
}

// DetectCrisis reports whether the message contains crisis language.
func DetectCrisis(message string) bool {
	lowered := strings.ToLower(message)
	for _, kw := range crisisKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// CrisisResponse is returned verbatim whenever crisis language is detected.
// It never goes through the model and never counts against usage limits.
const CrisisResponse = `I'm really concerned about what you're sharing with me. Your safety matters, and there are people who want to help you right now.

**Please reach out for immediate support:**
- **Call or text 988** - Suicide & Crisis Lifeline (available 24/7)
- **Text HOME to 741741** - Crisis Text Line
- **Call 911** if you're in immediate danger

If it helps while you reach out, try this grounding exercise:
- Name **5** things you can see
- Name **4** things you can touch
- Name **3** things you can hear
- Name **2** things you can smell
- Name **1** thing you can taste

You don't have to go through this alone. A trained counselor is available right now, and talking to them is a sign of strength, not weakness.`
