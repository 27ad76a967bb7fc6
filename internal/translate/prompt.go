package translate

import (
	"fmt"

	"github.com/leonardotrapani/transcribebridge/internal/language"
)

// BuildSystemPrompt generates the system prompt for translating into lang
func BuildSystemPrompt(lang language.Language) string {
	prompt := "You are a translation assistant. Your job is to translate speech-to-text transcriptions.\n\n"
	prompt += fmt.Sprintf("Target language: %s (%s)\n", lang.Name, lang.NativeName)

	prompt += "\nRules:\n"
	prompt += "- Preserve the original meaning and tone\n"
	prompt += "- Keep names, numbers and technical terms intact\n"
	prompt += "- Do not add any explanation or commentary\n"
	prompt += "- Output ONLY the translated text, nothing else\n"
	prompt += "- If the input is already in the target language, return it as-is\n"

	return prompt
}
