package llm

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/campus-assistant/backend/internal/language"
)

// PromptVersion identifies the system prompt below. Bump it whenever the
// wording changes so cached replies keyed on it are not reused.
const PromptVersion = "v3"

const systemPromptText = `You are LBSCEK Assistant, a friendly voice assistant for {{.College}}, Kasaragod, Kerala.

PERSONALITY:
- Talk like a helpful senior student who likes the college.
- Be warm and positive. Sound like a person in a casual chat, not a database.

VOICE-FRIENDLY ANSWERS:
- Keep it short, one to three sentences. The reply is spoken aloud.
- No bullet points, no lists, no key: value formatting, no special symbols.
- React first ("Oh!", "Great question!"), then rephrase the facts in your own words.

ACCURACY:
- Use only facts from CONTEXT. Never invent names, numbers or dates.
- If the answer is not in CONTEXT, say you don't have that exact detail and suggest contacting the office at {{.OfficePhone}}.
- Answer only what was asked.

LANGUAGE:
- Always reply in the same language the user wrote in.

LANGUAGE INSTRUCTION: {{.Instruction}}

CONTEXT (use this info to answer):
{{.Context}}`

var systemPrompt = template.Must(template.New("system").Parse(systemPromptText))

var languageInstructions = map[language.Language]string{
	language.Malayalam: `Reply only in Malayalam script (മലയാളം). Do not use English or Manglish.
Use conversational phrases such as "അതെ...", "തീർച്ചയായും...", "നല്ല ചോദ്യം!", "പിന്നെ എന്തെങ്കിലും അറിയണോ?"`,
	language.Manglish: `Reply in Manglish, Malayalam written in English letters. Do not use Malayalam script or plain English.
Use phrases such as "Athe...", "Pinne...", "Sherikkum...", "Nalla chodyam!", "Koode enthenkilum ariyano?"`,
	language.English: `Reply in friendly conversational English, like a helpful senior student.`,
}

type promptData struct {
	College     string
	OfficePhone string
	Instruction string
	Context     string
}

// LanguageInstruction returns the reply-language block for lang, falling
// back to English for unknown values.
func LanguageInstruction(lang language.Language) string {
	if instr, ok := languageInstructions[lang]; ok {
		return instr
	}
	return languageInstructions[language.English]
}

// BuildSystemPrompt renders the system prompt for one augmentation call.
func BuildSystemPrompt(lang language.Language, context string) (string, error) {
	var buf bytes.Buffer
	err := systemPrompt.Execute(&buf, promptData{
		College:     "LBS College of Engineering",
		OfficePhone: "04994-250790",
		Instruction: LanguageInstruction(lang),
		Context:     strings.TrimSpace(context),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildContext assembles the CONTEXT block from the locally resolved answer,
// recent conversation turns and optional website text.
func BuildContext(req AugmentRequest) string {
	var b strings.Builder
	if req.LocalAnswer != "" {
		b.WriteString("LOCAL ANSWER:\n")
		b.WriteString(req.LocalAnswer)
		b.WriteString("\n\n")
	}
	if len(req.History) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		for _, turn := range req.History {
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if req.WebsiteContent != "" {
		b.WriteString("WEBSITE CONTENT FROM ")
		b.WriteString(req.WebsiteURL)
		b.WriteString(":\n")
		b.WriteString(req.WebsiteContent)
	}
	return strings.TrimSpace(b.String())
}
