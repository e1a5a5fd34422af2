package genai

import "fmt"

func translatePrompt(word, sentence string) string {
	return fmt.Sprintf(`You help Russian-speaking students prepare for the IELTS reading test.

Translate the English word "%s" into Russian as it is used in this sentence:
%q

Output ONLY a JSON object with this exact schema:
{"translation": "<Russian translation>", "definition": "<short English definition for a B2 learner>"}

No markdown, no explanations.`, word, sentence)
}

func quizPrompt(passageContent string) string {
	return fmt.Sprintf(`You write IELTS academic vocabulary practice.

Read the passage below and choose 4 to 6 words a B2 learner is likely not to know.
For each word write one multiple-choice question about its meaning in the passage.

Passage:
%s

Output ONLY a JSON array where every element has this exact schema:
{"word": "<word>", "question": "<question>", "options": ["<A>", "<B>", "<C>", "<D>"], "correctAnswerIndex": <0-3>, "explanation": "<one sentence>"}

Rules:
- Exactly four options per question, one correct
- Explanations refer to how the word is used in the passage
- No markdown, no explanations outside the JSON`, passageContent)
}
