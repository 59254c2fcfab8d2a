package people

import (
	"encoding/json"
	"fmt"
	"strings"
)

func getSelectionMessages(term string, candidates []Identity) (string, string) {
	entries := make([]map[string]any, 0, len(candidates))
	for idx, cand := range candidates {
		entries = append(entries, map[string]any{
			"index":       idx,
			"displayName": cand.DisplayName,
			"givenName":   cand.GivenName,
			"surname":     cand.FamilyName,
			"mail":        cand.Mail,
		})
	}
	systemPrompt := fmt.Sprintf(`You are a user matching assistant. The user searched for: %q

Here are the found users:
%s

Your task is to select the BEST matching user based on the search query. Consider:
- Name similarity (first name, last name, full name)
- Spelling variations
- Transliteration (Ukrainian to English)

Return ONLY a JSON object with this structure:
{
    "index": <number> - the index of the best matching user (0-based),
    "confidence": "high" | "medium" | "low" - how confident you are in the match,
    "reason": "<brief explanation>"
}

If no user matches well, return: {"error": "No good match found"}

DO NOT write any conversational text. DO NOT use markdown formatting. Just return the raw JSON string.`, term, toJSON(entries))
	return systemPrompt, term
}

func removeCodeBlocks(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "```json", ""), "```", "")
}

func toJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return "[]"
	}
	return string(data)
}
