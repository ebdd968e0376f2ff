package priority

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSONBlock recovers a JSON object from free-form model output. Three
// shapes are tried in order: the whole text as JSON, JSON inside a fenced code
// block, and the substring between the first '{' and the last '}'. Returns nil
// when none of them parse.
func ExtractJSONBlock(text string) map[string]interface{} {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if parsed := tryParseObject(trimmed); parsed != nil {
		return parsed
	}

	if m := fencedBlockRe.FindStringSubmatch(trimmed); len(m) == 2 {
		if parsed := tryParseObject(strings.TrimSpace(m[1])); parsed != nil {
			return parsed
		}
	}

	firstBrace := strings.Index(trimmed, "{")
	lastBrace := strings.LastIndex(trimmed, "}")
	if firstBrace >= 0 && lastBrace > firstBrace {
		return tryParseObject(trimmed[firstBrace : lastBrace+1])
	}
	return nil
}

func tryParseObject(candidate string) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil
	}
	return obj
}
