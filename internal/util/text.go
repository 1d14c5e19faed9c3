package util

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// TruncateTokens cuts text to at most maxTokens tokens of the given tiktoken
// encoding. It returns the (possibly shortened) text and the token count of
// the original. maxTokens <= 0 disables truncation and reports 0 tokens.
func TruncateTokens(text, encoder string, maxTokens int) (string, int, error) {
	if maxTokens <= 0 {
		return text, 0, nil
	}
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return "", 0, fmt.Errorf("unknown token encoder %q: %w", encoder, err)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, len(tokens), nil
	}
	return enc.Decode(tokens[:maxTokens]), len(tokens), nil
}
