package conversation

import (
	"regexp"
	"strings"
)

// InputScan is the result of screening a chat message before it is placed
// into the prompt. Chat never refuses a message, so a high score only
// raises a warning; Sanitized is what reaches the model.
type InputScan struct {
	Score     float64
	Reasons   []string
	Sanitized string
}

// Flagged reports whether the message looks like an attempt to steer the model.
func (s InputScan) Flagged() bool {
	return s.Score >= inputFlagThreshold
}

type inputPattern struct {
	re     *regexp.Regexp
	reason string
	weight float64
}

const inputFlagThreshold = 0.7

var inputPatterns = []inputPattern{
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|rules?|prompts?)`), "override:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)(bỏ qua|quên)\s+(hết\s+|tất cả\s+)?(các\s+|những\s+)?(hướng dẫn|chỉ dẫn|quy tắc|lệnh)`), "override:ignore_instructions_vi", 0.9},
	{regexp.MustCompile(`(?i)(system\s*prompt|initial\s+prompt|hidden\s+prompt)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|developer\s*mode`), "override:jailbreak_keyword", 0.9},
	{regexp.MustCompile(`(?i)\b(api|secret|database|db)\s*(key|token|password)s?\b`), "exfiltration:credentials", 0.8},
	{specialTokenPattern, "boundary:special_tokens", 0.9},
	{turnMarkerPattern, "boundary:forged_turn", 0.7},
}

var (
	specialTokenPattern = regexp.MustCompile(`(?i)\[/?INST\]|\[/?SYS\]|<\|im_start\|>|<\|im_end\|>|<\|(system|user|assistant)\|>`)
	// Lines that imitate the speaker labels used in the companion prompt.
	turnMarkerPattern = regexp.MustCompile(`(?im)^\s*(WellBot|Người dùng|Bot|System|Assistant)\s*(\([^)]*\))?\s*:`)
	markupPattern     = regexp.MustCompile(`(?i)<\s*(script|iframe|object|embed|style)\b[^>]*>`)
)

// ScanInput scores a chat message and strips the markers that would let it
// impersonate a prompt turn. Other content is left untouched.
func ScanInput(message string) InputScan {
	if strings.TrimSpace(message) == "" {
		return InputScan{Sanitized: message}
	}

	var reasons []string
	maxWeight := 0.0
	for _, p := range inputPatterns {
		if p.re.MatchString(message) {
			reasons = append(reasons, p.reason)
			maxWeight = max(maxWeight, p.weight)
		}
	}
	score := maxWeight
	if len(reasons) > 1 {
		score = min(1.0, maxWeight+float64(len(reasons)-1)*0.1)
	}

	sanitized := message
	if len(reasons) > 0 {
		sanitized = specialTokenPattern.ReplaceAllString(sanitized, "")
		sanitized = turnMarkerPattern.ReplaceAllString(sanitized, "")
		sanitized = markupPattern.ReplaceAllString(sanitized, "")
		sanitized = strings.TrimSpace(sanitized)
	}
	return InputScan{Score: score, Reasons: reasons, Sanitized: sanitized}
}
