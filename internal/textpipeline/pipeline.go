// Package textpipeline derives the corrected text, sentiment label and hashtags of a post
// through an external language-model service.
package textpipeline

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sentiment labels stored on tweets.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

const (
	maxHashtags      = 5
	maxHashtagsChars = 150
)

// Result is the output of one pipeline run.
type Result struct {
	Content   string `json:"content"`
	Sentiment string `json:"sentiment"`
	Hashtags  string `json:"hashtags"`
}

// Pipeline turns raw post text into a Result. Implementations must honor ctx cancellation.
type Pipeline interface {
	Process(ctx context.Context, text string) (Result, error)
}

// Noop returns the text unchanged with no derived fields.
type Noop struct{}

// Process implements Pipeline.
func (Noop) Process(_ context.Context, text string) (Result, error) {
	return Result{Content: text}, nil
}

// NormalizeSentiment maps a free-form model answer onto one of the stored labels.
func NormalizeSentiment(raw string) string {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "negative"):
		return SentimentNegative
	case strings.Contains(s, "positive"):
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

var tagCleaner = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// NormalizeHashtags turns a model answer into a space-separated "#tag" list:
// at most five unique tags (case-insensitive) that fit the stored column.
func NormalizeHashtags(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == ';'
	})

	seen := make(map[string]struct{})
	var b strings.Builder
	count := 0
	for _, f := range fields {
		word := tagCleaner.ReplaceAllString(f, "")
		if word == "" {
			continue
		}
		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		tag := "#" + word
		extra := utf8.RuneCountInString(tag)
		if b.Len() > 0 {
			extra++
		}
		if utf8.RuneCountInString(b.String())+extra > maxHashtagsChars {
			continue
		}
		seen[key] = struct{}{}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tag)
		count++
		if count == maxHashtags {
			break
		}
	}
	return b.String()
}

// CleanCorrection strips the wrapping quotes and whitespace models like to add.
func CleanCorrection(raw string) string {
	s := strings.TrimSpace(raw)
	for _, q := range []string{`"`, "'", "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(s) >= len(q)+len(closing) && strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) {
			s = strings.TrimSpace(s[len(q) : len(s)-len(closing)])
			break
		}
	}
	return s
}
