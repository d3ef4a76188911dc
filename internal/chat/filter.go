// AngelaMos | 2026
// filter.go

package chat

import (
	"regexp"
	"strings"
)

// FilteredReply is sent instead of an answer when a message is blocked.
const FilteredReply = "I'm sorry, but I can't answer that question. Let's talk about something else! " +
	"You can ask me about animals, space, dinosaurs, and many other fun topics!"

var blockedKeywords = []string{
	"sex", "sexy", "naked", "nude", "porn", "pornography", "kill", "killing",
	"murder", "drug", "cocaine", "heroin", "meth", "methamphetamine", "suicide",
	"die", "death", "weapon", "gun", "bomb", "terror", "terrorist", "fuck",
	"shit", "damn", "ass", "hell", "bitch", "cunt", "dick", "penis", "vagina",
	"nsfw", "adult", "xxx",
}

// ContentFilter blocks messages containing any keyword as a whole word,
// ignoring case.
type ContentFilter struct {
	pattern *regexp.Regexp
}

func NewContentFilter(keywords ...string) *ContentFilter {
	if len(keywords) == 0 {
		keywords = blockedKeywords
	}

	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(k))
	}

	return &ContentFilter{
		pattern: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Check returns the first blocked keyword found in message, if any.
func (f *ContentFilter) Check(message string) (string, bool) {
	match := f.pattern.FindString(strings.ToLower(message))
	return match, match != ""
}
