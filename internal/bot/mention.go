package bot

import (
	"slices"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// isBotMentioned checks if the bot is mentioned in a text message.
func isBotMentioned(textMsg webhook.TextMessageContent) bool {
	if textMsg.Mention == nil {
		return false
	}
	for _, mentionee := range textMsg.Mention.Mentionees {
		if um, ok := mentionee.(webhook.UserMentionee); ok && um.IsSelf {
			return true
		}
	}
	return false
}

// mentionSpan is a user mention inside the text, in rune offsets.
type mentionSpan struct {
	start, end int
	userID     string
	self       bool
}

// tokenizeMessage splits a LINE text message into tokens. Mentions of the
// bot are dropped; mentions of other users become a single token carrying
// the user ID. LINE reports mention offsets in UTF-16 code units, which
// match rune offsets for everything outside the astral planes.
func tokenizeMessage(text string, mention *webhook.Mention) []Token {
	var spans []mentionSpan
	if mention != nil {
		for _, m := range mention.Mentionees {
			um, ok := m.(webhook.UserMentionee)
			if !ok {
				continue
			}
			spans = append(spans, mentionSpan{
				start:  int(um.Index),
				end:    int(um.Index + um.Length),
				userID: um.UserId,
				self:   um.IsSelf,
			})
		}
	}
	if len(spans) == 0 {
		return Tokenize(text)
	}

	slices.SortFunc(spans, func(a, b mentionSpan) int { return a.start - b.start })

	runes := []rune(text)
	var tokens []Token
	pos := 0
	for _, sp := range spans {
		start := max(sp.start, pos)
		end := min(sp.end, len(runes))
		if start >= end {
			continue
		}
		tokens = append(tokens, Tokenize(string(runes[pos:start]))...)
		if !sp.self {
			display := strings.TrimSpace(string(runes[start:end]))
			tokens = append(tokens, Token{Text: display, UserID: sp.userID})
		}
		pos = end
	}
	return append(tokens, Tokenize(string(runes[pos:]))...)
}

// ExpectsReply reports whether a message event may get an answer: any text
// in a 1:1 chat, and in groups only prefixed commands or mentions of the
// bot.
func ExpectsReply(event webhook.MessageEvent) bool {
	textMsg, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return false
	}
	if SourceOf(event.Source).Personal || isBotMentioned(textMsg) {
		return true
	}
	text := strings.TrimSpace(textMsg.Text)
	return strings.HasPrefix(text, "/") || strings.HasPrefix(text, "!")
}
