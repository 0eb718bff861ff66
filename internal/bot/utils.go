package bot

import "strings"

// PostbackSplitChar is the delimiter used to separate fields in postback data.
// Example: "bet:option$12$1" where "$" is the split character. Parameters
// must not contain it; there is no escaping.
const PostbackSplitChar = "$"

// JoinPostback joins postback fields with PostbackSplitChar.
func JoinPostback(first string, rest ...string) string {
	if len(rest) == 0 {
		return first
	}
	return first + PostbackSplitChar + strings.Join(rest, PostbackSplitChar)
}

// commandPrefixes mark an explicit command in chats where bare names are ignored.
var commandPrefixes = []string{"/", "!"}

// splitCommand strips a command prefix from the first word.
// It reports whether a prefix was present.
func splitCommand(word string) (name string, prefixed bool) {
	for _, p := range commandPrefixes {
		if rest, ok := strings.CutPrefix(word, p); ok {
			return rest, true
		}
	}
	return word, false
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
