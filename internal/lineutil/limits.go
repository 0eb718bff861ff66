package lineutil

// LINE API Character Limits (Rune count)
// References: https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength = 5000 // Text message max content length
	MaxAltTextLength     = 400  // Flex message alt text length
	MaxPostbackData      = 300  // Postback action data length
	MaxActionLabel       = 40   // Action label shown on a Flex button

	// Quick Reply Limits
	MaxQuickReplyItemCount = 13
)

// MaxOptionButtons is how many option buttons one bubble carries before a
// selection spills into the next bubble of the carousel.
const MaxOptionButtons = 10
