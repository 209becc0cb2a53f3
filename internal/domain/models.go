package domain

import "time"

// Domain contains core models shared by fetchers, the assembler and publishers.

// FeedEntry is a single item as supplied by a feed source.
type FeedEntry struct {
	Title     string
	Link      string
	Published *time.Time
}

// Feed is one polled source with its entries ordered most-recent-first.
type Feed struct {
	ID      string
	Title   string
	Entries []FeedEntry
}

// DisplayTitle returns the feed title, falling back to its id.
func (f Feed) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.ID
}

// Registration is the outcome of an insert-if-absent against the dedup store.
type Registration int

const (
	AlreadyRegistered Registration = iota
	NewlyRegistered
)

func (r Registration) String() string {
	switch r {
	case NewlyRegistered:
		return "newly_registered"
	default:
		return "already_registered"
	}
}

// Block types used in the structured digest payload.
const (
	BlockHeader  = "header"
	BlockDivider = "divider"
	BlockSection = "section"

	TextPlain    = "plain_text"
	TextMarkdown = "mrkdwn"
)

// TextObject is the text body of a header or section block.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Block is a single element of a structured digest.
type Block struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// DigestMessage is the single outbound payload of a run. Exactly one of
// Blocks or Text is set.
type DigestMessage struct {
	Blocks []Block `json:"blocks,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// TextMessage builds a plain text payload.
func TextMessage(text string) DigestMessage {
	return DigestMessage{Text: text}
}

// IsStructured reports whether the message carries blocks.
func (m DigestMessage) IsStructured() bool {
	return len(m.Blocks) > 0
}

// Message kinds reported by a run.
const (
	KindDigest   = "digest"
	KindFallback = "fallback"
	KindError    = "error"
)
