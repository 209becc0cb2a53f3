// Package digest builds the single outbound digest from fetched feeds,
// filtering every entry through the dedup store.
package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/pkg/urlnorm"
)

const (
	DefaultMaxProcess = 50
	DefaultMaxEntries = 10
)

// Limits bounds store calls and output size per feed.
type Limits struct {
	// MaxProcess is how many leading entries of a feed are considered.
	MaxProcess int `mapstructure:"max_process"`
	// MaxEntries is how many accepted entries a section may list.
	MaxEntries int `mapstructure:"max_entries"`
}

// DefaultLimits returns 50 processed / 10 listed.
func DefaultLimits() Limits {
	return Limits{MaxProcess: DefaultMaxProcess, MaxEntries: DefaultMaxEntries}
}

func (l Limits) withDefaults() Limits {
	if l.MaxProcess <= 0 {
		l.MaxProcess = DefaultMaxProcess
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	return l
}

// Registrar is the dedup store capability the assembler needs.
type Registrar interface {
	RegisterIfAbsent(ctx context.Context, normalizedURL string) (domain.Registration, error)
}

// Assembler turns feeds into a DigestMessage. It calls the registrar
// sequentially in feed order then entry order, so the first occurrence of a
// URL within a run wins.
type Assembler struct {
	store  Registrar
	limits Limits
	texts  Texts
	log    logger.Logger
}

// NewAssembler wires an assembler.
func NewAssembler(store Registrar, limits Limits, texts Texts, log logger.Logger) *Assembler {
	return &Assembler{
		store:  store,
		limits: limits.withDefaults(),
		texts:  texts,
		log:    logger.Ensure(log),
	}
}

// Assemble builds the digest. Any store failure aborts the whole assembly and
// no partial message is returned.
func (a *Assembler) Assemble(ctx context.Context, feeds []domain.Feed) (domain.DigestMessage, error) {
	var blocks []domain.Block

	for _, feed := range feeds {
		lines, err := a.acceptedLines(ctx, feed)
		if err != nil {
			return domain.DigestMessage{}, fmt.Errorf("assemble feed %s: %w", feed.ID, err)
		}
		if len(lines) == 0 {
			a.log.DebugObj("feed has no new entries", "digest_feed_empty", map[string]any{
				"feed_id": feed.ID,
			})
			continue
		}

		blocks = append(blocks, Divider(), Section(feed.DisplayTitle(), lines))
		a.log.InfoObj("feed section added", "digest_feed_section", map[string]any{
			"feed_id": feed.ID,
			"entries": len(lines),
		})
	}

	if len(blocks) == 0 {
		return domain.TextMessage(a.texts.Fallback), nil
	}
	return domain.DigestMessage{Blocks: append([]domain.Block{Header(a.texts.Header)}, blocks...)}, nil
}

// acceptedLines registers each candidate entry and returns the formatted lines
// of the newly registered ones, truncated to MaxEntries. Entries cut by the
// truncation stay registered.
func (a *Assembler) acceptedLines(ctx context.Context, feed domain.Feed) ([]string, error) {
	entries := feed.Entries
	if len(entries) > a.limits.MaxProcess {
		entries = entries[:a.limits.MaxProcess]
	}

	var lines []string
	for _, entry := range entries {
		if !urlnorm.IsValid(entry.Link) {
			a.log.WarnObj("invalid url skipped", "digest_invalid_url", map[string]any{
				"feed_id": feed.ID,
				"url":     entry.Link,
			})
			continue
		}

		normalized, err := urlnorm.Normalize(entry.Link)
		if err != nil {
			a.log.WarnObj("url normalization failed", "digest_invalid_url", map[string]any{
				"feed_id": feed.ID,
				"url":     entry.Link,
				"error":   err.Error(),
			})
			continue
		}

		reg, err := a.store.RegisterIfAbsent(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if reg == domain.AlreadyRegistered {
			continue
		}

		lines = append(lines, FormatLine(normalized, entry.Title))
	}

	if len(lines) > a.limits.MaxEntries {
		a.log.DebugObj("feed entries truncated", "digest_truncate", map[string]any{
			"feed_id":  feed.ID,
			"accepted": len(lines),
			"kept":     a.limits.MaxEntries,
		})
		lines = lines[:a.limits.MaxEntries]
	}
	return lines, nil
}

// FormatLine renders one entry as a Slack link bullet.
func FormatLine(link, title string) string {
	return "• <" + link + "|" + title + ">"
}

// Header returns the digest header block.
func Header(text string) domain.Block {
	return domain.Block{
		Type: domain.BlockHeader,
		Text: &domain.TextObject{Type: domain.TextPlain, Text: text, Emoji: true},
	}
}

// Divider returns a divider block.
func Divider() domain.Block {
	return domain.Block{Type: domain.BlockDivider}
}

// Section returns a markdown section with a bold title and one line per entry.
func Section(title string, lines []string) domain.Block {
	var b strings.Builder
	b.WriteString("*" + title + "*\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return domain.Block{
		Type: domain.BlockSection,
		Text: &domain.TextObject{Type: domain.TextMarkdown, Text: b.String()},
	}
}
