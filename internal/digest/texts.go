package digest

import (
	"fmt"
	"time"
)

// Supported text locales. An empty locale means English.
const (
	LocaleEnglish  = "en"
	LocaleJapanese = "ja"
)

// Texts holds the dated sentences of a run.
type Texts struct {
	Header   string
	Fallback string
	Error    string
}

// NewTexts renders the English texts for the calendar day of now in loc.
func NewTexts(now time.Time, loc *time.Location) Texts {
	return NewLocalizedTexts(now, loc, LocaleEnglish)
}

// NewLocalizedTexts renders the texts in locale. Unknown locales fall back
// to English.
func NewLocalizedTexts(now time.Time, loc *time.Location, locale string) Texts {
	if loc == nil {
		loc = time.UTC
	}
	day := now.In(loc)

	if locale == LocaleJapanese {
		jp := fmt.Sprintf("%d年%d月%d日", day.Year(), int(day.Month()), day.Day())
		return Texts{
			Header:   jp + "の新着記事",
			Fallback: jp + "の新着記事はありません",
			Error:    jp + "の記事取得でエラーが発生しました",
		}
	}

	en := day.Format("January 2, 2006")
	return Texts{
		Header:   "New articles for " + en,
		Fallback: "No new articles for " + en,
		Error:    "An error occurred while fetching articles for " + en,
	}
}

// SupportedLocale reports whether locale has its own texts. Empty is allowed.
func SupportedLocale(locale string) bool {
	switch locale {
	case "", LocaleEnglish, LocaleJapanese:
		return true
	}
	return false
}
