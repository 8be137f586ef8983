// Package locale holds the two string tables used by the rating widget and
// the count-noun plural rule.
package locale

import (
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Attr is the body attribute the site uses to announce the interface language.
const Attr = "data-locale"

// Locale selects a string table. The zero value is Default (English).
type Locale int

const (
	Default Locale = iota
	Russian
)

// Parse maps the data-locale attribute value to a Locale. Only "ru" selects
// Russian.
func Parse(attr string) Locale {
	if attr == "ru" {
		return Russian
	}
	return Default
}

func (l Locale) String() string {
	if l == Russian {
		return "ru"
	}
	return "en"
}

// Tag returns the language tag used for plural rules.
func (l Locale) Tag() language.Tag {
	if l == Russian {
		return language.Russian
	}
	return language.English
}

type table struct {
	labels  [11]string
	noData  string
	source  string
	counter string // %s receives the count markup, %s the count noun
	one     string
	other   string
}

var tables = map[Locale]table{
	Default: {
		labels: [11]string{
			"", "Worst Ever", "Terrible", "Very Bad", "Bad", "So-so",
			"Fine", "Good", "Excellent", "Great", "Masterpiece!",
		},
		noData:  "Insufficient data",
		source:  "From MAL users",
		counter: "From %s shiki %s",
		one:     "user",
		other:   "users",
	},
	Russian: {
		labels: [11]string{
			"", "Хуже некуда", "Ужасно", "Очень плохо", "Плохо", "Более-менее",
			"Нормально", "Хорошо", "Отлично", "Великолепно", "Эпик вин!",
		},
		noData:  "Недостаточно данных",
		source:  "На основе оценок mal",
		counter: "На основе %s %s shiki",
		one:     "оценки",
		other:   "оценок",
	},
}

func (l Locale) table() table {
	if t, ok := tables[l]; ok {
		return t
	}
	return tables[Default]
}

// Label returns the descriptive label for a rounded score. Score 0 and
// out-of-range values have no label.
func (l Locale) Label(rounded int) string {
	labels := l.table().labels
	if rounded < 0 || rounded >= len(labels) {
		return ""
	}
	return labels[rounded]
}

// NoData is the placeholder text shown when the page has no usable votes.
func (l Locale) NoData() string { return l.table().noData }

// SourceCaption attributes the site's native score to MAL.
func (l Locale) SourceCaption() string { return l.table().source }

// CounterCaption attributes the computed score to its voters. countMarkup is
// inserted verbatim in place of the number.
func (l Locale) CounterCaption(votes int, countMarkup string) string {
	return fmt.Sprintf(l.table().counter, countMarkup, l.VoteNoun(votes))
}

// VoteNoun returns the count noun agreeing with votes.
func (l Locale) VoteNoun(votes int) string {
	t := l.table()
	if IsSingular(l.Tag(), votes) {
		return t.one
	}
	return t.other
}

// IsSingular reports whether n takes the singular ("one") cardinal form in
// lang. For Russian that is n%10 == 1 except 11..19 in the last two digits.
func IsSingular(lang language.Tag, n int) bool {
	if n < 0 {
		n = -n
	}
	return plural.Cardinal.MatchPlural(lang, n, 0, 0, 0, 0) == plural.One
}
