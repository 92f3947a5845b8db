/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package locale provides the calendar vocabularies (month, weekday and
// meridiem names) and week-numbering rules used to label and lay out calendar
// heatmaps.
//
// Week numbering follows the common two-parameter scheme: a locale names the
// weekday on which its weeks start, and a day of January that always falls in
// week 1 of its year.  Day 1 gives the US rule (the week containing January 1
// is week 1); day 4 with a Monday start gives ISO 8601 weeks.
package locale

import (
	"time"

	"golang.org/x/text/language"
)

// Locale describes one locale's calendar conventions.
type Locale struct {
	// Tag is the BCP 47 tag of the locale.
	Tag language.Tag
	// Month names, January first.
	Months, MonthsShort [12]string
	// Weekday names, indexed by time.Weekday (Sunday first).
	Weekdays, WeekdaysShort [7]string
	// Ante- and post-meridiem markers.
	AM, PM string
	// The weekday weeks start on.
	FirstWeekday time.Weekday
	// The day of January, 1 through 7, that is always in week 1.
	FirstWeekDay int
}

var englishMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var englishMonthsShort = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var englishWeekdays = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

var englishWeekdaysShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var (
	// AmericanEnglish is the default locale: Sunday-start weeks, week 1
	// containing January 1.
	AmericanEnglish = &Locale{
		Tag:           language.AmericanEnglish,
		Months:        englishMonths,
		MonthsShort:   englishMonthsShort,
		Weekdays:      englishWeekdays,
		WeekdaysShort: englishWeekdaysShort,
		AM:            "AM",
		PM:            "PM",
		FirstWeekday:  time.Sunday,
		FirstWeekDay:  1,
	}
	// BritishEnglish uses English names with ISO 8601 weeks.
	BritishEnglish = &Locale{
		Tag:           language.BritishEnglish,
		Months:        englishMonths,
		MonthsShort:   englishMonthsShort,
		Weekdays:      englishWeekdays,
		WeekdaysShort: englishWeekdaysShort,
		AM:            "AM",
		PM:            "PM",
		FirstWeekday:  time.Monday,
		FirstWeekDay:  4,
	}
	German = &Locale{
		Tag: language.German,
		Months: [12]string{
			"Januar", "Februar", "März", "April", "Mai", "Juni",
			"Juli", "August", "September", "Oktober", "November", "Dezember",
		},
		MonthsShort: [12]string{
			"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sep.", "Okt.", "Nov.", "Dez.",
		},
		Weekdays: [7]string{
			"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag",
		},
		WeekdaysShort: [7]string{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
		AM:            "AM",
		PM:            "PM",
		FirstWeekday:  time.Monday,
		FirstWeekDay:  4,
	}
	French = &Locale{
		Tag: language.French,
		Months: [12]string{
			"janvier", "février", "mars", "avril", "mai", "juin",
			"juillet", "août", "septembre", "octobre", "novembre", "décembre",
		},
		MonthsShort: [12]string{
			"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc.",
		},
		Weekdays: [7]string{
			"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
		},
		WeekdaysShort: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
		AM:            "PD",
		PM:            "MD",
		FirstWeekday:  time.Monday,
		FirstWeekDay:  4,
	}
)

// supported lists the known locales; the first is the fallback.
var supported = []*Locale{AmericanEnglish, BritishEnglish, German, French}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = l.Tag
	}
	return language.NewMatcher(tags)
}()

// Match returns the supported locale best matching the provided BCP 47 tags
// or Accept-Language strings, falling back to AmericanEnglish.
func Match(names ...string) *Locale {
	_, idx := language.MatchStrings(matcher, names...)
	if idx < 0 || idx >= len(supported) {
		return AmericanEnglish
	}
	return supported[idx]
}

// MonthNames returns the twelve month names, January first.
func (l *Locale) MonthNames(short bool) []string {
	src := l.Months
	if short {
		src = l.MonthsShort
	}
	return append([]string{}, src[:]...)
}

// WeekdayNames returns the seven weekday names, starting at the locale's
// first weekday.
func (l *Locale) WeekdayNames(short bool) []string {
	src := l.Weekdays
	if short {
		src = l.WeekdaysShort
	}
	ret := make([]string, 7)
	for i := range ret {
		ret[i] = src[(int(l.FirstWeekday)+i)%7]
	}
	return ret
}

// MeridiemNames returns the AM and PM markers, in that order.
func (l *Locale) MeridiemNames() []string {
	return []string{l.AM, l.PM}
}

// MonthLabel returns the name of t's month.
func (l *Locale) MonthLabel(t time.Time, short bool) string {
	if short {
		return l.MonthsShort[t.Month()-1]
	}
	return l.Months[t.Month()-1]
}

// WeekdayLabel returns the name of t's weekday.
func (l *Locale) WeekdayLabel(t time.Time, short bool) string {
	if short {
		return l.WeekdaysShort[t.Weekday()]
	}
	return l.Weekdays[t.Weekday()]
}

// MeridiemLabel returns the AM or PM marker for t.
func (l *Locale) MeridiemLabel(t time.Time) string {
	if t.Hour() < 12 {
		return l.AM
	}
	return l.PM
}

// WeekdayIndex returns t's position within its week, 0 through 6, counting
// from the locale's first weekday.
func (l *Locale) WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) - int(l.FirstWeekday) + 7) % 7
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// firstWeekOffset returns the day-of-year offset, possibly negative, of the
// day before week 1 of year begins.
func (l *Locale) firstWeekOffset(year int) int {
	fwd := l.FirstWeekDay
	anchor := time.Date(year, time.January, fwd, 0, 0, 0, 0, time.UTC)
	back := (7 + int(anchor.Weekday()) - int(l.FirstWeekday)) % 7
	return fwd - back - 1
}

// WeeksInYear returns the number of locale weeks, 52 or 53, in year.
func (l *Locale) WeeksInYear(year int) int {
	return (daysInYear(year) - l.firstWeekOffset(year) + l.firstWeekOffset(year+1)) / 7
}

// Week returns t's week of year under the locale's rules.  Days late in
// December may be in week 1 of the following year, and days early in January
// in the last week of the preceding year.
func (l *Locale) Week(t time.Time) int {
	year := t.Year()
	week := floorDiv(t.YearDay()-l.firstWeekOffset(year)-1, 7) + 1
	if week < 1 {
		return week + l.WeeksInYear(year-1)
	}
	if n := l.WeeksInYear(year); week > n {
		return week - n
	}
	return week
}

// civilDays returns the number of calendar days from a's date to b's date,
// each taken in its own location.
func civilDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// WeeksBetween returns the number of locale week boundaries crossed going
// from a to b; it is negative if b precedes a's week.  When a and b share a
// week-year it equals Week(b) - Week(a).
func (l *Locale) WeeksBetween(a, b time.Time) int {
	return floorDiv(civilDays(a, b)+l.WeekdayIndex(a), 7)
}
