package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Inline calendar tokens. Navigation re-renders the grid in place;
// day selection feeds a date into the active conversation.
const (
	tokenIgnore    = "ignore"
	tokenNavPrefix = "calendar_nav_"
	tokenDayPrefix = "calendar_day_"
)

// weekdayLabels is the Monday-first header row.
var weekdayLabels = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// monthNames indexes Russian month names by time.Month.
var monthNames = [...]string{
	"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// CalendarEventKind classifies a decoded calendar interaction.
type CalendarEventKind int

const (
	// CalendarIgnore marks inert cells (header, weekday labels, padding).
	CalendarIgnore CalendarEventKind = iota
	// CalendarNavigate re-renders the grid for another month.
	CalendarNavigate
	// CalendarDaySelected is a concrete day pick.
	CalendarDaySelected
)

// CalendarEvent is a decoded calendar interaction token.
type CalendarEvent struct {
	Kind  CalendarEventKind
	Year  int
	Month time.Month
	Day   int
}

// IsCalendarToken reports whether token belongs to the calendar widget.
func IsCalendarToken(token string) bool {
	return token == tokenIgnore ||
		strings.HasPrefix(token, tokenNavPrefix) ||
		strings.HasPrefix(token, tokenDayPrefix)
}

// RenderCalendar builds the inline month grid for the given year/month.
// Zero values default to the current month. Layout: title row, weekday
// row, up to six day rows, and a navigation row with previous month /
// today / next month targets.
func RenderCalendar(year int, month time.Month, now time.Time) InlineKeyboard {
	if now.IsZero() {
		now = time.Now()
	}
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}

	title := fmt.Sprintf("%s %d", monthNames[month], year)
	rows := [][]InlineButton{
		{{Label: title, Token: tokenIgnore}},
	}

	weekdays := make([]InlineButton, len(weekdayLabels))
	for i, l := range weekdayLabels {
		weekdays[i] = InlineButton{Label: l, Token: tokenIgnore}
	}
	rows = append(rows, weekdays)

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	monthDays := daysInMonth(year, month)
	firstWeekday := (int(first.Weekday()) + 6) % 7 // Monday-first offset

	day := 1
	for week := 0; week < 6 && day <= monthDays; week++ {
		row := make([]InlineButton, 7)
		for weekday := 0; weekday < 7; weekday++ {
			if (week == 0 && weekday < firstWeekday) || day > monthDays {
				row[weekday] = InlineButton{Label: " ", Token: tokenIgnore}
				continue
			}
			row[weekday] = InlineButton{
				Label: strconv.Itoa(day),
				Token: fmt.Sprintf("%s%d_%d_%d", tokenDayPrefix, year, int(month), day),
			}
			day++
		}
		rows = append(rows, row)
	}

	prevYear, prevMonth := year, month-1
	if month == time.January {
		prevYear, prevMonth = year-1, time.December
	}
	nextYear, nextMonth := year, month+1
	if month == time.December {
		nextYear, nextMonth = year+1, time.January
	}

	rows = append(rows, []InlineButton{
		{Label: "◀️", Token: fmt.Sprintf("%s%d_%d", tokenNavPrefix, prevYear, int(prevMonth))},
		{Label: "Сегодня", Token: fmt.Sprintf("%s%d_%d", tokenNavPrefix, now.Year(), int(now.Month()))},
		{Label: "▶️", Token: fmt.Sprintf("%s%d_%d", tokenNavPrefix, nextYear, int(nextMonth))},
	})

	return InlineKeyboard{Rows: rows}
}

// DecodeCalendarToken parses a calendar interaction token. Malformed and
// inert tokens decode to CalendarIgnore.
func DecodeCalendarToken(token string) CalendarEvent {
	switch {
	case strings.HasPrefix(token, tokenNavPrefix):
		parts := strings.Split(strings.TrimPrefix(token, tokenNavPrefix), "_")
		if len(parts) != 2 {
			return CalendarEvent{Kind: CalendarIgnore}
		}
		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return CalendarEvent{Kind: CalendarIgnore}
		}
		return CalendarEvent{Kind: CalendarNavigate, Year: year, Month: time.Month(month)}

	case strings.HasPrefix(token, tokenDayPrefix):
		parts := strings.Split(strings.TrimPrefix(token, tokenDayPrefix), "_")
		if len(parts) != 3 {
			return CalendarEvent{Kind: CalendarIgnore}
		}
		year, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		day, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil ||
			month < 1 || month > 12 || day < 1 || day > daysInMonth(year, time.Month(month)) {
			return CalendarEvent{Kind: CalendarIgnore}
		}
		return CalendarEvent{Kind: CalendarDaySelected, Year: year, Month: time.Month(month), Day: day}

	default:
		return CalendarEvent{Kind: CalendarIgnore}
	}
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
