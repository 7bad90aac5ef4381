// Package calendar renders the month grid used to pick check-in and
// check-out dates. Rendering is a pure function of its inputs.
package calendar

import (
	"fmt"
	"strconv"
	"time"

	"airbnb-bot/models"
)

// ActionKind says what pressing a cell does.
type ActionKind int

const (
	ActionIgnore ActionKind = iota
	ActionSelect
	ActionNavigate
)

// Action is attached to every cell. Date is set for ActionSelect,
// Year/Month for ActionNavigate.
type Action struct {
	Kind  ActionKind
	Date  models.Date
	Year  int
	Month time.Month
}

// Cell is one button of the grid.
type Cell struct {
	Label    string
	Day      int
	Disabled bool
	Action   Action
}

// Grid is a rendered month: a title row, a week-day header, one row per
// calendar week and a navigation footer.
type Grid struct {
	Year     int
	Month    time.Month
	Title    Cell
	Weekdays []Cell
	Weeks    [][]Cell
	Prev     Cell
	Next     Cell
}

var weekdayNames = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Render builds the grid for year/month. Days strictly before today are
// disabled; "previous" navigation is only offered when the previous month
// is not before today's month.
func Render(year int, month time.Month, today models.Date) Grid {
	first := models.NewDate(year, month, 1)
	year, month = first.Year, first.Month

	g := Grid{
		Year:  year,
		Month: month,
		Title: Cell{Label: fmt.Sprintf("%s %d", month, year), Disabled: true},
	}
	for _, name := range weekdayNames {
		g.Weekdays = append(g.Weekdays, Cell{Label: name, Disabled: true})
	}

	// Monday-first offset of the 1st.
	offset := (int(first.Time().Weekday()) + 6) % 7
	days := daysIn(year, month)

	week := make([]Cell, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, blank())
	}
	for day := 1; day <= days; day++ {
		week = append(week, dayCell(models.Date{Year: year, Month: month, Day: day}, today))
		if len(week) == 7 {
			g.Weeks = append(g.Weeks, week)
			week = make([]Cell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, blank())
		}
		g.Weeks = append(g.Weeks, week)
	}

	prevYear, prevMonth := shift(year, month, -1)
	if CanDisplay(prevYear, prevMonth, today) {
		g.Prev = Cell{Label: "<<", Action: Action{Kind: ActionNavigate, Year: prevYear, Month: prevMonth}}
	} else {
		g.Prev = blank()
	}
	nextYear, nextMonth := shift(year, month, 1)
	g.Next = Cell{Label: ">>", Action: Action{Kind: ActionNavigate, Year: nextYear, Month: nextMonth}}

	return g
}

// CanDisplay reports whether year/month is not strictly before today's month.
func CanDisplay(year int, month time.Month, today models.Date) bool {
	if year != today.Year {
		return year > today.Year
	}
	return month >= today.Month
}

// Mark flags d as the selected day, if it is shown in this grid.
func (g *Grid) Mark(d models.Date) {
	if d.Year != g.Year || d.Month != g.Month {
		return
	}
	for _, week := range g.Weeks {
		for i := range week {
			if week[i].Day == d.Day && !week[i].Disabled {
				week[i].Label = "✓" + strconv.Itoa(d.Day)
			}
		}
	}
}

// Rows flattens the grid in display order.
func (g Grid) Rows() [][]Cell {
	rows := make([][]Cell, 0, len(g.Weeks)+3)
	rows = append(rows, []Cell{g.Title}, g.Weekdays)
	rows = append(rows, g.Weeks...)
	rows = append(rows, []Cell{g.Prev, g.Next})
	return rows
}

// Cells returns every day cell of the month, in order.
func (g Grid) Cells() []Cell {
	var cells []Cell
	for _, week := range g.Weeks {
		for _, c := range week {
			if c.Day > 0 {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func dayCell(d, today models.Date) Cell {
	if d.Before(today) {
		return Cell{Label: "✗", Day: d.Day, Disabled: true}
	}
	return Cell{
		Label:  strconv.Itoa(d.Day),
		Day:    d.Day,
		Action: Action{Kind: ActionSelect, Date: d},
	}
}

func blank() Cell {
	return Cell{Label: " ", Disabled: true}
}

func shift(year int, month time.Month, delta int) (int, time.Month) {
	d := models.NewDate(year, month+time.Month(delta), 1)
	return d.Year, d.Month
}

func daysIn(year int, month time.Month) int {
	return models.NewDate(year, month+1, 0).Day
}
