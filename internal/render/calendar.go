package render

import "time"

// DayState classifies one cell of the attendance month grid.
type DayState string

const (
	// DayBlank pads the grid before the first and after the last day.
	DayBlank DayState = ""
	// DayPresent marks a date found in the attended set.
	DayPresent DayState = "present"
	// DayAbsent marks a past weekday without attendance.
	DayAbsent DayState = "absent"
	// DayNonWorking marks weekends and future dates.
	DayNonWorking DayState = "non-working"
)

// Day is one cell of the month grid. Day is zero for padding cells.
type Day struct {
	Day   int      `json:"day"`
	Date  string   `json:"date,omitempty"`
	State DayState `json:"state"`
}

// Month is a rendered calendar: full weeks, Sunday first.
type Month struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Weeks [][]Day `json:"weeks"`
}

// MonthGrid renders the month containing today from a set of attended ISO
// dates. Past weekdays without attendance are absent, weekends and days after
// today are non-working.
func MonthGrid(attendedDates []string, today time.Time) Month {
	attended := make(map[string]bool, len(attendedDates))
	for _, d := range attendedDates {
		attended[d] = true
	}

	year, month, _ := today.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	startDay := int(first.Weekday()) // Sunday = 0

	out := Month{Year: year, Month: int(month)}
	week := make([]Day, 0, 7)
	for i := 0; i < startDay; i++ {
		week = append(week, Day{State: DayBlank})
	}

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, today.Location())
		cell := Day{Day: day, Date: date.Format("2006-01-02")}
		switch {
		case date.After(today):
			cell.State = DayNonWorking
		case attended[cell.Date]:
			cell.State = DayPresent
		case isWeekday(date.Weekday()):
			cell.State = DayAbsent
		default:
			cell.State = DayNonWorking
		}
		week = append(week, cell)
		if len(week) == 7 {
			out.Weeks = append(out.Weeks, week)
			week = make([]Day, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Day{State: DayBlank})
		}
		out.Weeks = append(out.Weeks, week)
	}
	return out
}

func isWeekday(wd time.Weekday) bool {
	return wd != time.Saturday && wd != time.Sunday
}
