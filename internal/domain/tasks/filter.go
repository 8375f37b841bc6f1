package tasks

import "time"

const dateLayout = "2006-01-02"

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfWeek is the coming Sunday; on a Sunday it is the next one.
func endOfWeek(today time.Time) time.Time {
	return today.AddDate(0, 0, 7-int(today.Weekday()))
}

func due(t Task) (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Apply keeps the tasks matching f. Completed tasks are shown only by FilterCompleted;
// tasks without a (parseable) due date only by FilterAll.
func Apply(list []Task, f Filter, now time.Time) []Task {
	today := day(now)
	week := endOfWeek(today)
	out := []Task{}
	for _, t := range list {
		if f == FilterCompleted {
			if t.Completed {
				out = append(out, t)
			}
			continue
		}
		if t.Completed {
			continue
		}
		if f == FilterAll {
			out = append(out, t)
			continue
		}
		d, ok := due(t)
		if !ok {
			continue
		}
		switch f {
		case FilterToday:
			ok = d.Equal(today)
		case FilterWeek:
			ok = !d.Before(today) && !d.After(week)
		case FilterOverdue:
			ok = d.Before(today)
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// GroupBy filters and buckets tasks by due date. Empty groups are omitted.
func GroupBy(list []Task, f Filter, now time.Time) []Group {
	filtered := Apply(list, f, now)
	if f == FilterCompleted {
		return []Group{{Name: GroupCompleted, Tasks: filtered}}
	}

	today := day(now)
	tomorrow := today.AddDate(0, 0, 1)
	week := endOfWeek(today)

	buckets := map[string][]Task{}
	for _, t := range filtered {
		d, ok := due(t)
		var g string
		switch {
		case !ok:
			g = GroupNoDate
		case d.Before(today):
			g = GroupOverdue
		case d.Equal(today):
			g = GroupToday
		case d.Equal(tomorrow):
			g = GroupTomorrow
		case !d.After(week):
			g = GroupThisWeek
		default:
			g = GroupUpcoming
		}
		buckets[g] = append(buckets[g], t)
	}

	var out []Group
	for _, name := range GroupOrder {
		if len(buckets[name]) > 0 {
			out = append(out, Group{Name: name, Tasks: buckets[name]})
		}
	}
	return out
}
