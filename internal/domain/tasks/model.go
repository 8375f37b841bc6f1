// Package tasks is the contractor's to-do list with due dates and subtasks.
package tasks

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Низкий"
	case PriorityHigh:
		return "Высокий"
	default:
		return "Средний"
	}
}

type Subtask struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Attachment struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	DataURL string `json:"dataUrl"`
	Type    string `json:"type"`
}

// Task.DueDate is YYYY-MM-DD or empty for "no date".
type Task struct {
	ID          int64        `json:"id"`
	Text        string       `json:"text"`
	Completed   bool         `json:"completed"`
	DueDate     string       `json:"dueDate,omitempty"`
	ProjectID   *int64       `json:"projectId,omitempty"`
	Priority    Priority     `json:"priority,omitempty"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Comments    string       `json:"comments,omitempty"`
}

// PriorityOrDefault treats a missing priority as medium.
func (t Task) PriorityOrDefault() Priority {
	if t.Priority == "" {
		return PriorityMedium
	}
	return t.Priority
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterWeek      Filter = "week"
	FilterOverdue   Filter = "overdue"
	FilterCompleted Filter = "completed"
)

func ParseFilter(s string) (Filter, bool) {
	switch f := Filter(s); f {
	case FilterAll, FilterToday, FilterWeek, FilterOverdue, FilterCompleted:
		return f, true
	case "":
		return FilterAll, true
	}
	return "", false
}

// Group names, in display order.
const (
	GroupOverdue   = "Просроченные"
	GroupToday     = "Сегодня"
	GroupTomorrow  = "Завтра"
	GroupThisWeek  = "На этой неделе"
	GroupUpcoming  = "Предстоящие"
	GroupNoDate    = "Без срока"
	GroupCompleted = "Выполненные"
)

var GroupOrder = []string{GroupOverdue, GroupToday, GroupTomorrow, GroupThisWeek, GroupUpcoming, GroupNoDate}

type Group struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}
