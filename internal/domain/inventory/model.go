package inventory

// DefaultLocation is where a new tool is kept until it is moved.
const DefaultLocation = "На базе"

type Condition string

const (
	ConditionGood   Condition = "good"
	ConditionRepair Condition = "needs_repair"
	ConditionBroken Condition = "broken"
)

// Movement is one entry of a tool's history: from -> to.
type Movement struct {
	Date  string `json:"date"`
	From  string `json:"from"`
	To    string `json:"to"`
	Notes string `json:"notes,omitempty"`
}

type Tool struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Location        string     `json:"location"`
	Photo           *string    `json:"photo,omitempty"`
	Condition       Condition  `json:"condition,omitempty"`
	MovementHistory []Movement `json:"movementHistory"`
}

type Note struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Date string `json:"date"`
}
