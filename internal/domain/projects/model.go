package projects

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Project struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Client  string `json:"client"`
	Address string `json:"address"`
	Status  Status `json:"status"`
}
