package finance

type EntryType string

const (
	TypeExpense EntryType = "expense"
	TypePayment EntryType = "payment" // оплата от клиента
)

type Entry struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	Type        EntryType `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date"`
	Receipt     *string   `json:"receipt,omitempty"` // data URL
}

type Summary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}
