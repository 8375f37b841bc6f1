package photos

type Report struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	Image     string `json:"image"` // data URL
	Caption   string `json:"caption"`
	Date      string `json:"date"`
	TakenAt   string `json:"takenAt,omitempty"` // из EXIF, если есть
}
