package webapp

import (
	"fmt"
	"net/url"
	"strings"
)

// Links строит ссылки на мини-приложение для кнопок бота.
type Links struct {
	baseURL string
}

func NewLinks(baseURL string) *Links {
	return &Links{baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Links) Enabled() bool { return l != nil && l.baseURL != "" }

func (l *Links) Home() string { return l.baseURL + "/" }

// Estimate opens the mini-app on one estimate.
func (l *Links) Estimate(id int64) string {
	return fmt.Sprintf("%s/?estimate=%d", l.baseURL, id)
}

// Project opens the project card.
func (l *Links) Project(id int64) string {
	q := url.Values{"view": {"projectDetail"}, "project": {fmt.Sprint(id)}}
	return l.baseURL + "/?" + q.Encode()
}
