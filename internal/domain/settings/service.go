// Package settings holds per-user preferences.
package settings

import (
	"context"
	"errors"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

const DefaultTheme = ThemeDark

var ErrUnknownTheme = errors.New("settings: unknown theme")

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeDark, ThemeLight:
		return t, nil
	}
	return "", ErrUnknownTheme
}

type Service struct{ docs *kv.Docs }

func NewService(docs *kv.Docs) *Service { return &Service{docs: docs} }

// Theme is stored as a bare JSON string; anything unknown reads as the default.
func (s *Service) Theme(ctx context.Context, owner int64) Theme {
	var v string
	if !kv.Read(ctx, s.docs, owner, kv.KeyTheme, &v) {
		return DefaultTheme
	}
	t, err := ParseTheme(v)
	if err != nil {
		return DefaultTheme
	}
	return t
}

func (s *Service) SetTheme(ctx context.Context, owner int64, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return kv.Write(ctx, s.docs, owner, kv.KeyTheme, string(t))
}

func (s *Service) ToggleTheme(ctx context.Context, owner int64) (Theme, error) {
	unlock := s.docs.Lock(owner, kv.KeyTheme)
	defer unlock()
	next := ThemeLight
	if s.Theme(ctx, owner) == ThemeLight {
		next = ThemeDark
	}
	if err := s.SetTheme(ctx, owner, next); err != nil {
		return "", err
	}
	return next, nil
}
