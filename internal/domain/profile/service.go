// Package profile keeps the company header printed on exported estimates.
package profile

import (
	"context"
	"strings"

	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

type Profile struct {
	Name    string  `json:"name"`
	Details string  `json:"details"`
	Logo    *string `json:"logo"` // data URL
}

// Empty reports whether there is nothing to print.
func (p Profile) Empty() bool {
	return strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Details) == "" && p.Logo == nil
}

type Service struct{ docs *kv.Docs }

func NewService(docs *kv.Docs) *Service { return &Service{docs: docs} }

// Get returns the stored profile or an empty one.
func (s *Service) Get(ctx context.Context, owner int64) Profile {
	var p Profile
	kv.Read(ctx, s.docs, owner, kv.KeyCompanyProfile, &p)
	return p
}

func (s *Service) Save(ctx context.Context, owner int64, p Profile) (Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Details = strings.TrimSpace(p.Details)
	if p.Logo != nil && *p.Logo == "" {
		p.Logo = nil
	}
	if err := kv.Write(ctx, s.docs, owner, kv.KeyCompanyProfile, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// SetLogo replaces only the logo; nil removes it.
func (s *Service) SetLogo(ctx context.Context, owner int64, dataURL *string) (Profile, error) {
	unlock := s.docs.Lock(owner, kv.KeyCompanyProfile)
	defer unlock()
	p := s.Get(ctx, owner)
	p.Logo = dataURL
	return s.Save(ctx, owner, p)
}
