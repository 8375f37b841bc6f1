// Package backup exports every user document as one JSON file and restores it.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/smeta-bot/internal/domain/scratchpad"
	"github.com/Spok95/smeta-bot/internal/infra/kv"
)

var ErrMalformed = errors.New("backup: file is not a valid backup")

// Bundle is the backup file layout. Sections are kept raw so that a restore
// writes back exactly what was exported.
type Bundle struct {
	Estimates       json.RawMessage `json:"estimates"`
	Templates       json.RawMessage `json:"templates"`
	Projects        json.RawMessage `json:"projects"`
	FinanceEntries  json.RawMessage `json:"financeEntries"`
	PhotoReports    json.RawMessage `json:"photoReports"`
	Documents       json.RawMessage `json:"documents"`
	WorkStages      json.RawMessage `json:"workStages"`
	Notes           json.RawMessage `json:"notes"`
	LibraryItems    json.RawMessage `json:"libraryItems"`
	CompanyProfile  json.RawMessage `json:"companyProfile"`
	Tasks           json.RawMessage `json:"tasks"`
	ScratchpadItems json.RawMessage `json:"scratchpadItems"`
	InventoryItems  json.RawMessage `json:"inventoryItems"`
	InventoryNotes  json.RawMessage `json:"inventoryNotes"`
	GlobalDocuments json.RawMessage `json:"globalDocuments"`
	ThemeMode       json.RawMessage `json:"themeMode,omitempty"`
}

var (
	emptyList    = json.RawMessage(`[]`)
	emptyProfile = json.RawMessage(`{"name":"","details":"","logo":null}`)
)

// section binds a bundle field to its storage key.
type section struct {
	key   kv.Key
	field func(*Bundle) *json.RawMessage
	empty json.RawMessage
}

var sections = []section{
	{kv.KeyTemplates, func(b *Bundle) *json.RawMessage { return &b.Templates }, emptyList},
	{kv.KeyProjects, func(b *Bundle) *json.RawMessage { return &b.Projects }, emptyList},
	{kv.KeyFinance, func(b *Bundle) *json.RawMessage { return &b.FinanceEntries }, emptyList},
	{kv.KeyPhotoReports, func(b *Bundle) *json.RawMessage { return &b.PhotoReports }, emptyList},
	{kv.KeyProjectDocuments, func(b *Bundle) *json.RawMessage { return &b.Documents }, emptyList},
	{kv.KeyWorkStages, func(b *Bundle) *json.RawMessage { return &b.WorkStages }, emptyList},
	{kv.KeyNotes, func(b *Bundle) *json.RawMessage { return &b.Notes }, emptyList},
	{kv.KeyItemLibrary, func(b *Bundle) *json.RawMessage { return &b.LibraryItems }, emptyList},
	{kv.KeyCompanyProfile, func(b *Bundle) *json.RawMessage { return &b.CompanyProfile }, emptyProfile},
	{kv.KeyTasks, func(b *Bundle) *json.RawMessage { return &b.Tasks }, emptyList},
	{kv.KeyScratchpad, func(b *Bundle) *json.RawMessage { return &b.ScratchpadItems }, emptyList},
	{kv.KeyInventoryItems, func(b *Bundle) *json.RawMessage { return &b.InventoryItems }, emptyList},
	{kv.KeyInventoryNotes, func(b *Bundle) *json.RawMessage { return &b.InventoryNotes }, emptyList},
	{kv.KeyGlobalDocuments, func(b *Bundle) *json.RawMessage { return &b.GlobalDocuments }, emptyList},
}

// FileName is the download name for a backup made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("smetaza5minut_backup_%s.json", t.Format(time.DateOnly))
}

// storedEstimates is the part of the estimates document a backup carries.
type storedEstimates struct {
	Estimates json.RawMessage `json:"estimates"`
}

type Service struct {
	docs    *kv.Docs
	scratch *scratchpad.Service
}

func NewService(docs *kv.Docs) *Service {
	return &Service{docs: docs, scratch: scratchpad.NewService(docs)}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Export собирает все документы пользователя. Отсутствующие и битые разделы
// выгружаются пустыми.
func (s *Service) Export(ctx context.Context, owner int64) (Bundle, error) {
	b := Bundle{Estimates: emptyList}
	var est storedEstimates
	if kv.Read(ctx, s.docs, owner, kv.KeyEstimates, &est) && isArray(est.Estimates) {
		b.Estimates = est.Estimates
	}
	for _, sec := range sections {
		*sec.field(&b) = sec.empty
		raw, ok := s.docs.Raw(ctx, owner, sec.key)
		if !ok || !json.Valid(raw) || isNull(raw) {
			continue
		}
		*sec.field(&b) = raw
	}
	// старый блокнот хранился строкой; в файл идёт уже список
	items, err := s.scratch.Items(ctx, owner)
	if err != nil {
		return Bundle{}, fmt.Errorf("backup: scratchpad: %w", err)
	}
	if b.ScratchpadItems, err = json.Marshal(items); err != nil {
		return Bundle{}, fmt.Errorf("backup: encode scratchpad: %w", err)
	}
	if raw, ok := s.docs.Raw(ctx, owner, kv.KeyTheme); ok && json.Valid(raw) && !isNull(raw) {
		b.ThemeMode = raw
	}
	return b, nil
}

// Marshal renders the bundle the way the file is downloaded: indented JSON.
func Marshal(b Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '[' && json.Valid(t)
}

// Parse validates a backup file. Missing sections become empty; a section of
// the wrong shape rejects the whole file.
func Parse(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if isNull(b.Estimates) {
		b.Estimates = emptyList
	} else if !isArray(b.Estimates) {
		return Bundle{}, fmt.Errorf("%w: estimates is not a list", ErrMalformed)
	}
	for _, sec := range sections {
		f := sec.field(&b)
		if isNull(*f) {
			*f = sec.empty
			continue
		}
		shapeOK := isArray(*f)
		if sec.key == kv.KeyCompanyProfile {
			shapeOK = bytes.HasPrefix(bytes.TrimSpace(*f), []byte("{"))
		}
		if !shapeOK {
			return Bundle{}, fmt.Errorf("%w: %s has wrong shape", ErrMalformed, sec.key)
		}
	}
	if isNull(b.ThemeMode) {
		b.ThemeMode = nil
	}
	return b, nil
}

// Restore replaces the user's documents with the bundle. The active estimate
// is reset to none. Writes stop at the first failure.
func (s *Service) Restore(ctx context.Context, owner int64, b Bundle) error {
	est, err := json.Marshal(struct {
		Estimates        json.RawMessage `json:"estimates"`
		ActiveEstimateID *int64          `json:"activeEstimateId"`
	}{Estimates: b.Estimates})
	if err != nil {
		return fmt.Errorf("backup: encode estimates: %w", err)
	}
	if err := s.put(ctx, owner, kv.KeyEstimates, est); err != nil {
		return err
	}
	for _, sec := range sections {
		if err := s.put(ctx, owner, sec.key, *sec.field(&b)); err != nil {
			return err
		}
	}
	if b.ThemeMode != nil {
		if err := s.put(ctx, owner, kv.KeyTheme, b.ThemeMode); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) put(ctx context.Context, owner int64, key kv.Key, raw []byte) error {
	unlock := s.docs.Lock(owner, key)
	defer unlock()
	return s.docs.PutRaw(ctx, owner, key, raw)
}
