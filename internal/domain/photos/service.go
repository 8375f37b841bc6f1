package photos

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Spok95/smeta-bot/internal/infra/dataurl"
	"github.com/Spok95/smeta-bot/internal/infra/kv"
	"github.com/rwcarlsen/goexif/exif"
)

var ErrNoImage = errors.New("photos: image is required")

type Service struct {
	list *kv.List[Report]
	now  func() time.Time
}

func NewService(docs *kv.Docs) *Service {
	return &Service{
		list: kv.NewList(docs, kv.KeyPhotoReports, func(r Report) int64 { return r.ID }),
		now:  time.Now,
	}
}

// Add stores a photo for the project. The capture time is read from EXIF
// when the image carries it.
func (s *Service) Add(ctx context.Context, owner, projectID int64, image, caption string) (Report, error) {
	if strings.TrimSpace(image) == "" {
		return Report{}, ErrNoImage
	}
	r := Report{
		ProjectID: projectID,
		Image:     image,
		Caption:   strings.TrimSpace(caption),
		Date:      s.now().UTC().Format(time.RFC3339),
	}
	if t, ok := TakenAt(image); ok {
		r.TakenAt = t.Format(time.RFC3339)
	}
	_, err := s.list.Update(ctx, owner, func(items []Report) ([]Report, error) {
		r.ID = s.list.NextID(items, s.now())
		return append([]Report{r}, items...), nil
	})
	return r, err
}

// TakenAt extracts the EXIF DateTime of a base64 data URL (or bare base64).
func TakenAt(image string) (time.Time, bool) {
	_, raw, err := dataurl.Decode(image)
	if err != nil {
		return time.Time{}, false
	}
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return time.Time{}, false
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	_, err := s.list.Remove(ctx, owner, id)
	return err
}

func (s *Service) ForProject(ctx context.Context, owner, projectID int64) []Report {
	out := []Report{}
	for _, r := range s.list.All(ctx, owner) {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) RemoveProject(ctx context.Context, owner, projectID int64) error {
	_, err := s.list.RemoveWhere(ctx, owner, func(r Report) bool { return r.ProjectID == projectID })
	return err
}

func (s *Service) All(ctx context.Context, owner int64) []Report { return s.list.All(ctx, owner) }

func (s *Service) Replace(ctx context.Context, owner int64, items []Report) error {
	return s.list.Set(ctx, owner, items)
}
