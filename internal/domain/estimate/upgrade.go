package estimate

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the record layout this build writes.
//
//	1: no status, number or date
//	2: no projectId
//	3: items without type
//	4: current
const SchemaVersion = 4

type storedRecord struct {
	est        Estimate
	fields     map[string]json.RawMessage
	itemFields []map[string]json.RawMessage
}

func (r storedRecord) has(field string) bool {
	_, ok := r.fields[field]
	return ok
}

// version infers the layout a record was written with from the fields present.
func (r storedRecord) version() int {
	switch {
	case !r.has("status"):
		return 1
	case !r.has("projectId"):
		return 2
	}
	for _, f := range r.itemFields {
		if _, ok := f["type"]; !ok {
			return 3
		}
	}
	return SchemaVersion
}

// upgrade steps, indexed by the version they upgrade from. Each step only
// fills what is missing, so running it on a newer record changes nothing.
var upgradeSteps = map[int]func(r *storedRecord, all []Estimate){
	1: func(r *storedRecord, all []Estimate) {
		if r.has("status") {
			return
		}
		if r.est.Number == "" {
			r.est.Number = NextNumber(all)
		}
		if r.est.Date == "" {
			r.est.Date = time.UnixMilli(r.est.LastModified).UTC().Format(time.DateOnly)
		}
		r.est.Status = StatusDraft
	},
	2: func(r *storedRecord, _ []Estimate) {
		if !r.has("projectId") {
			r.est.ProjectID = nil
		}
	},
	3: func(r *storedRecord, _ []Estimate) {
		for i, f := range r.itemFields {
			if _, ok := f["type"]; !ok && i < len(r.est.Items) {
				r.est.Items[i].Type = ItemMaterial
			}
		}
	},
}

// Upgrade decodes stored estimate records and brings every one of them to
// SchemaVersion. changed reports whether any record was upgraded, i.e.
// whether the collection must be written back. It performs no I/O.
func Upgrade(raw []json.RawMessage) (out []Estimate, changed bool, err error) {
	records := make([]storedRecord, len(raw))
	out = make([]Estimate, len(raw))
	for i, msg := range raw {
		r := &records[i]
		if err := json.Unmarshal(msg, &r.fields); err != nil {
			return nil, false, fmt.Errorf("estimate: record %d: %w", i, err)
		}
		if err := json.Unmarshal(msg, &r.est); err != nil {
			return nil, false, fmt.Errorf("estimate: record %d: %w", i, err)
		}
		if items, ok := r.fields["items"]; ok {
			if err := json.Unmarshal(items, &r.itemFields); err != nil {
				return nil, false, fmt.Errorf("estimate: record %d items: %w", i, err)
			}
		}
		out[i] = r.est
	}

	for i := range records {
		r := &records[i]
		v := r.version()
		if v >= SchemaVersion {
			continue
		}
		changed = true
		for step := v; step < SchemaVersion; step++ {
			upgradeSteps[step](r, out)
		}
		if r.est.Items == nil {
			r.est.Items = []Item{}
		}
		out[i] = r.est
	}
	return out, changed, nil
}
