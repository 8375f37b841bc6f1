package estimate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRecords(t *testing.T, doc string) []json.RawMessage {
	t.Helper()
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

const legacyDoc = `[
	{"id": 1700000000000, "items": [{"id": 1700000000001.734, "name": "Клей", "quantity": 2, "price": 300, "unit": "меш.", "image": null}],
	 "clientInfo": "Иванов", "discount": 0, "discountType": "percent", "tax": 0, "lastModified": 1700000000000},
	{"id": 1700000500000, "items": [], "clientInfo": "Петров", "number": "5", "date": "2023-11-15", "status": "sent",
	 "discount": 0, "discountType": "fixed", "tax": 0, "lastModified": 1700000500000},
	{"id": 1700000900000, "items": [{"id": 2, "name": "Работа", "quantity": 1, "price": 10, "unit": "", "image": null, "type": "work"}],
	 "clientInfo": "", "number": "6", "date": "2023-11-15", "status": "draft", "projectId": 42,
	 "discount": 0, "discountType": "percent", "tax": 0, "lastModified": 1700000900000}
]`

func TestUpgradeBackfillsLegacyRecords(t *testing.T) {
	out, changed, err := Upgrade(rawRecords(t, legacyDoc))
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, out, 3)

	first := out[0]
	assert.Equal(t, StatusDraft, first.Status)
	assert.Equal(t, "2023-11-14", first.Date, "date comes from lastModified in UTC")
	assert.Equal(t, "7", first.Number, "number avoids the labels already in use")
	assert.Nil(t, first.ProjectID)
	require.Len(t, first.Items, 1)
	assert.Equal(t, ItemMaterial, first.Items[0].Type)
	assert.Equal(t, ItemID(1700000000001), first.Items[0].ID)

	second := out[1]
	assert.Equal(t, StatusSent, second.Status, "existing status is kept")
	assert.Equal(t, "5", second.Number)
	assert.Nil(t, second.ProjectID)

	third := out[2]
	require.NotNil(t, third.ProjectID)
	assert.Equal(t, int64(42), *third.ProjectID)
	assert.Equal(t, ItemWork, third.Items[0].Type)
}

func TestUpgradeIsIdempotent(t *testing.T) {
	out, changed, err := Upgrade(rawRecords(t, legacyDoc))
	require.NoError(t, err)
	require.True(t, changed)

	doc, err := json.Marshal(out)
	require.NoError(t, err)

	again, changed, err := Upgrade(rawRecords(t, string(doc)))
	require.NoError(t, err)
	assert.False(t, changed, "already migrated data must not be rewritten")
	assert.Equal(t, out, again)
}

func TestUpgradeCurrentRecordsUntouched(t *testing.T) {
	doc := `[{"id": 1, "items": [], "clientInfo": "", "number": "1", "date": "2024-01-01", "status": "approved",
		"discount": 5, "discountType": "percent", "tax": 0, "projectId": null, "lastModified": 1}]`
	out, changed, err := Upgrade(rawRecords(t, doc))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusApproved, out[0].Status)
}

func TestUpgradeRejectsMalformedRecord(t *testing.T) {
	_, _, err := Upgrade([]json.RawMessage{json.RawMessage(`{"id": "x"}`)})
	require.Error(t, err)
}
