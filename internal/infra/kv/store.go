// Package kv keeps every user collection as one JSON document per owner and key.
package kv

import (
	"context"
	"errors"
)

// Key names one persisted document. Values are the keys backup files use, so
// a backup section maps to exactly one document.
type Key string

const (
	KeyEstimates        Key = "estimatesData"
	KeyCompanyProfile   Key = "companyProfile"
	KeyItemLibrary      Key = "itemLibrary"
	KeyTemplates        Key = "estimateTemplates"
	KeyProjects         Key = "projects"
	KeyFinance          Key = "financeEntries"
	KeyPhotoReports     Key = "photoReports"
	KeyProjectDocuments Key = "projectDocuments"
	KeyGlobalDocuments  Key = "globalDocuments"
	KeyWorkStages       Key = "workStages"
	KeyNotes            Key = "projectNotes"
	KeyInventoryItems   Key = "inventoryItems"
	KeyInventoryNotes   Key = "inventoryNotes"
	KeyTasks            Key = "tasks"
	KeyScratchpad       Key = "scratchpad"
	KeyTheme            Key = "themeMode"

	// KeyDialog is internal to the bot and is not part of backups.
	KeyDialog Key = "dialogState"
)

// UserKeys lists the documents a user owns, in backup order.
var UserKeys = []Key{
	KeyEstimates, KeyCompanyProfile, KeyItemLibrary, KeyTemplates, KeyProjects,
	KeyFinance, KeyPhotoReports, KeyProjectDocuments, KeyGlobalDocuments, KeyWorkStages,
	KeyNotes, KeyInventoryItems, KeyInventoryNotes, KeyTasks, KeyScratchpad, KeyTheme,
}

// ParseKey accepts only user-owned keys.
func ParseKey(s string) (Key, bool) {
	for _, k := range UserKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

var ErrNotFound = errors.New("kv: document not found")

// Store is a raw document backend. Get returns ErrNotFound for a missing document.
type Store interface {
	Get(ctx context.Context, owner int64, key Key) ([]byte, error)
	Put(ctx context.Context, owner int64, key Key, doc []byte) error
	Delete(ctx context.Context, owner int64, key Key) error
}
