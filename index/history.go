package index

import (
	"context"
	"sync"

	"github.com/careloop/backend/models"
	"github.com/careloop/backend/store"
	"go.uber.org/zap"
)

// HistoryLinkIndex maps each patient to the set of medical-history record
// ids created for them. Values are deduplicated ordered sets.
type HistoryLinkIndex struct {
	store  store.Store
	logger *zap.Logger
	mu     sync.Mutex
}

func NewHistoryLinkIndex(st store.Store, logger *zap.Logger) *HistoryLinkIndex {
	return &HistoryLinkIndex{
		store:  st,
		logger: logger,
	}
}

func (ix *HistoryLinkIndex) load(ctx context.Context) map[string][]string {
	return loadMap[[]string](ctx, ix.store, historyLinkKey, ix.logger)
}

// AddLink inserts historyID into the patient's set. Empty ids are ignored;
// inserting an id that is already present leaves the set unchanged.
func (ix *HistoryLinkIndex) AddLink(ctx context.Context, patientID, historyID string) error {
	pid := models.NormalizeID(patientID)
	hid := models.NormalizeID(historyID)
	if pid == "" || hid == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	links := ix.load(ctx)
	for _, existing := range links[pid] {
		if models.NormalizeID(existing) == hid {
			return nil
		}
	}
	links[pid] = append(links[pid], hid)
	return ix.store.Write(ctx, historyLinkKey, links)
}

// RemoveLink removes every occurrence of historyID from the patient's set.
func (ix *HistoryLinkIndex) RemoveLink(ctx context.Context, patientID, historyID string) error {
	pid := models.NormalizeID(patientID)
	hid := models.NormalizeID(historyID)
	if pid == "" || hid == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	links := ix.load(ctx)
	existing, ok := links[pid]
	if !ok {
		return nil
	}

	kept := existing[:0]
	for _, id := range existing {
		if models.NormalizeID(id) != hid {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(existing) {
		return nil
	}
	if len(kept) == 0 {
		delete(links, pid)
	} else {
		links[pid] = kept
	}
	return ix.store.Write(ctx, historyLinkKey, links)
}

// IDsForPatient returns the patient's history ids in insertion order,
// deduplicated even if the persisted document was written with repeats.
func (ix *HistoryLinkIndex) IDsForPatient(ctx context.Context, patientID string) []string {
	pid := models.NormalizeID(patientID)
	if pid == "" {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	seen := make(map[string]bool)
	var ids []string
	for _, id := range ix.load(ctx)[pid] {
		norm := models.NormalizeID(id)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		ids = append(ids, norm)
	}
	return ids
}
