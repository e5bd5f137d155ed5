// Package index holds the three persisted link indexes the reconciliation
// engine consults: patient→doctor assignments, appointment→owner links and
// patient→history-id sets. The upstream API cannot be queried for any of
// these relations, so the creating client records them here.
//
// Index entries are advisory caches. They may point at ids that no longer
// exist upstream; readers treat those as unresolved, never as errors. A
// missing or corrupt persisted value decodes to the empty default and is
// never surfaced to the caller.
package index

import (
	"context"
	"errors"

	"github.com/careloop/backend/store"
	"go.uber.org/zap"
)

// Store keys. Each index owns exactly one key and replaces the whole
// document on every mutation.
const (
	assignmentsKey     = "assignments"
	appointmentLinkKey = "appointment_links"
	historyLinkKey     = "history_links"
)

// loadMap reads the document under key, recovering silently to the empty
// map when the value is missing or unreadable.
func loadMap[V any](ctx context.Context, st store.Store, key string, logger *zap.Logger) map[string]V {
	out := make(map[string]V)
	err := st.Read(ctx, key, &out)
	if err == nil {
		return out
	}
	if !errors.Is(err, store.ErrNotFound) {
		logger.Warn("discarding unreadable index document",
			zap.String("key", key),
			zap.Error(err))
	}
	return make(map[string]V)
}
