package engine

import (
	"sort"

	"github.com/careloop/backend/models"
)

// The merge and fallback rules live here as standalone functions so their
// triggering conditions can be tested without the fetch orchestration.

// filterByIDSet keeps the records whose id is a member of ids.
func filterByIDSet[T any](records []T, ids map[string]bool, idOf func(T) models.ID) []T {
	if len(ids) == 0 {
		return nil
	}
	var out []T
	for _, rec := range records {
		if ids[models.NormalizeID(string(idOf(rec)))] {
			out = append(out, rec)
		}
	}
	return out
}

// mergeByID unions two record sources keyed by id. Embedded records from
// the subject's own profile go in first; link-qualified records from the
// flat collection fetch go in second and overwrite on id collision, because
// a link-qualified record is assumed fresher than a profile snapshot that
// may be stale. Records without an id cannot be keyed and are skipped.
func mergeByID[T any](embedded, linkQualified []T, idOf func(T) models.ID) []T {
	var order []string
	byID := make(map[string]T)
	insert := func(rec T) {
		id := models.NormalizeID(string(idOf(rec)))
		if id == "" {
			return
		}
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = rec
	}

	for _, rec := range embedded {
		insert(rec)
	}
	for _, rec := range linkQualified {
		insert(rec)
	}

	out := make([]T, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// sortNewestFirst orders records by their temporal field descending.
// Missing or unparseable timestamps compare as the epoch and sort last.
func sortNewestFirst[T any](records []T, timeOf func(T) models.FlexTime) {
	sort.SliceStable(records, func(i, j int) bool {
		return timeOf(records[i]).Time().After(timeOf(records[j]).Time())
	})
}

// adoptAllForSolePatient is the single-subject bootstrap rule: a freshly
// seeded deployment commonly has exactly one patient and no link entries
// yet, in which case every record in the collection belongs to that
// patient. It fires only when the link filter matched nothing and the
// global patient count is at most one; a non-empty link result is never
// overridden.
func adoptAllForSolePatient[T any](linkMatched, all []T, patientCount int) ([]T, bool) {
	if len(linkMatched) > 0 || patientCount > 1 {
		return linkMatched, false
	}
	return all, true
}

// visibleFeedback keeps feedback whose appointment belongs to the subject's
// reconciled appointment-id set. Feedback referencing unrelated or unknown
// appointments is excluded, not erred.
func visibleFeedback(feedback []models.Feedback, appointmentIDs map[string]bool) []models.Feedback {
	var out []models.Feedback
	for _, fb := range feedback {
		if appointmentIDs[models.NormalizeID(string(fb.AppointmentID))] {
			out = append(out, fb)
		}
	}
	return out
}

// DefaultDoctor picks the doctor a new patient is assigned when none was
// chosen: the first doctor in the fetched list, so every registration ends
// with a definite, if arbitrary, assignment.
func DefaultDoctor(doctors []models.Doctor) (models.ID, bool) {
	if len(doctors) == 0 {
		return "", false
	}
	return doctors[0].ID, true
}
