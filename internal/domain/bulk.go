package domain

import "github.com/curatorapp/curator-server/internal/errors"

// BulkAction names a bulk operation.
type BulkAction string

// Bulk actions.
const (
	BulkActionFavorite   BulkAction = "favorite"
	BulkActionUnfavorite BulkAction = "unfavorite"
	BulkActionTag        BulkAction = "tag"
	BulkActionStatus     BulkAction = "status"
	BulkActionAdvance    BulkAction = "advance"
	BulkActionDelete     BulkAction = "delete"
)

// Valid reports whether a is a supported bulk action.
func (a BulkAction) Valid() bool {
	switch a {
	case BulkActionFavorite, BulkActionUnfavorite, BulkActionTag,
		BulkActionStatus, BulkActionAdvance, BulkActionDelete:
		return true
	}
	return false
}

// BulkOutcome is the result for one article of a bulk operation.
type BulkOutcome struct {
	ArticleID string      `json:"article_id"`
	OK        bool        `json:"ok"`
	Changed   bool        `json:"changed"`
	Code      errors.Code `json:"code,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// BulkResult collects per-article outcomes in selection order.
type BulkResult struct {
	Action    BulkAction    `json:"action"`
	Outcomes  []BulkOutcome `json:"outcomes"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	// TagIDs lists the tags a BulkTag call resolved or created.
	TagIDs []string `json:"tag_ids,omitempty"`
}

// NewBulkResult sizes a result for ids, one outcome slot per id.
func NewBulkResult(action BulkAction, ids []string) *BulkResult {
	outcomes := make([]BulkOutcome, len(ids))
	for i, id := range ids {
		outcomes[i].ArticleID = id
	}
	return &BulkResult{Action: action, Outcomes: outcomes}
}

// Record stores the outcome for slot i. Each slot is written by exactly one
// goroutine, so no locking is needed; call Tally once all writers are done.
func (r *BulkResult) Record(i int, changed bool, err error) {
	o := &r.Outcomes[i]
	if err != nil {
		o.OK = false
		o.Changed = false
		o.Code = errors.CodeOf(err)
		o.Error = err.Error()
		return
	}
	o.OK = true
	o.Changed = changed
}

// Tally recomputes the succeeded and failed totals.
func (r *BulkResult) Tally() {
	r.Succeeded, r.Failed = 0, 0
	for _, o := range r.Outcomes {
		if o.OK {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}

// Outcome returns the outcome for articleID, if present.
func (r *BulkResult) Outcome(articleID string) (BulkOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.ArticleID == articleID {
			return o, true
		}
	}
	return BulkOutcome{}, false
}
