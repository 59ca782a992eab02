package evidence

import (
	"errors"
	"fmt"

	"crowdpulse/internal/models"
)

// Run-state errors. Recording into, finishing, or exporting a report from a
// closed run is a caller bug, not something the aggregator recovers from.
var (
	ErrRunFinished = errors.New("analysis run is already finished")
	ErrRunAborted  = errors.New("analysis run was aborted")
)

// EmptyRunWarning is attached to the Summary of a run that finished with no
// records instead of failing the finish call.
const EmptyRunWarning = "empty run: no records were collected"

// DuplicateRunError is returned by StartRun when the analysis id is already
// owned by an active run.
type DuplicateRunError struct {
	AnalysisID string
}

func (e *DuplicateRunError) Error() string {
	return fmt.Sprintf("analysis run %q is already active", e.AnalysisID)
}

// DuplicateItemError is returned by Record when a (platform, item_id) pair was
// already recorded in the same run. Re-submission is rejected, never merged.
type DuplicateItemError struct {
	Platform models.Platform
	ItemID   string
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("item %s/%s was already recorded in this run", e.Platform, e.ItemID)
}

// InvalidResultError is returned by Record for a classifier result with an
// unknown label or a confidence outside [0,1].
type InvalidResultError struct {
	Reason string
}

func (e *InvalidResultError) Error() string {
	return "invalid sentiment result: " + e.Reason
}

// InvalidItemError is returned by Record for a text item whose identity is
// unusable: empty item id or unrecognized platform.
type InvalidItemError struct {
	Reason string
}

func (e *InvalidItemError) Error() string {
	return "invalid text item: " + e.Reason
}

// UnsupportedFormatError is returned by Export for any format other than the
// supported ones.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q", e.Format)
}
