// Package position owns the position lifecycle: the status state machine,
// the CV list it is coupled to, job descriptions, and project membership.
package position

import (
	"time"

	"github.com/araddon/dateparse"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/storage"
)

type Status = storage.PositionStatus

type EventKind int

const (
	KindCVAdded EventKind = iota + 1
	KindCVRemoved
	KindMatchingCompleted
	KindEndDateElapsed
	KindCloseRequested
	KindOpenRequested
	KindCancelRequested
)

func (k EventKind) String() string {
	switch k {
	case KindCVAdded:
		return "cv_added"
	case KindCVRemoved:
		return "cv_removed"
	case KindMatchingCompleted:
		return "matching_completed"
	case KindEndDateElapsed:
		return "end_date_elapsed"
	case KindCloseRequested:
		return "close_requested"
	case KindOpenRequested:
		return "open_requested"
	case KindCancelRequested:
		return "cancel_requested"
	}
	return "unknown"
}

// Event is something that happened to a position. CVs is the size of the
// CV list after the event, where the event changes or depends on it.
type Event struct {
	Kind EventKind
	CVs  int
}

var (
	CVAdded           = Event{Kind: KindCVAdded}
	MatchingCompleted = Event{Kind: KindMatchingCompleted}
	EndDateElapsed    = Event{Kind: KindEndDateElapsed}
	CloseRequested    = Event{Kind: KindCloseRequested}
	CancelRequested   = Event{Kind: KindCancelRequested}
)

func CVRemoved(remaining int) Event { return Event{Kind: KindCVRemoved, CVs: remaining} }

func OpenRequested(cvs int) Event { return Event{Kind: KindOpenRequested, CVs: cvs} }

// Next returns the status a position moves to when ev happens in status
// current. Transitions that are not allowed return an ErrConflict-marked
// error; events with no effect in the current status return it unchanged.
func Next(current Status, ev Event) (Status, error) {
	if current == "" {
		current = storage.PositionOpen
	}
	switch current {
	case storage.PositionOpen, storage.PositionProcessing, storage.PositionClosed, storage.PositionCancelled:
	default:
		return current, errors.Validationf("unknown position status %q", current)
	}

	switch ev.Kind {
	case KindCVAdded:
		switch current {
		case storage.PositionClosed, storage.PositionCancelled:
			return current, errors.Conflictf("position is %s and does not accept new CVs", current)
		}
		return storage.PositionProcessing, nil

	case KindCVRemoved:
		if current == storage.PositionProcessing && ev.CVs == 0 {
			return storage.PositionOpen, nil
		}
		return current, nil

	case KindMatchingCompleted:
		// A position closed while its batch was matching stays closed.
		if current == storage.PositionProcessing {
			return storage.PositionOpen, nil
		}
		return current, nil

	case KindEndDateElapsed:
		if current == storage.PositionOpen || current == storage.PositionProcessing {
			return storage.PositionClosed, nil
		}
		return current, nil

	case KindCloseRequested:
		if current == storage.PositionCancelled {
			return current, errors.Conflictf("position is cancelled")
		}
		return storage.PositionClosed, nil

	case KindOpenRequested:
		switch current {
		case storage.PositionCancelled:
			return current, errors.Conflictf("position is cancelled")
		case storage.PositionClosed:
			if ev.CVs > 0 {
				return storage.PositionProcessing, nil
			}
			return storage.PositionOpen, nil
		}
		return current, nil

	case KindCancelRequested:
		return storage.PositionCancelled, nil
	}
	return current, errors.Validationf("unknown position event %d", ev.Kind)
}

// CanIngest reports, as an error, whether a position in status may take new CVs.
func CanIngest(status Status) error {
	_, err := Next(status, CVAdded)
	return err
}

// EndDate parses the position's free-form end date. ok is false when the
// position has no end date or it cannot be parsed.
func EndDate(p *storage.Position) (t time.Time, ok bool, err error) {
	if p.EndDate == "" {
		return time.Time{}, false, nil
	}
	t, err = dateparse.ParseAny(p.EndDate)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "parse end date %q", p.EndDate)
	}
	return t, true, nil
}

// Expired reports whether the position's end date lies before now.
// Unparseable end dates count as no end date.
func Expired(p *storage.Position, now time.Time) bool {
	end, ok, _ := EndDate(p)
	return ok && now.After(end)
}
