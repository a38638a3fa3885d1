package models

import (
	"maps"
	"slices"
	"time"

	id "kyc/pkg/domain"
)

// Address is one collected address; a process keeps every one it was given.
type Address struct {
	PostalCode  string    `json:"postal_code"`
	Address     string    `json:"address"`
	CollectedAt time.Time `json:"collected_at"`
}

// State is a process folded from its events.
//
// Invariants:
//   - State is only ever produced by Apply; replaying the same history from
//     the zero State yields an equal State
//   - Version equals the version of the last applied event
//   - once Status is terminal it only changes through StatusUpdated
type State struct {
	ProcessID    id.ProcessID
	NationalCode string
	CustomerID   id.CustomerID
	Status       Status
	Version      int64
	StartedAt    time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
	Addresses    []Address
	PersonalInfo *PersonalInfoProvided
	TermsVersion string

	done map[Step]bool
	// lastEvent per step, so a duplicate can replay the original outcome.
	lastEvent map[Step]Event
}

// Started reports whether a ProcessStarted event has been applied.
func (s State) Started() bool {
	return s.ProcessID != ""
}

// Done reports whether step is currently complete.
func (s State) Done(step Step) bool {
	return s.done[step]
}

// DoneSteps lists completed steps in name order.
func (s State) DoneSteps() []Step {
	steps := make([]Step, 0, len(s.done))
	for step, ok := range s.done {
		if ok {
			steps = append(steps, step)
		}
	}
	slices.Sort(steps)
	return steps
}

// EventFor returns the event that last completed step.
func (s State) EventFor(step Step) (Event, bool) {
	ev, ok := s.lastEvent[step]
	return ev, ok
}

// Apply folds one event into s and returns the new state. s is not modified.
func Apply(s State, ev Event) State {
	next := s
	next.done = maps.Clone(s.done)
	next.lastEvent = maps.Clone(s.lastEvent)
	if next.done == nil {
		next.done = map[Step]bool{}
	}
	if next.lastEvent == nil {
		next.lastEvent = map[Step]Event{}
	}
	next.Addresses = slices.Clone(s.Addresses)
	next.Version = ev.Version
	next.UpdatedAt = ev.RecordedAt

	complete := func(step Step, status Status) {
		next.done[step] = true
		next.lastEvent[step] = ev
		next.Status = status
	}

	switch d := ev.Data.(type) {
	case ProcessStarted:
		next.ProcessID = ev.ProcessID
		next.NationalCode = d.NationalCode
		next.CustomerID = d.CustomerID
		next.StartedAt = ev.RecordedAt
		complete(StepProcessStarted, StatusStarted)
	case ConsentAccepted:
		next.TermsVersion = d.TermsVersion
		complete(StepConsentAccepted, StatusConsentAccepted)
	case PersonalInfoProvided:
		info := d
		next.PersonalInfo = &info
		complete(StepPersonalInfoProvided, StatusInfoProvided)
	case AddressCollected:
		next.Addresses = append(next.Addresses, Address{
			PostalCode:  d.PostalCode,
			Address:     d.Address,
			CollectedAt: ev.RecordedAt,
		})
		complete(StepAddressCollected, StatusAddressCollected)
	case CardDocumentsUploaded:
		complete(StepCardDocumentsUploaded, StatusCardUploaded)
	case IDPagesUploaded:
		complete(StepIDPagesUploaded, StatusIDUploaded)
	case SelfieUploaded:
		complete(StepSelfieUploaded, StatusSelfieUploaded)
	case VideoUploaded:
		complete(StepVideoUploaded, StatusVideoUploaded)
	case SignatureUploaded:
		complete(StepSignatureUploaded, StatusSignatureUploaded)
	case StatusUpdated:
		next.Status = d.Status
		if d.StepName != "" {
			switch d.State {
			case StepPassed:
				next.done[d.StepName] = true
				next.lastEvent[d.StepName] = ev
			case StepFailed:
				delete(next.done, d.StepName)
				delete(next.lastEvent, d.StepName)
			}
		}
	}

	if next.Status.IsTerminal() {
		if next.CompletedAt == nil {
			at := ev.RecordedAt
			next.CompletedAt = &at
		}
	} else {
		next.CompletedAt = nil
	}
	return next
}

// Replay folds a full history starting from an unstarted State.
func Replay(events []Event) State {
	s := State{Status: StatusUnstarted}
	for _, ev := range events {
		s = Apply(s, ev)
	}
	return s
}
