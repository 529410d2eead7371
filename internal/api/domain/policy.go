package domain

import "fmt"

// TransitionPolicy decides whether a job may move from one status to another.
// Every policy must allow re-entering the current status so that repeated
// transitions stay idempotent.
type TransitionPolicy interface {
	Allow(from, to JobStatus) error
	Name() string
}

// PermissivePolicy allows any status to follow any other
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(from, to JobStatus) error { return nil }

func (PermissivePolicy) Name() string { return "permissive" }

// StrictPolicy only moves jobs forward, skipping statuses is allowed.
// CANCELLED is reachable from every non-terminal status and terminal
// statuses are frozen.
type StrictPolicy struct{}

var statusRank = map[JobStatus]int{
	JobStatusCreated:   0,
	JobStatusAccepted:  1,
	JobStatusAssigned:  2,
	JobStatusScheduled: 3,
	JobStatusOngoing:   4,
	JobStatusCompleted: 5,
}

func (StrictPolicy) Allow(from, to JobStatus) error {
	if from == to {
		return nil
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrTransitionNotAllowed, from)
	}
	if to == JobStatusCancelled {
		return nil
	}
	if statusRank[to] <= statusRank[from] {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
	}
	return nil
}

func (StrictPolicy) Name() string { return "strict" }

// PolicyByName maps a config value to a policy; empty means permissive
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "permissive":
		return PermissivePolicy{}, nil
	case "strict":
		return StrictPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown transition policy %q", name)
}
