package view

// Entity is a kind of backend record the console can mutate.
type Entity string

const (
	EntityRegion Entity = "region"
	EntityAlert  Entity = "alert"
)

// MutationPolicy decides whether a local change may be applied before the
// backend confirms it.
type MutationPolicy int

const (
	// MustConfirm applies the change only after the backend succeeds.
	MustConfirm MutationPolicy = iota
	// Optimistic applies the change immediately and reconciles on failure.
	Optimistic
)

func (p MutationPolicy) String() string {
	if p == Optimistic {
		return "optimistic"
	}
	return "must-confirm"
}

// Region geometry is never applied optimistically: a failed create would
// leave a phantom circle on the map. Acknowledging an alert is a flag flip
// that a re-fetch can undo.
var policies = map[Entity]MutationPolicy{
	EntityRegion: MustConfirm,
	EntityAlert:  Optimistic,
}

// PolicyFor returns the mutation policy for e. Unknown entities must confirm.
func PolicyFor(e Entity) MutationPolicy {
	if p, ok := policies[e]; ok {
		return p
	}
	return MustConfirm
}
