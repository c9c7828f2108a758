package domain

type ReconcileAction string

const (
	ActionCreated   ReconcileAction = "CREATED"
	ActionRecreated ReconcileAction = "RECREATED"
	ActionUnchanged ReconcileAction = "UNCHANGED"
	ActionFailed    ReconcileAction = "FAILED"
)

// ReconciliationResult records the outcome of driving one descriptor to its
// desired state. Identity is populated for Created and Recreated outcomes.
type ReconciliationResult struct {
	Kind     ResourceKind
	Name     string
	Action   ReconcileAction
	Identity ResourceIdentity
	Error    error
}

// ResourceStatus is a read-only existence report used by status listings; it
// carries no desired-state judgement.
type ResourceStatus struct {
	Kind   ResourceKind
	Name   string
	Exists bool
	Detail string
	Error  error
}
