package domain

// ResourceDescriptor declares the desired state of one named external
// resource. Name is the unique key within kind+account+region and must be
// stable across reconciliation attempts; Spec is fully determined before
// reconciliation begins and is opaque to everything except the handler for
// its kind.
type ResourceDescriptor struct {
	Kind ResourceKind
	Name string
	Spec any

	// SettleAfterCreate requests a fixed wait after the resource is
	// created, before the next descriptor runs. IAM roles need it: a
	// freshly created role cannot be assumed until it propagates, so a
	// dependent created immediately afterwards fails intermittently.
	SettleAfterCreate bool
}

// ResourceState is the result of a read-only probe against the external
// system. It is never cached across reconciliations; the external system is
// the sole source of truth.
type ResourceState struct {
	Exists bool
	// Spec holds whatever the probe could recover about the live resource,
	// typically an ARN or identifier. It is informational only; the
	// reconciler never diffs it against the desired spec.
	Spec any
}

// ResourceIdentity is what a successful create reports back, so dependent
// descriptors can reference the parent (a role ARN, a gateway ID).
type ResourceIdentity struct {
	ID  string
	ARN string
	URL string
}
