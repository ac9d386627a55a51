package enums

// ActorKind identifies who performed a lifecycle action.
type ActorKind string

const (
	ActorKindClient ActorKind = "client"
	ActorKindAdmin  ActorKind = "admin"
	ActorKindSystem ActorKind = "system"
)

// String implements fmt.Stringer.
func (a ActorKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorKind.
func (a ActorKind) IsValid() bool {
	switch a {
	case ActorKindClient, ActorKindAdmin, ActorKindSystem:
		return true
	}
	return false
}

// ConfirmationStatus tracks post-acceptance confirmation handling.
type ConfirmationStatus string

const (
	ConfirmationStatusPending   ConfirmationStatus = "pending"
	ConfirmationStatusConfirmed ConfirmationStatus = "confirmed"
)

// String implements fmt.Stringer.
func (c ConfirmationStatus) String() string {
	return string(c)
}
