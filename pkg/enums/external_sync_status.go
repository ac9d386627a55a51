package enums

// ExternalSyncStatus summarizes the proposal-level GIAV sync state.
type ExternalSyncStatus string

const (
	ExternalSyncStatusNone    ExternalSyncStatus = "none"
	ExternalSyncStatusPending ExternalSyncStatus = "pending"
	ExternalSyncStatusOK      ExternalSyncStatus = "ok"
	ExternalSyncStatusError   ExternalSyncStatus = "error"
)

// String implements fmt.Stringer.
func (e ExternalSyncStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExternalSyncStatus.
func (e ExternalSyncStatus) IsValid() bool {
	switch e {
	case ExternalSyncStatusNone, ExternalSyncStatusPending, ExternalSyncStatusOK, ExternalSyncStatusError:
		return true
	}
	return false
}
