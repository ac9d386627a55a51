package enums

import "fmt"

// VersionSyncStatus records the GIAV synchronization state of one version.
type VersionSyncStatus string

const (
	VersionSyncStatusNever   VersionSyncStatus = "never"
	VersionSyncStatusQueued  VersionSyncStatus = "queued"
	VersionSyncStatusSuccess VersionSyncStatus = "success"
	VersionSyncStatusError   VersionSyncStatus = "error"
)

var validVersionSyncStatuses = []VersionSyncStatus{
	VersionSyncStatusNever,
	VersionSyncStatusQueued,
	VersionSyncStatusSuccess,
	VersionSyncStatusError,
}

// String implements fmt.Stringer.
func (v VersionSyncStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VersionSyncStatus.
func (v VersionSyncStatus) IsValid() bool {
	for _, candidate := range validVersionSyncStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVersionSyncStatus converts raw input into a VersionSyncStatus.
func ParseVersionSyncStatus(value string) (VersionSyncStatus, error) {
	for _, candidate := range validVersionSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid version sync status %q", value)
}
