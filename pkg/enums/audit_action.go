package enums

// AuditAction is the keyword stored on append-only audit entries. Blocked and
// remote-failed syncs share the proposal-level error status; the audit action
// is what tells them apart afterwards.
type AuditAction string

const (
	AuditActionVersionCreated      AuditAction = "version_created"
	AuditActionProposalAccepted    AuditAction = "proposal_accepted"
	AuditActionAcceptanceCleared   AuditAction = "acceptance_cleared"
	AuditActionProposalRevoked     AuditAction = "proposal_revoked"
	AuditActionProposalLost        AuditAction = "proposal_lost"
	AuditActionSyncRequested       AuditAction = "sync_requested"
	AuditActionSyncBlocked         AuditAction = "sync_blocked"
	AuditActionSyncMissingSupplier AuditAction = "sync_missing_supplier"
	AuditActionSyncSuccess         AuditAction = "sync_success"
	AuditActionSyncError           AuditAction = "sync_error"
	AuditActionMappingUpserted     AuditAction = "mapping_upserted"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}
