package rbac

// Capabilities referenced by the HTTP API and the CLI. The configured
// vocabulary must contain each of them.
var (
	// PermLedgerRead allows reading and reconciling a lawyer's earnings.
	PermLedgerRead = MustCapability("ledger.read")
	// PermLedgerWrite allows appending transactions and moving their status.
	PermLedgerWrite = MustCapability("ledger.write")
	// PermLedgerRepair allows overwriting a summary with the recomputed one.
	PermLedgerRepair = MustCapability("ledger.repair")

	// PermRBACRead allows listing another principal's permissions.
	PermRBACRead = MustCapability("rbac.read")
	// PermRBACManage allows changing roles, grants and assignments.
	PermRBACManage = MustCapability("rbac.manage")
)
