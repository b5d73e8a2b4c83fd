package rbac

// Reason explains a decision.
type Reason string

const (
	ReasonGranted           Reason = "granted"
	ReasonNoGrant           Reason = "no_grant"
	ReasonNoAssignment      Reason = "no_active_assignment"
	ReasonOutOfScope        Reason = "out_of_scope"
	ReasonPrincipalNotFound Reason = "principal_not_found"
	ReasonInvalidPrincipal  Reason = "invalid_principal"
	ReasonUnknownCapability Reason = "unknown_capability"
	ReasonStoreError        Reason = "store_error"
)

// Decision is the outcome of a single check. The zero value is a deny.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
	// Role is the role whose grant allowed the check.
	Role string `json:"role,omitempty"`
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}

	return "deny"
}
