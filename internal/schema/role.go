// Package schema resolves which input column plays which semantic role.
package schema

import (
	"fmt"
	"strings"
)

// Role is a semantic column category the pipeline needs.
type Role int

const (
	RoleID Role = iota
	RoleLogins
	RoleTickets
	RoleActivityDays
	RoleIsActive
	RoleLTV
	RoleMonthlySpend
	RoleContractLength

	numRoles
)

var roleNames = [numRoles]string{
	RoleID:             "id_column",
	RoleLogins:         "feature_logins",
	RoleTickets:        "feature_tickets",
	RoleActivityDays:   "feature_activity_days",
	RoleIsActive:       "feature_is_active",
	RoleLTV:            "feature_ltv",
	RoleMonthlySpend:   "feature_monthly_spend",
	RoleContractLength: "feature_contract_length",
}

// AllRoles returns every role in resolution order.
func AllRoles() []Role {
	out := make([]Role, 0, numRoles)
	for r := Role(0); r < numRoles; r++ {
		out = append(out, r)
	}
	return out
}

// RequiredRoles are the roles without which the pipeline cannot run.
func RequiredRoles() []Role {
	return []Role{RoleID, RoleLogins, RoleTickets, RoleActivityDays}
}

func (r Role) valid() bool { return r >= 0 && r < numRoles }

func (r Role) String() string {
	if !r.valid() {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// IsFeature reports whether the role contributes a model feature.
func (r Role) IsFeature() bool {
	switch r {
	case RoleID:
		return false
	case RoleLogins, RoleTickets, RoleActivityDays, RoleIsActive, RoleLTV, RoleMonthlySpend, RoleContractLength:
		return true
	default:
		return false
	}
}

// Required reports whether the role must be resolved.
func (r Role) Required() bool {
	switch r {
	case RoleID, RoleLogins, RoleTickets, RoleActivityDays:
		return true
	case RoleIsActive, RoleLTV, RoleMonthlySpend, RoleContractLength:
		return false
	default:
		return false
	}
}

// Keywords returns the ordered, lower-case substrings used to match headers.
func (r Role) Keywords() []string {
	switch r {
	case RoleID:
		return []string{"id", "identifier", "cust", "customer"}
	case RoleLogins:
		return []string{"login", "log-in", "access", "session"}
	case RoleTickets:
		return []string{"ticket", "support", "case"}
	case RoleActivityDays:
		return []string{"activity", "active", "seen", "last_active"}
	case RoleIsActive:
		return []string{"is_active"}
	case RoleLTV:
		return []string{"ltv", "lifetime", "total_spent"}
	case RoleMonthlySpend:
		return []string{"monthly", "spend"}
	case RoleContractLength:
		return []string{"contract", "term", "plan"}
	default:
		return nil
	}
}

// ParseRole maps a role name (as used in the mapping JSON) to a Role.
func ParseRole(s string) (Role, error) {
	name := strings.TrimSpace(s)
	for r := Role(0); r < numRoles; r++ {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// MarshalText lets Role be used as a JSON object key.
func (r Role) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText parses a role name.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
