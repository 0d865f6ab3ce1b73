package authz

import (
	"github.com/platinummonkey/fleetgate/pkg/auth"
)

// Operation names a data-plane action a principal can attempt.
type Operation string

const (
	OpGetRobot          Operation = "getRobot"
	OpUpdateRobotStatus Operation = "updateRobotStatus"
	OpDeleteRobot       Operation = "deleteRobot"
)

// Reason explains an authorization decision.
type Reason string

const (
	ReasonAllowed               Reason = "Allowed"
	ReasonTenantMismatch        Reason = "TenantMismatch"
	ReasonOperationNotPermitted Reason = "OperationNotPermitted"
)

// Resource identifies the target of an operation.
type Resource struct {
	TenantID  string
	RobotID   string
	Operation Operation
}

// Decision is the result of evaluating a principal against a resource.
type Decision struct {
	Allow  bool
	Reason Reason
}

// Config maps principal groups to the operations they may perform.
type Config struct {
	GroupOperations map[auth.Group][]Operation
}

// DefaultConfig grants administrators every operation and standard users
// read plus status updates.
func DefaultConfig() Config {
	return Config{
		GroupOperations: map[auth.Group][]Operation{
			auth.GroupAdministrator: {OpGetRobot, OpUpdateRobotStatus, OpDeleteRobot},
			auth.GroupStandardUser:  {OpGetRobot, OpUpdateRobotStatus},
		},
	}
}

// Model evaluates access decisions. It is pure: every decision is a
// function of the principal and resource alone, with no I/O and no clock.
type Model struct {
	config Config
}

// NewModel creates a model from the given configuration.
func NewModel(config Config) *Model {
	return &Model{config: config}
}

// Authorize decides whether principal may perform the resource's operation.
// Tenant isolation is checked first: a principal never crosses a tenant
// boundary regardless of group. Within the tenant, the principal's group
// must grant the operation.
func (m *Model) Authorize(principal auth.Principal, resource Resource) Decision {
	if principal.TenantID == "" || principal.TenantID != resource.TenantID {
		return Decision{Allow: false, Reason: ReasonTenantMismatch}
	}

	for _, op := range m.config.GroupOperations[principal.Group] {
		if op == resource.Operation {
			return Decision{Allow: true, Reason: ReasonAllowed}
		}
	}

	return Decision{Allow: false, Reason: ReasonOperationNotPermitted}
}
