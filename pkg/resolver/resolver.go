package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/authz"
	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

// ErrUnauthorized indicates the principal may not perform the operation.
// The store is never consulted for an unauthorized request, so a caller
// cannot distinguish a forbidden robot from a missing one.
var ErrUnauthorized = errors.New("unauthorized")

// ErrUnknownOperation indicates a dispatch request named no registered
// operation.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrInvalidArguments indicates dispatch arguments that could not be
// decoded.
var ErrInvalidArguments = errors.New("invalid arguments")

// Args carries the arguments of a dispatched operation.
type Args struct {
	TenantID string                 `json:"tenant_id"`
	RobotID  string                 `json:"robot_id"`
	Status   map[string]interface{} `json:"status,omitempty"`
}

// Dispatcher authorizes and executes data-plane operations against the
// robot store.
type Dispatcher struct {
	model   *authz.Model
	store   store.Store
	sink    audit.Sink
	metrics *observability.Metrics
	now     func() time.Time
}

// NewDispatcher creates a dispatcher. sink and metrics may be nil.
func NewDispatcher(model *authz.Model, s store.Store, sink audit.Sink, metrics *observability.Metrics) *Dispatcher {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Dispatcher{
		model:   model,
		store:   s,
		sink:    sink,
		metrics: metrics,
		now:     time.Now,
	}
}

// GetRobot returns the robot record after authorizing the read.
func (d *Dispatcher) GetRobot(ctx context.Context, principal auth.Principal, args Args) (*store.RobotRecord, error) {
	key := store.Key{TenantID: args.TenantID, RobotID: args.RobotID}

	if err := d.authorize(ctx, principal, key, authz.OpGetRobot); err != nil {
		d.count(string(authz.OpGetRobot), "unauthorized")
		return nil, err
	}

	rec, err := d.store.GetRobot(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.count(string(authz.OpGetRobot), "not_found")
			return nil, err
		}
		d.count(string(authz.OpGetRobot), "error")
		return nil, err
	}

	event := audit.NewEvent(audit.EventRobotRead)
	event.TenantID = key.TenantID
	event.RobotID = key.RobotID
	event.Subject = principal.Subject
	d.sink.Record(ctx, event)

	d.count(string(authz.OpGetRobot), "ok")
	return rec, nil
}

// UpdateRobotStatus merges the status update into the robot record after
// authorizing the write, stamping the robot's last-seen time.
func (d *Dispatcher) UpdateRobotStatus(ctx context.Context, principal auth.Principal, args Args) (*store.RobotRecord, error) {
	key := store.Key{TenantID: args.TenantID, RobotID: args.RobotID}

	if err := d.authorize(ctx, principal, key, authz.OpUpdateRobotStatus); err != nil {
		d.count(string(authz.OpUpdateRobotStatus), "unauthorized")
		return nil, err
	}

	rec, err := d.store.PutRobotStatus(ctx, key, args.Status, d.now().UTC())
	if err != nil {
		d.count(string(authz.OpUpdateRobotStatus), "error")
		return nil, err
	}

	event := audit.NewEvent(audit.EventRobotStatusUpdate)
	event.TenantID = key.TenantID
	event.RobotID = key.RobotID
	event.Subject = principal.Subject
	d.sink.Record(ctx, event)

	d.count(string(authz.OpUpdateRobotStatus), "ok")
	return rec, nil
}

// Dispatch executes the named operation with JSON-encoded arguments and
// returns the JSON-encoded result. It is the single entry point for
// transports that carry the operation name in-band.
func (d *Dispatcher) Dispatch(ctx context.Context, principal auth.Principal, operation string, rawArgs json.RawMessage) (json.RawMessage, error) {
	var args Args
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}

	var rec *store.RobotRecord
	var err error
	switch authz.Operation(operation) {
	case authz.OpGetRobot:
		rec, err = d.GetRobot(ctx, principal, args)
	case authz.OpUpdateRobotStatus:
		rec, err = d.UpdateRobotStatus(ctx, principal, args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(rec)
}

func (d *Dispatcher) authorize(ctx context.Context, principal auth.Principal, key store.Key, op authz.Operation) error {
	decision := d.model.Authorize(principal, authz.Resource{
		TenantID:  key.TenantID,
		RobotID:   key.RobotID,
		Operation: op,
	})
	if d.metrics != nil {
		label := "allow"
		if !decision.Allow {
			label = "deny"
		}
		d.metrics.AuthzDecisionsTotal.WithLabelValues(label, string(decision.Reason)).Inc()
	}
	if decision.Allow {
		return nil
	}

	event := audit.NewEvent(audit.EventAccessDenied)
	event.TenantID = key.TenantID
	event.RobotID = key.RobotID
	event.Subject = principal.Subject
	event.Reason = string(decision.Reason)
	event.Metadata = map[string]interface{}{"operation": string(op)}
	d.sink.Record(ctx, event)

	return fmt.Errorf("%w: %s", ErrUnauthorized, decision.Reason)
}

func (d *Dispatcher) count(operation, status string) {
	if d.metrics != nil {
		d.metrics.ResolverOperationsTotal.WithLabelValues(operation, status).Inc()
	}
}
