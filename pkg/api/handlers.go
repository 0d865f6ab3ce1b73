package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/fleetgate/pkg/httputil"
	"github.com/platinummonkey/fleetgate/pkg/middleware"
	"github.com/platinummonkey/fleetgate/pkg/resolver"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

// getRobot handles GET /tenants/{tenant_id}/robots/{robot_id}
func (s *Server) getRobot(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	vars := mux.Vars(r)
	rec, err := s.dispatcher.GetRobot(r.Context(), principal, resolver.Args{
		TenantID: vars["tenant_id"],
		RobotID:  vars["robot_id"],
	})
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, rec)
}

// updateRobotStatusRequest is the body of a status update.
type updateRobotStatusRequest struct {
	Status map[string]interface{} `json:"status"`
}

// updateRobotStatus handles PUT /tenants/{tenant_id}/robots/{robot_id}/status
func (s *Server) updateRobotStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var body updateRobotStatusRequest
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}
	if body.Status == nil {
		httputil.WriteBadRequest(w, "status is required")
		return
	}

	vars := mux.Vars(r)
	rec, err := s.dispatcher.UpdateRobotStatus(r.Context(), principal, resolver.Args{
		TenantID: vars["tenant_id"],
		RobotID:  vars["robot_id"],
		Status:   body.Status,
	})
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, rec)
}

// dispatchRequest carries an operation name and its arguments in-band.
type dispatchRequest struct {
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args"`
}

// dispatch handles POST /api/v1/dispatch
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var body dispatchRequest
	if !httputil.ParseJSONOrError(w, r, &body) {
		return
	}

	result, err := s.dispatcher.Dispatch(r.Context(), principal, body.Operation, body.Args)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

// writeOperationError maps resolver errors onto HTTP statuses.
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, resolver.ErrUnauthorized):
		httputil.WriteForbidden(w, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteNotFound(w, "robot not found")
	case errors.Is(err, resolver.ErrUnknownOperation):
		httputil.WriteBadRequest(w, "unknown operation")
	case errors.Is(err, resolver.ErrInvalidArguments):
		httputil.WriteBadRequest(w, "invalid arguments")
	default:
		if s.logger != nil {
			s.logger.WithError(err).WithField("path", r.URL.Path).Error("operation failed")
		}
		httputil.WriteInternalError(w, errors.New("internal error"))
	}
}
