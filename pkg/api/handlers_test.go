package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/authz"
	"github.com/platinummonkey/fleetgate/pkg/edge"
	"github.com/platinummonkey/fleetgate/pkg/resolver"
	"github.com/platinummonkey/fleetgate/pkg/store"
)

// Unsigned three-segment tokens; the test server uses the structural
// codec verifier, as the local development deployment does.
const (
	adminT1Token = "h.eyJzdWIiOiJhZG1pbiIsInRlbmFudCI6InQxIiwiZ3JvdXAiOiJhZG1pbmlzdHJhdG9yIiwiZXhwIjo5OTk5OTk5OTk5fQ.s"
	userT2Token  = "h.eyJzdWIiOiJ1c2VyIiwidGVuYW50IjoidDIiLCJncm91cCI6InN0YW5kYXJkLXVzZXIiLCJleHAiOjk5OTk5OTk5OTl9.s"
	expiredToken = "h.eyJleHAiOjF9.s"
)

func newTestServer(t *testing.T) (*Server, *store.MemoryStore, *audit.Recorder) {
	t.Helper()

	s := store.NewMemoryStore()
	rec := audit.NewRecorder()
	dispatcher := resolver.NewDispatcher(authz.NewModel(authz.DefaultConfig()), s, rec, nil)

	srv, err := NewServer(dispatcher, Options{
		Verifier:   auth.NewCodecVerifier(auth.NewCodec()),
		EdgeFilter: edge.NewFilter(auth.NewCodec()),
	})
	require.NoError(t, err)
	return srv, s, rec
}

func doRequest(srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestUpdateAndGetRobot(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, "PUT", "/tenants/t1/robots/r1/status", adminT1Token,
		map[string]interface{}{"status": map[string]interface{}{"state": "idle", "battery": 88}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(srv, "GET", "/tenants/t1/robots/r1", adminT1Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.RobotRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "t1", got.TenantID)
	assert.Equal(t, "idle", got.Status["state"])
}

func TestGetRobotNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, "GET", "/tenants/t1/robots/ghost", adminT1Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCrossTenantForbidden(t *testing.T) {
	srv, s, rec := newTestServer(t)

	_, err := s.PutRobotStatus(httptest.NewRequest("GET", "/", nil).Context(),
		store.Key{TenantID: "t1", RobotID: "r1"}, map[string]interface{}{"state": "idle"}, time.Now())
	require.NoError(t, err)

	resp := doRequest(srv, "GET", "/tenants/t1/robots/r1", userT2Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doRequest(srv, "PUT", "/tenants/t1/robots/r1/status", userT2Token,
		map[string]interface{}{"status": map[string]interface{}{"state": "hacked"}})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	assert.Len(t, rec.ByType(audit.EventAccessDenied), 2)
}

func TestEdgeFilterRejectsBeforeAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	t.Run("missing header", func(t *testing.T) {
		rec := doRequest(srv, "GET", "/tenants/t1/robots/r1", "", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, string(edge.ReasonMissingAuthorizationHeader), rec.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		rec := doRequest(srv, "GET", "/tenants/t1/robots/r1", expiredToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, string(edge.ReasonTokenExpired), rec.Body.String())
	})
}

func TestUpdateRobotStatusBadBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, "PUT", "/tenants/t1/robots/r1/status", adminT1Token,
		map[string]interface{}{"not_status": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, "POST", "/api/v1/dispatch", adminT1Token, map[string]interface{}{
		"operation": "updateRobotStatus",
		"args": map[string]interface{}{
			"tenant_id": "t1",
			"robot_id":  "r2",
			"status":    map[string]interface{}{"state": "charging"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(srv, "POST", "/api/v1/dispatch", adminT1Token, map[string]interface{}{
		"operation": "getRobot",
		"args":      map[string]interface{}{"tenant_id": "t1", "robot_id": "r2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.RobotRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "charging", got.Status["state"])
}

func TestDispatchUnknownOperation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, "POST", "/api/v1/dispatch", adminT1Token, map[string]interface{}{
		"operation": "dropTables",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, "GET", "/tenants/t1/robots/ghost", adminT1Token, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
