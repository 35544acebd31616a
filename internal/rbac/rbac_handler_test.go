package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newHandlerRouter(t *testing.T, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	apperror.Init()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("employee_id", "emp-1")
		c.Set("role", role)
		c.Next()
	})
	RegisterRoutes(r.Group(""), NewHandler(newTestService(t)))
	return r
}

func serve(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, handlerEnvelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env handlerEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHandler_MyPermissions(t *testing.T) {
	t.Run("manager sees inherited grants", func(t *testing.T) {
		w, env := serve(newHandlerRouter(t, RoleManager), http.MethodGet, "/rbac/permissions/me", "")

		require.Equal(t, http.StatusOK, w.Code)
		var role domain.RoleResponse
		require.NoError(t, json.Unmarshal(env.Data, &role))
		assert.Equal(t, RoleManager, role.Name)
		assert.Contains(t, role.Permissions, domain.PermissionResponse{Resource: domain.ResourceLeave, Action: domain.ActionApprove})
		assert.Contains(t, role.Permissions, domain.PermissionResponse{Resource: domain.ResourceLeave, Action: domain.ActionCreate})
	})

	t.Run("missing role is forbidden", func(t *testing.T) {
		w, env := serve(newHandlerRouter(t, ""), http.MethodGet, "/rbac/permissions/me", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeForbidden, env.Error.Code)
	})
}

func TestHandler_Enforce(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		body       string
		wantStatus int
		wantCode   string
		allowed    bool
	}{
		{"employee may apply", RoleEmployee, `{"resource":"leave","action":"create"}`, http.StatusOK, "", true},
		{"employee may not approve", RoleEmployee, `{"resource":"leave","action":"approve"}`, http.StatusOK, "", false},
		{"missing action", RoleEmployee, `{"resource":"leave"}`, http.StatusBadRequest, apperror.CodeMissingField, false},
		{"no role", "", `{"resource":"leave","action":"read"}`, http.StatusForbidden, apperror.CodeForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := serve(newHandlerRouter(t, tt.role), http.MethodPost, "/rbac/enforce", tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}
			var resp domain.EnforceResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, tt.allowed, resp.Allowed)
		})
	}
}
