package balance_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	balanceMock "go-leave/internal/balance/mock"
	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
	apperror.Init()
}

func TestBalanceHandler_GetMine(t *testing.T) {
	employeeID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := balanceMock.NewMockService(ctrl)
		h := balance.NewHandler(svc)

		svc.EXPECT().GetBalance(gomock.Any(), employeeID).
			Return(balance.BalanceResponse{EmployeeID: employeeID, Sick: 2, Medical: 12, Privileged: 18}, nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/balances/me", nil)
		c.Set("employee_id", employeeID)

		h.GetMine(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"sick":2`)
	})

	t.Run("not seeded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := balanceMock.NewMockService(ctrl)
		h := balance.NewHandler(svc)

		svc.EXPECT().GetBalance(gomock.Any(), employeeID).Return(balance.BalanceResponse{}, balanceerrors.ErrBalanceNotFound)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/balances/me", nil)
		c.Set("employee_id", employeeID)

		h.GetMine(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeNotFound)
	})
}

func TestBalanceHandler_Seed(t *testing.T) {
	t.Run("validation error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := balance.NewHandler(balanceMock.NewMockService(ctrl))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req := httptest.NewRequest(http.MethodPost, "/balances", strings.NewReader(`{"employee_id":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		h.Seed(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"employee_id"`)
	})

	t.Run("already seeded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := balanceMock.NewMockService(ctrl)
		h := balance.NewHandler(svc)
		employeeID := uuid.NewString()

		svc.EXPECT().Seed(gomock.Any(), balance.SeedBalanceRequest{EmployeeID: employeeID}).
			Return(balance.BalanceResponse{}, balanceerrors.ErrBalanceAlreadySeeded)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		req := httptest.NewRequest(http.MethodPost, "/balances", strings.NewReader(`{"employee_id":"`+employeeID+`"}`))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		h.Seed(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
