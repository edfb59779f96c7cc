package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storehub/internal/handler"
	"storehub/internal/middleware"
	"storehub/internal/model"
	"storehub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOrderService routes every call through overridable function fields
type stubOrderService struct {
	applyTransition func(ctx context.Context, orderID string, action model.OrderAction, direction model.TransitionDirection, actorID string) (*service.OrderResponse, error)
	listOrders      func(ctx context.Context, page, limit int, status string) ([]service.OrderResponse, int64, error)
}

func (s *stubOrderService) CreateOrder(context.Context, service.CreateOrderRequest) (*service.OrderResponse, error) {
	return nil, nil
}

func (s *stubOrderService) GetOrder(context.Context, string) (*service.OrderResponse, error) {
	return nil, service.ErrNotFound
}

func (s *stubOrderService) ListOrders(ctx context.Context, page, limit int, status string) ([]service.OrderResponse, int64, error) {
	if s.listOrders != nil {
		return s.listOrders(ctx, page, limit, status)
	}
	return nil, 0, nil
}

func (s *stubOrderService) GetStatusLogs(context.Context, string) ([]service.StatusLogResponse, error) {
	return nil, nil
}

func (s *stubOrderService) ApplyTransition(ctx context.Context, orderID string, action model.OrderAction, direction model.TransitionDirection, actorID string) (*service.OrderResponse, error) {
	return s.applyTransition(ctx, orderID, action, direction, actorID)
}

// allowAllChecker satisfies middleware.PermissionChecker
type allowAllChecker struct{ allow bool }

func (c allowAllChecker) HasPermission(context.Context, string, string) (bool, error) {
	return c.allow, nil
}

func newOrderRouter(t *testing.T, svc service.OrderService, allowPerms bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "handler-test-secret")
	middleware.InitPermissionMiddleware(allowAllChecker{allow: allowPerms})

	router := gin.New()
	handler.NewOrderHandler(svc).RegisterRoutes(router.Group(""))
	return router
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("handler-test-secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestTransitionEndpoint_RequiresAuth(t *testing.T) {
	router := newOrderRouter(t, &stubOrderService{}, true)

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/confirm", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransitionEndpoint_Success(t *testing.T) {
	orderID := uuid.NewString()
	actorID := uuid.NewString()
	svc := &stubOrderService{
		applyTransition: func(_ context.Context, gotOrderID string, action model.OrderAction, direction model.TransitionDirection, gotActorID string) (*service.OrderResponse, error) {
			assert.Equal(t, orderID, gotOrderID)
			assert.Equal(t, model.ActionConfirm, action)
			assert.Equal(t, model.DirectionSubmit, direction)
			assert.Equal(t, actorID, gotActorID)
			return &service.OrderResponse{ID: gotOrderID, Status: model.OrderStatusConfirmed}, nil
		},
	}
	router := newOrderRouter(t, svc, true)

	body, _ := json.Marshal(map[string]string{"direction": "submit"})
	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/confirm", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, actorID))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), model.OrderStatusConfirmed)
}

func TestTransitionEndpoint_EmptyBodyAccepted(t *testing.T) {
	// No body at all is valid; the service treats an empty direction as submit.
	var gotDirection model.TransitionDirection
	svc := &stubOrderService{
		applyTransition: func(_ context.Context, orderID string, _ model.OrderAction, direction model.TransitionDirection, _ string) (*service.OrderResponse, error) {
			gotDirection = direction
			return &service.OrderResponse{ID: orderID, Status: model.OrderStatusConfirmed}, nil
		},
	}
	router := newOrderRouter(t, svc, true)

	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/confirm", nil)
	req.Header.Set("Authorization", bearerToken(t, uuid.NewString()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gotDirection)
}

func TestTransitionEndpoint_CancelDirection(t *testing.T) {
	var gotDirection model.TransitionDirection
	svc := &stubOrderService{
		applyTransition: func(_ context.Context, orderID string, _ model.OrderAction, direction model.TransitionDirection, _ string) (*service.OrderResponse, error) {
			gotDirection = direction
			return &service.OrderResponse{ID: orderID, Status: model.OrderStatusPending}, nil
		},
	}
	router := newOrderRouter(t, svc, true)

	body, _ := json.Marshal(map[string]string{"direction": "cancel"})
	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/confirm", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, uuid.NewString()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.DirectionCancel, gotDirection)
}

func TestTransitionEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"stale state", service.ErrStaleState, http.StatusConflict},
		{"not found", service.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrderService{
				applyTransition: func(context.Context, string, model.OrderAction, model.TransitionDirection, string) (*service.OrderResponse, error) {
					return nil, tc.err
				},
			}
			router := newOrderRouter(t, svc, true)

			req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/export", nil)
			req.Header.Set("Authorization", bearerToken(t, uuid.NewString()))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestTransitionEndpoint_RejectsInvalidDirection(t *testing.T) {
	svc := &stubOrderService{
		applyTransition: func(context.Context, string, model.OrderAction, model.TransitionDirection, string) (*service.OrderResponse, error) {
			t.Fatal("service must not be called for a malformed direction")
			return nil, nil
		},
	}
	router := newOrderRouter(t, svc, true)

	body, _ := json.Marshal(map[string]string{"direction": "sideways"})
	req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/confirm", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, uuid.NewString()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_PermissionDenied(t *testing.T) {
	router := newOrderRouter(t, &stubOrderService{}, false)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", bearerToken(t, uuid.NewString()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
