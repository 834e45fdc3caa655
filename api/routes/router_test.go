package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dsdroute/dsdroute-backend/internal/orders"
	"github.com/dsdroute/dsdroute-backend/internal/users"
	pkgAuth "github.com/dsdroute/dsdroute-backend/pkg/auth"
	"github.com/dsdroute/dsdroute-backend/pkg/config"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
	"github.com/dsdroute/dsdroute-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, actor orders.Actor, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) Approve(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) Reject(ctx context.Context, actor orders.Actor, orderID uuid.UUID, reason string) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkDelivered(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, actor orders.Actor, filter orders.ListFilter, params pagination.Params) (*orders.OrderPage, error) {
	return &orders.OrderPage{Items: []orders.OrderDTO{}}, nil
}

func (stubOrdersService) Detail(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

type stubUsersService struct{}

func (stubUsersService) Create(ctx context.Context, input users.CreateUserInput) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	panic("unimplemented")
}

func (stubUsersService) List(ctx context.Context) ([]users.UserDTO, error) {
	return []users.UserDTO{}, nil
}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*users.UserDTO, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		Services{
			Orders: stubOrdersService{},
			Users:  stubUsersService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "router-test@dsdroute.io",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if env := resp.Header().Get("X-DSDRoute-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrderListAllowsSalesRep(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSalesRep))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for rep order list got %d", resp.Code)
	}
}

func TestUserRoutesRequireManageUsers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	rep := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rep.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSalesRep))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, rep)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for rep got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestOrderApprovalRequiresAdminPermission(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/approve", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSalesRep))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for rep approval got %d", resp.Code)
	}
}
