package admin_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vcontroller/internal/controller"
	"vcontroller/internal/microservices/admin"
	"vcontroller/internal/microservices/tcp"
	"vcontroller/internal/protocol"
)

// --- MOCKS ---

type MockController struct {
	mock.Mock
}

func (m *MockController) Status() controller.Status {
	args := m.Called()
	return args.Get(0).(controller.Status)
}

func (m *MockController) ListKeys() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockController) Dispatch(msg protocol.Message) {
	m.Called(msg)
}

type MockConnections struct {
	mock.Mock
}

func (m *MockConnections) Snapshot() []tcp.ConnectionInfo {
	args := m.Called()
	return args.Get(0).([]tcp.ConnectionInfo)
}

// --- SETUP ---

func setupRouter(ctrl *MockController, conns *MockConnections) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return admin.NewRouter(admin.NewHandler(ctrl, conns), logger)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

var openStatus = controller.Status{
	Name:       "Player 1",
	Profile:    "joystick",
	Device:     "virtual_controller",
	Open:       true,
	Generation: 1,
}

// --- TESTS ---

func TestHandler_Health(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Status").Return(openStatus).Once()
	r := setupRouter(ctrl, new(MockConnections))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Player 1", body["controller"].(map[string]any)["name"])
	ctrl.AssertExpectations(t)
}

func TestHandler_HealthDeviceClosed(t *testing.T) {
	ctrl := new(MockController)
	closed := openStatus
	closed.Open = false
	ctrl.On("Status").Return(closed)
	r := setupRouter(ctrl, new(MockConnections))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "device_closed", decode(t, w)["status"])
}

func TestHandler_Keys(t *testing.T) {
	ctrl := new(MockController)
	ctrl.On("Status").Return(openStatus)
	ctrl.On("ListKeys").Return([]string{"A", "KEY.ENTER", "Z"})
	r := setupRouter(ctrl, new(MockConnections))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/keys", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "joystick", body["profile"])
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, []any{"A", "KEY.ENTER", "Z"}, body["keys"])
}

func TestHandler_Connections(t *testing.T) {
	conns := new(MockConnections)
	conns.On("Snapshot").Return([]tcp.ConnectionInfo{
		{ID: "c1", RemoteAddr: "127.0.0.1:5000", State: "RUNNING", Frames: 4, ConnectedAt: time.Unix(0, 0).UTC()},
	})
	r := setupRouter(new(MockController), conns)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/connections", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	first := body["connections"].([]any)[0].(map[string]any)
	assert.Equal(t, "c1", first["id"])
	assert.Equal(t, "RUNNING", first["state"])
	conns.AssertExpectations(t)
}

func TestHandler_ReloadDevice(t *testing.T) {
	ctrl := new(MockController)
	reloaded := openStatus
	reloaded.Generation = 2
	ctrl.On("Status").Return(openStatus).Once()
	ctrl.On("Dispatch", protocol.NewControl(protocol.ActionReloadDevice)).Return().Once()
	ctrl.On("Status").Return(reloaded).Once()
	r := setupRouter(ctrl, new(MockConnections))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/device/reload", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	ctrl.AssertExpectations(t)
}

func TestHandler_ReloadDeviceFailure(t *testing.T) {
	ctrl := new(MockController)
	failed := openStatus
	failed.Open = false
	ctrl.On("Status").Return(openStatus).Once()
	ctrl.On("Dispatch", mock.Anything).Return().Once()
	ctrl.On("Status").Return(failed).Once()
	r := setupRouter(ctrl, new(MockConnections))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/device/reload", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "device reload failed", decode(t, w)["error"])
}

func TestHandler_MethodNotAllowedPath(t *testing.T) {
	r := setupRouter(new(MockController), new(MockConnections))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/device/reload", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := new(MockController)
	ctrl.On("Status").Return(openStatus)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := admin.NewServer(ln.Addr().String(), admin.NewHandler(ctrl, new(MockConnections)), nil)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-served)
}
