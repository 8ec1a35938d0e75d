package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vcontroller/internal/controller"
	"vcontroller/internal/microservices/tcp"
	"vcontroller/internal/protocol"
)

// ControllerService is the part of the controller the admin API reads and
// drives.
type ControllerService interface {
	Status() controller.Status
	ListKeys() []string
	Dispatch(msg protocol.Message)
}

type ConnectionLister interface {
	Snapshot() []tcp.ConnectionInfo
}

type Handler struct {
	ctrl  ControllerService
	conns ConnectionLister
}

func NewHandler(ctrl ControllerService, conns ConnectionLister) *Handler {
	return &Handler{ctrl: ctrl, conns: conns}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/keys", h.Keys)
	rg.GET("/connections", h.Connections)
	rg.POST("/device/reload", h.ReloadDevice)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	st := h.ctrl.Status()
	code := http.StatusOK
	status := "ok"
	if !st.Open {
		code = http.StatusServiceUnavailable
		status = "device_closed"
	}
	c.JSON(code, gin.H{
		"status":     status,
		"controller": st,
	})
}

// Keys handles GET /keys
func (h *Handler) Keys(c *gin.Context) {
	st := h.ctrl.Status()
	keys := h.ctrl.ListKeys()
	c.JSON(http.StatusOK, gin.H{
		"profile": st.Profile,
		"count":   len(keys),
		"keys":    keys,
	})
}

// Connections handles GET /connections
func (h *Handler) Connections(c *gin.Context) {
	list := h.conns.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"count":       len(list),
		"connections": list,
	})
}

// ReloadDevice handles POST /device/reload. It goes through the same path as
// a CONTROL/RELOAD_DEVICE frame.
func (h *Handler) ReloadDevice(c *gin.Context) {
	before := h.ctrl.Status().Generation
	h.ctrl.Dispatch(protocol.NewControl(protocol.ActionReloadDevice))
	st := h.ctrl.Status()

	if !st.Open || st.Generation == before {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "device reload failed",
			"controller": st,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"controller": st})
}
