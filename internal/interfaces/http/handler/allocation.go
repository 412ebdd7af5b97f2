package handler

import (
	"context"

	appalloc "github.com/erp/settlement/internal/application/allocation"
	"github.com/erp/settlement/internal/domain/allocation"
	"github.com/erp/settlement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AllocationService is the application service behind the session endpoints
type AllocationService interface {
	OpenSession(ctx context.Context, req appalloc.OpenSessionRequest) (*allocation.Session, error)
	OpenEditSession(ctx context.Context, req appalloc.OpenEditSessionRequest) (*allocation.Session, error)
	Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*allocation.Session, error)
	Apply(ctx context.Context, tenantID, sessionID uuid.UUID, event allocation.Event) (*allocation.Session, error)
	Save(ctx context.Context, tenantID, sessionID uuid.UUID) (*appalloc.SaveResult, error)
	Discard(ctx context.Context, tenantID, sessionID uuid.UUID) error
}

// AllocationHandler exposes allocation sessions over HTTP
type AllocationHandler struct {
	BaseHandler
	service AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(service AllocationService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// RegisterRoutes mounts the session endpoints on rg
func (h *AllocationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/allocation-sessions")
	sessions.POST("", h.OpenSession)
	sessions.POST("/edit", h.OpenEditSession)
	sessions.GET("/:id", h.GetSession)
	sessions.POST("/:id/events", h.ApplyEvent)
	sessions.POST("/:id/save", h.Save)
	sessions.DELETE("/:id", h.Discard)
}

// OpenSession godoc
// @Summary      Open allocation session
// @Description  Load the open receivables or payables of a counterparty and location and start a CREATE session
// @Tags         allocation-sessions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when JWT is disabled)"
// @Param        request body dto.OpenSessionRequest true "Application type, placement and amount"
// @Success      201 {object} dto.Response{data=allocation.Session}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/allocation-sessions [post]
func (h *AllocationHandler) OpenSession(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "Tenant not resolved")
		return
	}

	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	counterpartyID, locationID := req.Placement()
	session, err := h.service.OpenSession(c.Request.Context(), appalloc.OpenSessionRequest{
		TenantID:        tenantID,
		ApplicationType: allocation.ApplicationType(req.ApplicationType),
		CounterpartyID:  counterpartyID,
		LocationID:      locationID,
		LimitAmount:     req.LimitAmount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// OpenEditSession godoc
// @Summary      Reopen saved allocation
// @Description  Hydrate the saved records of an application into an EDIT session, or a VIEW session when read_only is set
// @Tags         allocation-sessions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when JWT is disabled)"
// @Param        request body dto.OpenEditSessionRequest true "Saved application to reopen"
// @Success      201 {object} dto.Response{data=allocation.Session}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/allocation-sessions/edit [post]
func (h *AllocationHandler) OpenEditSession(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "Tenant not resolved")
		return
	}

	var req dto.OpenEditSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	counterpartyID, locationID := req.Placement()
	session, err := h.service.OpenEditSession(c.Request.Context(), appalloc.OpenEditSessionRequest{
		TenantID:        tenantID,
		ApplicationID:   uuid.MustParse(req.ApplicationID),
		ApplicationType: allocation.ApplicationType(req.ApplicationType),
		CounterpartyID:  counterpartyID,
		LocationID:      locationID,
		LimitAmount:     req.LimitAmount,
		ReadOnly:        req.ReadOnly,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// GetSession godoc
// @Summary      Get allocation session
// @Description  Return the current lines and totals of a session
// @Tags         allocation-sessions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when JWT is disabled)"
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=allocation.Session}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/allocation-sessions/{id} [get]
func (h *AllocationHandler) GetSession(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	session, err := h.service.Get(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// ApplyEvent godoc
// @Summary      Apply allocation event
// @Description  Feed one user interaction to the session and return the new state. A rejected event leaves the session unchanged.
// @Description  ADD_LINE names a document of the session's counterparty and location through line_id.
// @Tags         allocation-sessions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when JWT is disabled)"
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body dto.EventRequest true "Event"
// @Success      200 {object} dto.Response{data=allocation.Session}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/allocation-sessions/{id}/events [post]
func (h *AllocationHandler) ApplyEvent(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	session, err := h.service.Apply(c.Request.Context(), tenantID, sessionID, req.ToEvent())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Save godoc
// @Summary      Save allocation session
// @Description  Persist the session's allocations, adjust document balances and return the plan that was written
// @Tags         allocation-sessions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (when JWT is disabled)"
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=appalloc.SaveResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/allocation-sessions/{id}/save [post]
func (h *AllocationHandler) Save(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	result, err := h.service.Save(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Discard godoc
// @Summary      Discard allocation session
// @Description  Drop a session without saving
// @Tags         allocation-sessions
// @Param        X-Tenant-ID header string false "Tenant ID (when JWT is disabled)"
// @Param        id path string true "Session ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /api/v1/allocation-sessions/{id} [delete]
func (h *AllocationHandler) Discard(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	if err := h.service.Discard(c.Request.Context(), tenantID, sessionID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// sessionParams resolves the tenant and the :id parameter, writing the error response itself
func (h *AllocationHandler) sessionParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "Tenant not resolved")
		return uuid.Nil, uuid.Nil, false
	}

	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ValidationError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, uuid.MustParse(req.ID), true
}
