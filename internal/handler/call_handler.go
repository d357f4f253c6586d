package handler

import (
	"errors"
	"net/http"

	"harbor-chat/internal/services"
	"harbor-chat/internal/transport/httpdto"
	harbor_errors "harbor-chat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CallHandler exposes the call actions over HTTP. Authorization (thread
// admin checks, identity) happens in upstream middleware; these routes
// trust it and only translate between JSON and the service.
type CallHandler struct {
	service *services.CallService
}

func NewCallHandler(service *services.CallService) *CallHandler {
	return &CallHandler{service: service}
}

func (h *CallHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/calls", h.Create)
	r.GET("/calls/:id", h.GetByID)
	r.GET("/calls/:id/participants", h.ActiveParticipants)
	r.POST("/calls/:id/join", h.Join)
	r.POST("/calls/:id/leave", h.Leave)
	r.POST("/calls/:id/end", h.End)
	r.PUT("/calls/:id/participants/:participant_id", h.Kick)
}

func (h *CallHandler) Create(c *gin.Context) {
	var req httpdto.CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	created, err := h.service.CreateCall(c.Request.Context(), req.ThreadID, req.OwnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(created))
}

func (h *CallHandler) GetByID(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid call id", "INVALID_REQUEST"))
		return
	}
	item, err := h.service.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(item))
}

func (h *CallHandler) ActiveParticipants(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid call id", "INVALID_REQUEST"))
		return
	}
	items, err := h.service.ActiveParticipants(c.Request.Context(), callID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"participants": items}))
}

func (h *CallHandler) Join(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid call id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.JoinCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	existing, err := h.service.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.service.JoinCall(c.Request.Context(), existing, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(p))
}

func (h *CallHandler) Leave(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid call id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.LeaveCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	existing, err := h.service.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.service.ParticipantOf(c.Request.Context(), existing, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.service.LeaveCall(c.Request.Context(), existing, p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"left": true}))
}

func (h *CallHandler) End(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid call id", "INVALID_REQUEST"))
		return
	}
	existing, err := h.service.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.service.EndCall(c.Request.Context(), existing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"ended": true}))
}

func (h *CallHandler) Kick(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid call id", "INVALID_REQUEST"))
		return
	}
	participantID, err := uuid.Parse(c.Param("participant_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid participant id", "INVALID_REQUEST"))
		return
	}
	var req httpdto.KickParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	existing, err := h.service.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondError(c, err)
		return
	}
	participant, err := h.service.GetParticipant(c.Request.Context(), participantID)
	if err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.service.KickParticipant(c.Request.Context(), existing, participant, req.ActorID, *req.Kicked)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(updated))
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, harbor_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, harbor_errors.ErrCallAlreadyEnded):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CALL_ENDED"))
	case errors.Is(err, harbor_errors.ErrCallAlreadyActive):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CALL_ACTIVE"))
	case errors.Is(err, harbor_errors.ErrParticipantMismatch):
		c.JSON(http.StatusUnprocessableEntity, httpdto.NewErrorResponse(err.Error(), "PARTICIPANT_MISMATCH"))
	case errors.Is(err, harbor_errors.ErrParticipantKicked):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "PARTICIPANT_KICKED"))
	case errors.Is(err, harbor_errors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "INVALID_TRANSITION"))
	case errors.Is(err, harbor_errors.ErrServiceUnavailable):
		c.JSON(http.StatusBadGateway, httpdto.NewErrorResponse(err.Error(), "SERVICE_UNAVAILABLE"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
	}
}
