package handler

import (
	"net/http"

	"partdepot/internal/apierror"
	"partdepot/internal/dto"
	"partdepot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PartsHandler struct{ svc service.PartService }

func NewPartsHandler(svc service.PartService) *PartsHandler {
	return &PartsHandler{svc: svc}
}

func (h *PartsHandler) Create(c *gin.Context) {
	var req dto.CreatePartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PartsHandler) List(c *gin.Context) {
	var filter dto.PartFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) GetByPartNumber(c *gin.Context) {
	resp, err := h.svc.GetByPartNumber(c.Request.Context(), c.Param("partNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdatePartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateFields(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) Move(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.MovePartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Move(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) UpdateQuantity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) AddEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AddEventRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddEvent(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PartsHandler) Locations(c *gin.Context) {
	locations, err := h.svc.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (h *PartsHandler) Stats(c *gin.Context) {
	resp, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
