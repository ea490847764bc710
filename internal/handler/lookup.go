package handler

import (
	"net/http"

	"partdepot/internal/service"

	"github.com/gin-gonic/gin"
)

// LookupHandler serves the barcode scan flow: the scanner posts whatever it
// read and gets back either the matching part or a name-search fallback.
type LookupHandler struct{ svc service.PartService }

func NewLookupHandler(svc service.PartService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

func (h *LookupHandler) Lookup(c *gin.Context) {
	resp, err := h.svc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
