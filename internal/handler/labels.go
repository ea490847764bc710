package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"partdepot/internal/apierror"
	"partdepot/internal/dto"
	"partdepot/internal/infra"
	"partdepot/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LabelsHandler enqueues label-sheet render jobs and serves the results.
// Rendering is async: POST returns a job id, GET polls for the PDF.
type LabelsHandler struct {
	dispatcher  *worker.Dispatcher
	storagePath string
}

func NewLabelsHandler(dispatcher *worker.Dispatcher, storagePath string) *LabelsHandler {
	return &LabelsHandler{dispatcher: dispatcher, storagePath: storagePath}
}

func (h *LabelsHandler) Enqueue(c *gin.Context) {
	var req dto.LabelSheetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	jobID := uuid.NewString()
	payload := worker.LabelJobPayload{JobID: jobID, PartIDs: req.PartIDs}
	if err := h.dispatcher.EnqueueLabelSheet(c.Request.Context(), payload); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.LabelJobResponse{JobID: jobID, Status: "pending"})
}

func (h *LabelsHandler) Download(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid job id"))
		return
	}

	path := filepath.Join(h.storagePath, infra.LabelSheetFileName(jobID.String()))
	if _, err := os.Stat(path); err != nil {
		// Not rendered yet (or never requested) — the client keeps polling.
		c.JSON(http.StatusAccepted, dto.LabelJobResponse{JobID: jobID.String(), Status: "pending"})
		return
	}
	c.FileAttachment(path, infra.LabelSheetFileName(jobID.String()))
}
