package worker

// label_worker.go
// Processes label-sheet render jobs from QueueLabels: loads the requested
// parts and writes a printable PDF of part-number barcodes to disk.

import (
	"context"
	"encoding/json"

	"partdepot/internal/infra"
	"partdepot/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LabelJobPayload is the job envelope sent to QueueLabels.
type LabelJobPayload struct {
	JobID   string   `json:"job_id"`
	PartIDs []string `json:"part_ids"`
}

type LabelWorker struct {
	repo        repository.PartRepository
	storagePath string
}

func NewLabelWorker(repo repository.PartRepository, storagePath string) *LabelWorker {
	return &LabelWorker{repo: repo, storagePath: storagePath}
}

// Process renders one label sheet. Unknown part IDs are skipped rather than
// failing the whole sheet.
func (w *LabelWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload LabelJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("label_worker: invalid payload")
		return err
	}

	ids := make([]uuid.UUID, 0, len(payload.PartIDs))
	for _, s := range payload.PartIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			log.Warn().Str("part_id", s).Msg("label_worker: skipping malformed part id")
			continue
		}
		ids = append(ids, id)
	}

	parts, err := w.repo.FindByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Str("job_id", payload.JobID).Msg("label_worker: failed to load parts")
		return err
	}

	path, err := infra.GenerateLabelSheet(parts, payload.JobID, w.storagePath)
	if err != nil {
		log.Error().Err(err).Str("job_id", payload.JobID).Msg("label_worker: render failed")
		return err
	}

	log.Info().
		Str("job_id", payload.JobID).
		Int("labels", len(parts)).
		Str("path", path).
		Msg("label_worker: sheet rendered")
	return nil
}
