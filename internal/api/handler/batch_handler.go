package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sheetflow/internal/dest"
	"sheetflow/internal/model"
	"sheetflow/internal/pipeline"
	"sheetflow/internal/project"
	"sheetflow/internal/source"
	"sheetflow/internal/store"
)

var log = zap.NewNop().Sugar()

// SetLogger installs the process logger for batch execution.
func SetLogger(l *zap.SugaredLogger) { log = l }

// Exactly one batch runs at a time; the cache and planned regions are
// owned by the in-flight batch.
var runMu sync.Mutex

// CreateBatchRequest is the POST body: either a full project tree or an
// explicit ordered queue of units.
type CreateBatchRequest struct {
	Project *model.ProjectConfig `json:"project,omitempty"`
	Items   []model.RunItem      `json:"items,omitempty"`
}

// CreateBatch queues and starts a new extraction batch
// @Summary Create a new batch
// @Description Queue an ordered list of extraction units (or a whole project) and run them fail-fast on a background worker
// @Tags batches
// @Accept json
// @Produce json
// @Param batch body CreateBatchRequest true "Batch configuration"
// @Success 200 {object} map[string]interface{} "Batch created"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /batches [post]
func CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	items := req.Items
	if req.Project != nil {
		if err := project.Validate(req.Project); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		items = project.Flatten(req.Project)
	}
	if len(items) == 0 {
		http.Error(w, "At least one unit is required", http.StatusBadRequest)
		return
	}

	batchID := uuid.New().String()
	if err := store.SaveBatch(batchID, items); err != nil {
		http.Error(w, "Failed to save batch", http.StatusInternalServerError)
		return
	}

	go runBatch(batchID, items)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Batch created",
		"batchID": batchID,
		"status":  "pending",
		"units":   len(items),
	})
}

func runBatch(batchID string, items []model.RunItem) {
	runMu.Lock()
	defer runMu.Unlock()

	store.UpdateBatchStatus(batchID, "running")

	st := dest.NewExcelStore()
	defer st.Close()
	b := pipeline.Batch{
		Loader: source.NewLoader(),
		Store:  st,
		Log:    log,
	}

	report := b.RunAll(context.Background(), items)

	for i, res := range report.Results {
		if err := store.SaveUnitResult(batchID, i, res); err != nil {
			log.Errorw("failed to record unit result", "batch", batchID, "seq", i, "error", err)
		}
	}
	if report.OK {
		store.UpdateBatchStatus(batchID, "completed")
		return
	}
	store.UpdateBatchStatus(batchID, "failed")
	for _, res := range report.Results {
		if res.Failed() {
			store.SaveBatchError(batchID, &batchFailure{res})
			break
		}
	}
}

type batchFailure struct{ res model.RunResult }

func (f *batchFailure) Error() string {
	return f.res.ErrorCode + ": " + f.res.ErrorMessage
}

// ListBatches retrieves all batches
// @Summary List all batches
// @Description Get all batches with their current status
// @Tags batches
// @Produce json
// @Success 200 {array} map[string]interface{} "List of batches"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /batches [get]
func ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := store.ListBatches()
	if err != nil {
		http.Error(w, "Failed to fetch batches", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batches)
}

// GetBatch retrieves one batch
// @Summary Get batch
// @Description Retrieve a batch's queued units and status
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{} "Batch details"
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Router /batches/{id} [get]
func GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := pathParam(r.URL.Path, "")
	if batchID == "" {
		http.Error(w, "Batch ID is required", http.StatusBadRequest)
		return
	}
	batch, err := store.GetBatch(batchID)
	if err != nil {
		http.Error(w, "Batch not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batch)
}

// GetBatchResults retrieves per-unit results for a batch
// @Summary Get batch results
// @Description Retrieve the recorded unit results of a batch in queue order
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {array} model.RunResult "Unit results"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /batches/{id}/results [get]
func GetBatchResults(w http.ResponseWriter, r *http.Request) {
	batchID := pathParam(r.URL.Path, "/results")
	if batchID == "" {
		http.Error(w, "Batch ID is required", http.StatusBadRequest)
		return
	}
	results, err := store.GetBatchResults(batchID)
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []model.RunResult{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// pathParam extracts the batch ID segment from /api/v1/batches/{id}<suffix>.
func pathParam(path, suffix string) string {
	const prefix = "/api/v1/batches/"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	return strings.Trim(path[len(prefix):len(path)-len(suffix)], "/")
}
