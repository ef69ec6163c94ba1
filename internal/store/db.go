// Package store records batch runs and their per-unit results in
// SQLite. The history is observational only — collision checks in the
// pipeline are based on actual destination occupancy, never on what
// this store remembers.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sheetflow/internal/model"
)

var db *sql.DB

// InitDB opens the history database and creates tables if needed.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	batchTable := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		items TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	resultTable := `
	CREATE TABLE IF NOT EXISTS unit_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		seq INTEGER,
		result TEXT,
		error_code TEXT,
		created_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS batch_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	for _, stmt := range []string{batchTable, resultTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveBatch stores a new batch with its queued items.
func SaveBatch(batchID string, items []model.RunItem) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO batches (id, items, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		batchID, itemsJSON, "pending", now, now)
	return err
}

// UpdateBatchStatus updates batch status.
func UpdateBatchStatus(batchID, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE batches SET status = ?, updated_at = ? WHERE id = ?`, status, now, batchID)
	return err
}

// SaveBatchError records a batch-level error.
func SaveBatchError(batchID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO batch_errors (batch_id, error_message, created_at) VALUES (?, ?, ?)`,
		batchID, err.Error(), now)
	return e
}

// SaveUnitResult appends one unit's result to the batch history.
func SaveUnitResult(batchID string, seq int, res model.RunResult) error {
	resJSON, err := json.Marshal(res)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO unit_results (batch_id, seq, result, error_code, created_at) VALUES (?, ?, ?, ?, ?)`,
		batchID, seq, resJSON, res.ErrorCode, now)
	return err
}

// ListBatches returns all batches with basic info, newest first.
func ListBatches() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return batches, rows.Err()
}

// GetBatch fetches a batch's queued items and status.
func GetBatch(batchID string) (map[string]interface{}, error) {
	var itemsJSON, status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT items, status, created_at, updated_at FROM batches WHERE id = ?`, batchID).
		Scan(&itemsJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var items []model.RunItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        batchID,
		"items":     items,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// GetBatchResults returns the recorded unit results in queue order.
func GetBatchResults(batchID string) ([]model.RunResult, error) {
	rows, err := db.Query(`SELECT result FROM unit_results WHERE batch_id = ? ORDER BY seq ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.RunResult
	for rows.Next() {
		var resJSON string
		if err := rows.Scan(&resJSON); err != nil {
			return nil, err
		}
		var res model.RunResult
		if err := json.Unmarshal([]byte(resJSON), &res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
