// Package storage persists prediction records for the m6A service. It uses
// BoltDB as the storage engine and keys records by sequence and timestamp,
// which makes per-sequence history and time-range queries cheap cursor
// scans.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// PredictionRecord is one scored sample as persisted.
type PredictionRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	DNA5mer      string    `json:"DNA_5mer"`
	RNAType      string    `json:"RNA_type"`
	RNARegion    string    `json:"RNA_region"`
	GCContent    float64   `json:"gc_content"`
	Conservation float64   `json:"evolutionary_conservation"`
	Prob         float64   `json:"predicted_m6A_prob"`
	Status       string    `json:"predicted_m6A_status"`
	Source       string    `json:"source"` // "single", "batch", or "server"
}

// Store provides persistent storage for prediction records.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the prediction database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "m6a-predictions.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create predictions bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction appends one prediction record.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", rec.DNA5mer, rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions returns all records for a sequence within [start, end],
// oldest first.
func (s *Store) GetPredictions(seq string, start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		prefix := []byte(seq + "_")
		startKey := []byte(fmt.Sprintf("%s_%d", seq, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%s_%d", seq, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}

			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// CountPredictions returns the total number of stored records.
func (s *Store) CountPredictions() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
