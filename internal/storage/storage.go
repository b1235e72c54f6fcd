// Package storage persists scored m6A predictions in BoltDB so calls can
// be audited and compared against later experimental validation.
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

// PredictionRecord is one persisted scoring result: the input features
// plus the derived probability and call.
type PredictionRecord struct {
	SiteID             string    `json:"site_id"`
	Timestamp          time.Time `json:"timestamp"`
	GCContent          float64   `json:"gc_content"`
	RNAType            string    `json:"RNA_type"`
	RNARegion          string    `json:"RNA_region"`
	ExonLength         float64   `json:"exon_length"`
	DistanceToJunction float64   `json:"distance_to_junction"`
	Conservation       float64   `json:"evolutionary_conservation"`
	DNA5mer            string    `json:"DNA_5mer"`
	Prob               float64   `json:"predicted_m6A_prob"`
	Status             string    `json:"predicted_m6A_status"`
}

// Store provides persistent prediction storage using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "m6a-predictions.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// StorePrediction persists one scored site. Keys are siteID_unixnano so
// repeated scorings of the same site are retained in order.
func (s *Store) StorePrediction(record PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		if b == nil {
			return fmt.Errorf("predictions bucket missing")
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", record.SiteID, record.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions returns all persisted predictions for a site, in the
// order they were stored.
func (s *Store) GetPredictions(siteID string) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		prefix := []byte(siteID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// GetPredictionsInRange returns predictions for a site within [start, end).
func (s *Store) GetPredictionsInRange(siteID string, start, end time.Time) ([]PredictionRecord, error) {
	all, err := s.GetPredictions(siteID)
	if err != nil {
		return nil, err
	}
	var records []PredictionRecord
	for _, r := range all {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			records = append(records, r)
		}
	}
	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
