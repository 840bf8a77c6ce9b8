// Package storage persists the bot document: trade history, run statistics,
// run configuration and the active flag. The document is a single JSON file
// rewritten atomically; all writers serialize on the store mutex so
// concurrent read-modify-write cycles cannot lose updates.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"option-trader/internal/model"
)

// MaxTrades caps the persisted history to the most recent entries.
const MaxTrades = 100

// Document is the persisted structure.
type Document struct {
	Trades    []model.Trade   `json:"trades"`
	RunStats  model.RunStats  `json:"runStats"`
	RunConfig model.RunConfig `json:"runConfig"`
	RunActive bool            `json:"runActive"`
}

type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// Load reads the document, initializing a fresh one when the file does not
// exist yet.
func (s *Store) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Update runs one read-modify-write cycle under the store lock.
func (s *Store) Update(fn func(*Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	fn(&doc)

	if len(doc.Trades) > MaxTrades {
		doc.Trades = doc.Trades[len(doc.Trades)-MaxTrades:]
	}
	return s.saveLocked(doc)
}

// AppendTrade records a trade in the capped history.
func (s *Store) AppendTrade(t model.Trade) error {
	return s.Update(func(doc *Document) {
		doc.Trades = append(doc.Trades, t)
	})
}

// History returns up to limit trades, most recent first.
func (s *Store) History(limit int) ([]model.Trade, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	n := len(doc.Trades)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Trade, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, doc.Trades[i])
	}
	return out, nil
}

func (s *Store) loadLocked() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Document{RunConfig: model.DefaultRunConfig()}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: corrupt document: %v", model.ErrPersistence, err)
	}
	return doc, nil
}

// saveLocked writes to a temp file in the same directory and renames it over
// the document, so readers never observe a partial write.
func (s *Store) saveLocked(doc Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".trading_data-*")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}
