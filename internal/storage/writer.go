package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/qepting91/pricewatch/internal/domain"
)

// Record kinds written to the journal.
const (
	KindObservation = "observation"
	KindFailure     = "failure"
	KindEvent       = "event"
)

// Record is one journal line.
type Record struct {
	Kind      string        `json:"kind"`
	At        time.Time     `json:"at"`
	URL       string        `json:"url"`
	Store     domain.Store  `json:"store"`
	Price     float64       `json:"price,omitempty"`
	ListPrice float64       `json:"list_price,omitempty"`
	Error     string        `json:"error,omitempty"`
	Event     *domain.Event `json:"event,omitempty"`
}

// WriterService implements the Monitor Pattern for thread safety: a single
// goroutine owns the file and everyone else sends on the channel.
type WriterService struct {
	FilePath string
}

// Start appends every record as NDJSON until input is closed. If the file
// cannot be opened the records are drained and dropped so senders never block.
func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan Record) {
	defer wg.Done()

	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Journal unavailable", "path", w.FilePath, "err", err)
		for range input {
		}
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)

	for rec := range input {
		if err := enc.Encode(rec); err != nil {
			slog.Error("Journal write failed", "path", w.FilePath, "err", err)
		}
	}
}
