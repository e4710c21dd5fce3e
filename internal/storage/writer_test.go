package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/pricewatch/internal/domain"
)

func TestWriterService_AppendsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for round := 0; round < 2; round++ {
		input := make(chan Record, 2)
		var wg sync.WaitGroup
		wg.Add(1)
		w := &WriterService{FilePath: path}
		go w.Start(&wg, input)

		input <- Record{Kind: KindObservation, At: at, URL: "u", Store: domain.StoreZara, Price: 99.5}
		input <- Record{Kind: KindEvent, At: at, URL: "u", Store: domain.StoreZara,
			Event: &domain.Event{Kind: domain.EventPriceDrop, CurrentPrice: 99.5, OldPrice: 120}}
		close(input)
		wg.Wait()
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var recs []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		recs = append(recs, r)
	}
	require.Len(t, recs, 4, "second run appends")
	assert.Equal(t, KindObservation, recs[0].Kind)
	assert.Equal(t, 99.5, recs[0].Price)
	require.NotNil(t, recs[1].Event)
	assert.Equal(t, domain.EventPriceDrop, recs[1].Event.Kind)
}

func TestWriterService_DrainsWhenFileUnavailable(t *testing.T) {
	w := &WriterService{FilePath: filepath.Join(t.TempDir(), "missing-dir", "journal.ndjson")}
	input := make(chan Record)
	var wg sync.WaitGroup
	wg.Add(1)
	go w.Start(&wg, input)

	input <- Record{Kind: KindFailure, Error: "boom"}
	close(input)
	wg.Wait()
}
