package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"repairdesk/metrics"
	"repairdesk/models"
)

// StatusCounter reports complaint totals per status (repository.ComplaintRepository)
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int, error)
}

// StatusGaugeWorker is a background worker that periodically refreshes the
// repairdesk_complaints gauge from storage
type StatusGaugeWorker struct {
	counter  StatusCounter
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewStatusGaugeWorker creates a new status gauge worker
func NewStatusGaugeWorker(counter StatusCounter, interval time.Duration) *StatusGaugeWorker {
	return &StatusGaugeWorker{
		counter:  counter,
		interval: interval,
	}
}

// Start starts the worker in its own goroutine. A stopped worker can be started again.
func (w *StatusGaugeWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		log.Println("Status gauge worker is already running")
		return
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	log.Printf("Status gauge worker started (interval: %v)", w.interval)
	go w.run(w.stopChan, w.done)
}

// Stop stops the worker and waits for the current refresh to finish
func (w *StatusGaugeWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stopChan, w.done
	w.mu.Unlock()

	log.Println("Stopping status gauge worker...")
	close(stop)
	<-done
	log.Println("Status gauge worker stopped")
}

// run is the main worker loop
func (w *StatusGaugeWorker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Refresh immediately on start
	w.refresh()

	for {
		select {
		case <-ticker.C:
			w.refresh()
		case <-stop:
			return
		}
	}
}

// refresh sets the gauge for every status, zero for statuses with no rows
func (w *StatusGaugeWorker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	counts, err := w.counter.CountByStatus(ctx)
	if err != nil {
		log.Printf("[worker] failed to count complaints: %v", err)
		return
	}
	for _, status := range []models.ComplaintStatus{models.StatusPending, models.StatusInProgress, models.StatusResolved} {
		metrics.ComplaintsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
