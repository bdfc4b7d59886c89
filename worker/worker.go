package worker

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"finance-advisor/api/logger"
	"finance-advisor/api/models"
	"finance-advisor/api/sse"

	"go.uber.org/zap"
)

// Pool fans analysis progress events out to stream subscribers. Events for
// the same user always land on the same partition, so one user's events are
// delivered in order.
type Pool struct {
	workers    int
	partitions []chan []byte
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Metrics
	mu                 sync.RWMutex
	eventsProcessed    uint64
	processingDuration uint64
	eventsDropped      uint64
}

func NewPool(workers int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan []byte, workers)
	for i := range partitions {
		partitions[i] = make(chan []byte, 100)
	}
	return &Pool{
		workers:    workers,
		partitions: partitions,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

func (p *Pool) Start() {
	logger.Get().Info("starting event fan-out pool", zap.Int("workers", p.workers))
	for i := range p.partitions {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	logger.Get().Info("stopping event fan-out pool")
	p.cancelFunc()
	for _, ch := range p.partitions {
		close(ch)
	}
	p.wg.Wait()
}

// StageUpdate implements the orchestrator's Notifier.
func (p *Pool) StageUpdate(ev models.StageEvent) {
	p.submitEvent(ev.UserID, ev)
}

// RunCompleted implements the orchestrator's Notifier.
func (p *Pool) RunCompleted(ev models.RunCompletedEvent) {
	p.submitEvent(ev.UserID, ev)
}

func (p *Pool) submitEvent(userID string, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Get().Error("failed to marshal progress event", zap.Error(err))
		return
	}

	partition := partitionFor(userID, len(p.partitions))
	select {
	case p.partitions[partition] <- payload:
		logger.Get().Debug("progress event submitted",
			zap.Int("partition", partition))
	case <-p.ctx.Done():
		p.mu.Lock()
		p.eventsDropped++
		p.mu.Unlock()
		logger.Get().Warn("fan-out pool is stopped, event not submitted")
	default:
		p.mu.Lock()
		p.eventsDropped++
		p.mu.Unlock()
		logger.Get().Warn("fan-out partition full, event dropped",
			zap.Int("partition", partition))
	}
}

func partitionFor(userID string, partitions int) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % uint32(partitions))
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger.Get().Info("fan-out worker started", zap.Int("worker_id", id))

	for {
		select {
		case payload, ok := <-p.partitions[id]:
			if !ok {
				logger.Get().Info("fan-out worker stopping", zap.Int("worker_id", id))
				return
			}

			startTime := time.Now()

			var target struct {
				UserID string `json:"user_id"`
			}
			if err := json.Unmarshal(payload, &target); err != nil || target.UserID == "" {
				p.mu.Lock()
				p.eventsDropped++
				p.mu.Unlock()
				logger.Get().Error("failed to route progress event",
					zap.Int("worker_id", id),
					zap.Error(err))
				continue
			}

			sse.SendToUser(target.UserID, string(payload))

			p.mu.Lock()
			p.eventsProcessed++
			p.processingDuration += uint64(time.Since(startTime).Milliseconds())
			p.mu.Unlock()

		case <-p.ctx.Done():
			logger.Get().Info("fan-out worker stopping due to context cancellation",
				zap.Int("worker_id", id))
			return
		}
	}
}

// MetricsHandler returns the current metrics as JSON
func (p *Pool) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var avgProcessingTime float64
	if p.eventsProcessed > 0 {
		avgProcessingTime = float64(p.processingDuration) / float64(p.eventsProcessed)
	}

	metrics := map[string]any{
		"events_processed":  p.eventsProcessed,
		"events_dropped":    p.eventsDropped,
		"avg_processing_ms": avgProcessingTime,
		"active_workers":    p.workers,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}
