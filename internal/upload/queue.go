package upload

import (
	"context"
	"errors"
	"sync"

	"github.com/dineshlahiru/forms.lk-sub000/internal/localstore"
	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

var (
	ErrAlreadyInFlight  = errors.New("an upload attempt for this record is already in flight")
	ErrAlreadyCompleted = errors.New("record already completed")
	ErrNotCompleted     = errors.New("record is not completed")
)

// Coordinator is the queue surface exposed to observers (HTTP handlers,
// admin tooling).
type Coordinator interface {
	PendingList(ctx context.Context) ([]model.LocalRecord, error)
	Retry(ctx context.Context, id string) (string, error)
}

// Queue decides which pending records are handed to the orchestrator and
// when. Its one hard rule is per-record single flight: at most one attempt
// may be active for a given record id at any instant, which is what
// prevents duplicate remote document creation. How many distinct records
// upload concurrently is a deployment knob, not a correctness matter.
type Queue struct {
	store   localstore.Store
	orch    *Orchestrator
	metrics *Metrics
	workers chan struct{}

	mu       sync.Mutex
	inflight map[string]struct{}
	attempts map[string]int
}

var _ Coordinator = (*Queue)(nil)

func NewQueue(store localstore.Store, orch *Orchestrator, metrics *Metrics, workers int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		store:    store,
		orch:     orch,
		metrics:  metrics,
		workers:  make(chan struct{}, workers),
		inflight: make(map[string]struct{}),
		attempts: make(map[string]int),
	}
}

// Enqueue starts an asynchronous upload attempt for a newly created (or
// resumed) record. The in-flight reservation is taken synchronously so a
// racing second Enqueue for the same id fails fast.
func (q *Queue) Enqueue(ctx context.Context, id string) error {
	rec, err := q.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := q.acquire(id); err != nil {
		return err
	}

	go func() {
		defer q.release(id)
		// The attempt outlives the caller's request; only its values
		// (trace context and the like) are carried over.
		if _, err := q.attempt(context.WithoutCancel(ctx), rec); err != nil {
			logEvent(map[string]any{
				"component": "queue",
				"event":     "upload_failed",
				"record_id": id,
				"error":     err.Error(),
			})
		}
	}()
	return nil
}

// Retry re-runs the whole pipeline from stage one for a failed (or stuck)
// record and returns the remote document id on success. Called by the
// operator; completed records are rejected.
func (q *Queue) Retry(ctx context.Context, id string) (string, error) {
	rec, err := q.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if err := q.acquire(id); err != nil {
		return "", err
	}
	defer q.release(id)

	return q.attempt(ctx, rec)
}

// PendingList returns every record that has not reached completed,
// including failed ones awaiting retry.
func (q *Queue) PendingList(ctx context.Context) ([]model.LocalRecord, error) {
	recs, err := q.store.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]model.LocalRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.UploadStatus != model.StatusCompleted {
			pending = append(pending, rec)
		}
	}
	if q.metrics != nil {
		q.metrics.SetPending(len(pending))
	}
	return pending, nil
}

// ResumePending re-enqueues every non-completed record. Run at daemon
// start so that records interrupted mid-flight (still marked uploading)
// and failed records are re-driven without operator action. Returns how
// many attempts were started.
func (q *Queue) ResumePending(ctx context.Context) (int, error) {
	pending, err := q.PendingList(ctx)
	if err != nil {
		return 0, err
	}
	started := 0
	for _, rec := range pending {
		if err := q.Enqueue(ctx, rec.ID); err != nil {
			if errors.Is(err, ErrAlreadyInFlight) {
				continue
			}
			return started, err
		}
		started++
	}
	return started, nil
}

// RemoveCompleted evicts a record whose remote commit has succeeded.
// Eviction is a caller decision; the pipeline never deletes on its own.
func (q *Queue) RemoveCompleted(ctx context.Context, id string) error {
	rec, err := q.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.UploadStatus != model.StatusCompleted {
		return ErrNotCompleted
	}
	return q.store.Remove(ctx, id)
}

func (q *Queue) fetch(ctx context.Context, id string) (*model.LocalRecord, error) {
	rec, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UploadStatus == model.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	return rec, nil
}

func (q *Queue) acquire(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inflight[id]; ok {
		return ErrAlreadyInFlight
	}
	q.inflight[id] = struct{}{}
	return nil
}

func (q *Queue) release(id string) {
	q.mu.Lock()
	delete(q.inflight, id)
	q.mu.Unlock()
}

func (q *Queue) attempt(ctx context.Context, rec *model.LocalRecord) (string, error) {
	q.workers <- struct{}{}
	defer func() { <-q.workers }()

	q.mu.Lock()
	retry := q.attempts[rec.ID]
	q.attempts[rec.ID]++
	q.mu.Unlock()

	docID, err := q.orch.Run(ctx, rec, retry)
	if q.metrics != nil {
		q.metrics.ObserveAttempt(err)
	}
	return docID, err
}
