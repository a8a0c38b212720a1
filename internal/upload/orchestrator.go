package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dineshlahiru/forms.lk-sub000/internal/localstore"
	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
	"github.com/dineshlahiru/forms.lk-sub000/internal/remote"
)

// documentNamespace is the fixed namespace for deriving remote document
// ids. Changing it orphans every previously committed document.
var documentNamespace = uuid.MustParse("84c0f2a9-51de-4f3b-9c07-3b1d25c1a6ee")

// RemoteDocumentID derives the remote document id for a local record.
// The derivation is deterministic so that re-running the pipeline after a
// partial failure converges on the same remote document instead of
// creating a duplicate.
func RemoteDocumentID(recordID string) string {
	return uuid.NewSHA1(documentNamespace, []byte(recordID)).String()
}

// Orchestrator drives one local record through the fixed remote-commit
// stage sequence: blobs, thumbnails, document, fields. Stages are strictly
// sequential because each depends on data produced by the previous one.
// The orchestrator trusts local status exclusively; it never reads remote
// state to decide what to do next.
type Orchestrator struct {
	store localstore.Store
	blobs remote.BlobStore
	docs  remote.DocumentStore
	bus   *Broadcaster
}

func NewOrchestrator(store localstore.Store, blobs remote.BlobStore, docs remote.DocumentStore, bus *Broadcaster) *Orchestrator {
	return &Orchestrator{store: store, blobs: blobs, docs: docs, bus: bus}
}

// Run executes one whole-pipeline attempt for rec and returns the remote
// document id on success. Any stage failure marks the record error with
// the causing message and returns; remote state committed by earlier
// stages is deliberately left in place (re-running overwrites it by path
// or upserts it by id, so no compensation is needed). Errors never
// propagate past this method into the broadcaster's observers.
func (o *Orchestrator) Run(ctx context.Context, rec *model.LocalRecord, retryCount int) (string, error) {
	if err := o.store.SetStatus(ctx, rec.ID, model.StatusUploading, ""); err != nil {
		return "", fmt.Errorf("mark uploading: %w", err)
	}

	a := &attempt{orch: o, rec: rec, retry: retryCount}
	docID, err := a.run(ctx)
	if err != nil {
		if serr := o.store.SetStatus(ctx, rec.ID, model.StatusError, err.Error()); serr != nil {
			logEvent(map[string]any{
				"component": "orchestrator",
				"event":     "status_write_failed",
				"record_id": rec.ID,
				"error":     serr.Error(),
			})
		}
		// Observers get the failure message verbatim as the step text.
		a.emit(a.stage, a.lastPercent, err.Error())
		return "", err
	}

	if err := o.store.SetStatus(ctx, rec.ID, model.StatusCompleted, ""); err != nil {
		return "", fmt.Errorf("mark completed: %w", err)
	}
	a.emit(StageCompleted, 100, "upload complete")
	return docID, nil
}

// attempt tracks the per-attempt progress state. Percent is clamped so the
// reported value is non-decreasing within the attempt.
type attempt struct {
	orch        *Orchestrator
	rec         *model.LocalRecord
	retry       int
	stage       Stage
	lastPercent int
}

func (a *attempt) emit(stage Stage, percent int, step string) {
	if percent < a.lastPercent {
		percent = a.lastPercent
	}
	if percent > 100 {
		percent = 100
	}
	a.lastPercent = percent
	a.stage = stage
	a.orch.bus.Publish(model.UploadProgress{
		RecordID:   a.rec.ID,
		Stage:      string(stage),
		Percent:    percent,
		Step:       step,
		RetryCount: a.retry,
	})
}

func (a *attempt) run(ctx context.Context) (string, error) {
	blobs := a.blobVariants()

	variants, err := a.uploadBlobs(ctx, blobs)
	if err != nil {
		return "", err
	}
	if err := a.uploadThumbnails(ctx, blobs, variants); err != nil {
		return "", err
	}

	docID := RemoteDocumentID(a.rec.ID)
	sp := span(StageDocument)
	a.emit(StageDocument, sp.Start, "saving form document")
	if _, err := a.orch.docs.CreateDocument(ctx, docID, documentFields(a.rec.Payload, variants)); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	sp = span(StageFields)
	a.emit(StageFields, sp.Start, "saving form fields")
	// Remote order values depend on call order, so field appends are
	// issued one at a time; fanning out would race the ordering.
	for i, f := range a.rec.Payload.Fields {
		if _, err := a.orch.docs.AppendChild(ctx, docID, fieldRecord(f), i); err != nil {
			return "", fmt.Errorf("save field %d: %w", i, err)
		}
	}

	return docID, nil
}

// blobVariants returns the blobs to commit: the primary first, then every
// declared variant whose language differs from the default.
func (a *attempt) blobVariants() []model.BlobVariant {
	out := make([]model.BlobVariant, 0, 1+len(a.rec.VariantBlobs))
	if a.rec.PrimaryBlob != nil {
		out = append(out, *a.rec.PrimaryBlob)
	}
	for _, v := range a.rec.VariantBlobs {
		if v.Language == a.rec.Payload.DefaultLanguage {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (a *attempt) uploadBlobs(ctx context.Context, blobs []model.BlobVariant) ([]model.RemoteVariant, error) {
	sp := span(StagePDF)
	a.emit(StagePDF, sp.Start, "uploading documents")

	out := make([]model.RemoteVariant, 0, len(blobs))
	for i, bv := range blobs {
		step := fmt.Sprintf("uploading document (%s)", bv.Language)
		done := i
		progress := func(transferred, total int64) {
			a.emit(StagePDF, sp.at(sliceFraction(done, len(blobs), transferred, total)), step)
		}
		path, err := a.orch.blobs.PutBlob(ctx, a.rec.ID, bv.Language, bv.PDF, progress)
		if err != nil {
			return nil, fmt.Errorf("upload document (%s): %w", bv.Language, err)
		}
		out = append(out, model.RemoteVariant{
			Language:    bv.Language,
			StoragePath: path,
			PageCount:   bv.PageCount,
			ByteSize:    int64(len(bv.PDF)),
		})
		a.emit(StagePDF, sp.at(wholeFraction(i+1, len(blobs))), step)
	}
	return out, nil
}

// uploadThumbnails commits page thumbnails for each blob in the same
// order. Thumbnails depend on the blob paths being stable but are
// otherwise independent writes; a failure here does not retract blobs
// that already committed.
func (a *attempt) uploadThumbnails(ctx context.Context, blobs []model.BlobVariant, variants []model.RemoteVariant) error {
	sp := span(StageThumbnails)
	a.emit(StageThumbnails, sp.Start, "uploading thumbnails")

	for i, bv := range blobs {
		if len(bv.Thumbnails) == 0 {
			continue
		}
		step := fmt.Sprintf("uploading thumbnails (%s)", bv.Language)
		done := i
		progress := func(transferred, total int64) {
			a.emit(StageThumbnails, sp.at(sliceFraction(done, len(blobs), transferred, total)), step)
		}
		paths, err := a.orch.blobs.PutThumbnails(ctx, a.rec.ID, bv.Language, bv.Thumbnails, progress)
		if err != nil {
			return fmt.Errorf("upload thumbnails (%s): %w", bv.Language, err)
		}
		variants[i].ThumbnailPaths = paths
		a.emit(StageThumbnails, sp.at(wholeFraction(i+1, len(blobs))), step)
	}
	return nil
}

// sliceFraction maps byte progress of item `done` out of n items into a
// fraction of the whole stage.
func sliceFraction(done, n int, transferred, total int64) float64 {
	if n == 0 {
		return 1
	}
	inner := 0.0
	if total > 0 {
		inner = float64(transferred) / float64(total)
	}
	return (float64(done) + inner) / float64(n)
}

func wholeFraction(done, n int) float64 {
	if n == 0 {
		return 1
	}
	return float64(done) / float64(n)
}

func logEvent(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "error"
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal log entry: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
