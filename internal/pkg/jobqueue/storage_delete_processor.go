package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// ObjectDeleter removes a stored plan file
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, storagePath string) error
}

// NewStorageDeleteHandler removes the stored file of a deleted plan
func NewStorageDeleteHandler(store ObjectDeleter) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := StorageDeleteJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("invalid storage delete payload: %w", err)
		}
		if payload.StoragePath == "" {
			// Nothing to clean up
			log.Warnf("[JobQueue] Storage delete job %s for plan %s has no storage path", job.ID, payload.PlanID)
			return nil
		}
		if err := store.DeleteObject(ctx, payload.StoragePath); err != nil {
			return fmt.Errorf("delete %s for plan %s: %w", payload.StoragePath, payload.PlanID, err)
		}
		log.Infof("[JobQueue] Removed stored file of plan %s", payload.PlanID)
		return nil
	}
}

// EnqueueStorageDelete schedules removal of a deleted plan's stored file
func (q *Queue) EnqueueStorageDelete(ctx context.Context, planID, storagePath string) error {
	payload := StorageDeleteJobPayload{
		PlanID:      planID,
		StoragePath: storagePath,
	}
	_, err := q.EnqueueJob(ctx, JobTypeStorageDelete, payload.ToMap())
	return err
}
