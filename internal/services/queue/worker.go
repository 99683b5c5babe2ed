package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/product-copy-generator/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.GenerationJob
	if err := json.Unmarshal(msg.Body, &job); err != nil || job.ID == "" {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int("images", len(job.Images)),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing
	q.storeJobResult(ctx, &job)

	result, err := q.processJob(ctx, &job)

	// Shutdown mid-job: hand the message back to the broker.
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		q.logger.Warn("Job interrupted, requeueing",
			zap.String("job_id", job.ID),
			zap.Int("worker_id", workerID))
		job.Status = models.StatusPending
		q.storeJobResult(context.WithoutCancel(ctx), &job)
		msg.Nack(false, true)
		return
	}

	job.Result = result
	switch {
	case err != nil:
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	case result.Outcome() == models.OutcomeFailed:
		job.Status = models.StatusFailed
		job.Error = result.Summary()
		q.logger.Error("Job produced no products",
			zap.String("job_id", job.ID),
			zap.Strings("errors", result.Errors))
	default:
		job.Status = models.StatusCompleted
		job.Message = result.Summary()
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.Int("succeeded", result.SucceededCount),
			zap.Int("failed", result.FailedCount))
	}

	q.storeJobResult(ctx, &job)

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

func (q *QueueService) storeJobResult(ctx context.Context, job *models.GenerationJob) {
	job.UpdatedAt = time.Now()
	if err := q.jobs.SaveJob(ctx, job); err != nil {
		q.logger.Error("Failed to store job status",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}
