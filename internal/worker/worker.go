package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rinehimer/jxtl/internal/config"
	"github.com/rinehimer/jxtl/internal/render"
	"go.uber.org/zap"
)

// Worker consumes render jobs from a redis stream
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	renderer      *render.Renderer
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	renderer *render.Renderer,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		renderer:      renderer,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// ErrorStream returns the stream failures are published to.
func (w *Worker) ErrorStream() string {
	return w.resultStream + ".errors"
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting render worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	w.done.Add(1)
	go w.processWork()

	w.logger.Info("render worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the job in flight, if any, to finish
// or for ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping render worker", zap.String("worker_id", w.id))

	w.cancel()

	finished := make(chan struct{})
	go func() {
		w.done.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop in time: %w", ctx.Err())
	}

	w.logger.Info("render worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer w.done.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    w.config.BatchSize,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if err == redis.Nil || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single render job message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing render job",
		zap.String("message_id", messageID),
	)

	request, err := parseRenderRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse render job",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(&render.Request{JobID: messageID}, err)
		w.acknowledgeMessage(messageID)
		return
	}

	if err := w.processRenderRequest(request); err != nil {
		w.logger.Error("failed to process render job",
			zap.String("message_id", messageID),
			zap.String("job_id", request.JobID),
			zap.Error(err),
		)
		w.publishError(request, err)
	}

	w.acknowledgeMessage(messageID)
}

// parseRenderRequest decodes the JSON job carried in the "data" field. Jobs
// without an ID are given one.
func parseRenderRequest(values map[string]interface{}) (*render.Request, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request render.Request
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render job: %w", err)
	}

	if request.JobID == "" {
		request.JobID = uuid.NewString()
	}

	return &request, nil
}

// processRenderRequest renders one job and publishes the output
func (w *Worker) processRenderRequest(request *render.Request) error {
	result, err := w.renderer.Render(w.ctx, request)
	if err != nil {
		return err
	}

	if err := w.publishResult(result); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	return nil
}

// encodeResult builds the result stream payload
func encodeResult(workerID string, result *render.Result, now time.Time) (string, error) {
	event := map[string]interface{}{
		"job_id":        result.JobID,
		"worker_id":     workerID,
		"output":        result.Output,
		"bytes":         result.Bytes,
		"source":        result.Source,
		"document_type": result.DocumentType,
		"duration_ms":   result.Duration.Milliseconds(),
		"timestamp":     now.UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// encodeFailure builds the error stream payload
func encodeFailure(workerID string, request *render.Request, failure error, now time.Time) (string, error) {
	event := map[string]interface{}{
		"job_id":    request.JobID,
		"worker_id": workerID,
		"error":     failure.Error(),
		"timestamp": now.UTC(),
	}
	if request.TemplateName != "" {
		event["template_name"] = request.TemplateName
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal error event: %w", err)
	}
	return string(data), nil
}

// publishResult publishes the rendered output
func (w *Worker) publishResult(result *render.Result) error {
	data, err := encodeResult(w.id, result, time.Now())
	if err != nil {
		return err
	}

	_, err = w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.resultStream,
		Values: map[string]interface{}{
			"data": data,
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	w.logger.Info("published render result",
		zap.String("job_id", result.JobID),
		zap.Int("bytes", result.Bytes),
	)

	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(request *render.Request, failure error) {
	data, err := encodeFailure(w.id, request, failure, time.Now())
	if err != nil {
		w.logger.Error("failed to encode error event", zap.Error(err))
		return
	}

	_, err = w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
		Stream: w.ErrorStream(),
		Values: map[string]interface{}{
			"data": data,
		},
	}).Result()

	if err != nil {
		w.logger.Error("failed to publish error event", zap.Error(err))
	}
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

// Submit queues a render job on stream, returning the job ID.
func Submit(ctx context.Context, client *redis.Client, stream string, request *render.Request) (string, error) {
	if request.JobID == "" {
		request.JobID = uuid.NewString()
	}

	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render job: %w", err)
	}

	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err(); err != nil {
		return "", fmt.Errorf("failed to submit render job: %w", err)
	}

	return request.JobID, nil
}
