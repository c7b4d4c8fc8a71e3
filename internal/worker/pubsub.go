package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler receives catalogue jobs from a Pub/Sub subscription.
type PubSubHandler struct {
	*Dispatcher

	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// RefreshMessage is the job payload, e.g. {"job_type":"catalogue_refresh"}.
type RefreshMessage struct {
	JobType   string `json:"job_type"`
	CheckOnly bool   `json:"check_only,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Refresh jobs are long-running; process few at a time.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 2
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		Dispatcher:       NewDispatcher(cfg.RefreshJob, cfg.Logger),
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	event := h.logger.Debug().
		Str("message_id", msg.ID).
		Time("published_at", msg.PublishTime)
	if msg.DeliveryAttempt != nil {
		event = event.Int("delivery_attempt", *msg.DeliveryAttempt)
	}
	event.Msg("received catalogue job")

	if h.Dispatch(ctx, msg.Data) {
		msg.Ack()
		return
	}
	msg.Nack()
}

// Dispatcher routes job messages to the refresh job.
type Dispatcher struct {
	refreshJob *RefreshJob
	logger     zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(job *RefreshJob, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{refreshJob: job, logger: logger}
}

// Dispatch runs the job described by data and reports whether the message
// should be acknowledged. Only failed jobs are redelivered: a message that
// cannot be parsed or names an unknown job will never succeed.
func (h *Dispatcher) Dispatch(ctx context.Context, data []byte) bool {
	var job RefreshMessage
	if err := json.Unmarshal(data, &job); err != nil {
		h.logger.Error().Err(err).Int("bytes", len(data)).Msg("dropping malformed catalogue job")
		return true
	}

	var result *RefreshResult
	switch {
	case job.JobType == JobCatalogueRefresh && !job.CheckOnly:
		result = h.refreshJob.Run(ctx)
	case job.JobType == JobCatalogueRefresh, job.JobType == JobHealthCheck:
		result = h.refreshJob.DryRun(ctx)
	default:
		h.logger.Warn().Str("job_type", job.JobType).Msg("dropping unknown job type")
		return true
	}

	if result.Err != nil {
		h.logger.Error().
			Err(result.Err).
			Str("job_type", job.JobType).
			Str("source", result.Source).
			Msg("catalogue job failed")
		return false
	}

	h.logger.Info().
		Str("job_type", job.JobType).
		Bool("installed", result.Installed).
		Int("loaded", result.Report.Loaded).
		Dur("duration", result.Duration).
		Msg("catalogue job completed")
	return true
}
