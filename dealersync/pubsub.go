package dealersync

import (
	"context"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"cloud.google.com/go/pubsub"
)

// JobEventMessage is published when a job reaches a terminal state so
// downstream consumers (reporting, alerting) can react without polling.
type JobEventMessage struct {
	JobId        string `json:"jobId"`
	DealerId     string `json:"dealerId"`
	DocumentType string `json:"documentType"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Persisted    int    `json:"persisted"`
	Skipped      int    `json:"skipped"`
	CompletedAt  string `json:"completedAt,omitempty"`
}

func PublishJobEvent(ctx context.Context, job Job) error {
	topicName := strings.TrimSpace(os.Getenv("SYNC_EVENTS_TOPIC"))
	if topicName == "" {
		topicName = "dealer-sync-events"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if envBoolDefault("SYNC_EVENTS_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	message := JobEventMessage{
		JobId:        job.ID,
		DealerId:     job.DealerId,
		DocumentType: job.DocumentType,
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
	}
	if job.Result != nil {
		message.Persisted = job.Result.RecordsPersisted
		message.Skipped = job.Result.RecordsSkippedDuplicate
	}
	if job.CompletedAt != nil {
		message.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}

	payload, err := utils.MarshalToJSON(message)
	if err != nil {
		return err
	}
	res := topic.Publish(ctx, &pubsub.Message{Data: []byte(payload)})
	_, err = res.Get(ctx)
	return err
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
