package kafka

import (
	"encoding/json"
	"os"

	"finance-advisor/api/logger"
	"finance-advisor/api/models"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

var (
	EventProducer *kafka.Producer
	AnalysisTopic string = "analysis_events"
)

func InitProducer() error {
	config := &kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		"sasl.username":     os.Getenv("KAFKA_API_KEY"),
		"sasl.password":     os.Getenv("KAFKA_API_SECRET"),
		"security.protocol": "SASL_SSL",
		"sasl.mechanism":    "PLAIN",
	}

	var err error
	EventProducer, err = kafka.NewProducer(config)
	if err != nil {
		logger.Get().Error("failed to initialize Kafka producer",
			zap.String("bootstrap_servers", os.Getenv("KAFKA_BOOTSTRAP_SERVERS")),
			zap.Error(err))
		return err
	}

	logger.Get().Info("Kafka producer initialized successfully",
		zap.String("bootstrap_servers", os.Getenv("KAFKA_BOOTSTRAP_SERVERS")))
	return nil
}

// PublishRunCompleted announces a finished analysis run to downstream
// consumers (notifications, reporting). Publishing is best effort: a nil
// producer or a produce error never affects the pipeline result.
func PublishRunCompleted(ev models.RunCompletedEvent) {
	if EventProducer == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Get().Error("failed to marshal run-completed event",
			zap.String("run_id", ev.RunID),
			zap.Error(err))
		return
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &AnalysisTopic, Partition: kafka.PartitionAny},
		Key:            []byte(ev.UserID),
		Value:          payload,
	}
	if err := EventProducer.Produce(msg, nil); err != nil {
		logger.Get().Error("failed to produce run-completed event",
			zap.String("topic", AnalysisTopic),
			zap.Error(err))
		return
	}

	logger.Get().Debug("run-completed event produced",
		zap.String("topic", AnalysisTopic),
		zap.String("run_id", ev.RunID))
}

// EventNotifier adapts the producer to the analysis progress interface.
// Stage-level events stay in-process; only completed runs hit the topic.
type EventNotifier struct{}

func (EventNotifier) StageUpdate(models.StageEvent) {}

func (EventNotifier) RunCompleted(ev models.RunCompletedEvent) {
	PublishRunCompleted(ev)
}

func CloseProducer() {
	if EventProducer != nil {
		EventProducer.Flush(5000)
		EventProducer.Close()
	}
}
