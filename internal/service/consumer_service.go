package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/repository/specification"
	"dataset-discovery-be/internal/repository/unitofwork"
	"dataset-discovery-be/pkg/embedding"
	"dataset-discovery-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    EventPublisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher EventPublisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDatasetMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Embedding metadata for dataset: %s", payload.DatasetName)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	dataset, err := uow.DatasetRepository().FindOne(ctx, specification.ByNames{Names: []string{payload.DatasetName}})
	if err != nil {
		log.Printf("[ERROR] Failed to get dataset %s: %v", payload.DatasetName, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if dataset == nil {
		log.Printf("[ERROR] Dataset not found: %s", payload.DatasetName)
		msg.Ack() // Dataset deleted? Ack.
		return
	}

	schemaRes, err := cs.embeddingProvider.Generate(ctx, schemaDocument(dataset), "RETRIEVAL_DOCUMENT")
	if err != nil {
		log.Printf("[ERROR] Failed to embed schema text for %s: %v", dataset.Name, err)
		msg.Nack()
		return
	}

	queryRes, err := cs.embeddingProvider.Generate(ctx, queryDocument(dataset), "RETRIEVAL_DOCUMENT")
	if err != nil {
		log.Printf("[ERROR] Failed to embed query text for %s: %v", dataset.Name, err)
		msg.Nack()
		return
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DatasetRepository().UpdateEmbeddings(ctx, dataset.Name, schemaRes.Embedding.Values, queryRes.Embedding.Values); err != nil {
		log.Printf("[ERROR] Failed to store embeddings for %s: %v", dataset.Name, err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.NewDatasetIndexed(dataset.Name)); err != nil {
			log.Printf("[WARN] Failed to publish indexed event for %s: %v", dataset.Name, err)
		}
	}

	log.Printf("[SUCCESS] Dataset embedded: %s", dataset.Name)
	msg.Ack()
}

// schemaDocument is the text behind the schema_embedding column: the
// inferred schema plus descriptive metadata.
func schemaDocument(d *entity.Dataset) string {
	return fmt.Sprintf(`Dataset: %s
%s

%s

Tags: %s`,
		d.Name,
		d.Description,
		d.SchemaText,
		strings.Join(d.Tags, ", "),
	)
}

// queryDocument is the text behind the query_embedding column: the
// queries this dataset plausibly answers.
func queryDocument(d *entity.Dataset) string {
	if len(d.PreviousQueries) == 0 {
		return d.Name + " " + d.Description
	}
	return strings.Join(d.PreviousQueries, "\n")
}
