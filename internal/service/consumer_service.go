package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/chunkstore"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService indexes uploaded documents in the background: it
// consumes index-document events, pushes the extracted text through the
// chunk store and flips the document status.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	chunkStore chunkstore.Store
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	chunkStore chunkstore.Store,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		chunkStore: chunkStore,
		logger:     sysLogger,
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
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "Failed to unmarshal index event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads would retry forever
		return
	}

	cs.logger.Info("consumer", "Indexing document", map[string]interface{}{
		"document_id": payload.DocumentId.String(),
	})

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("consumer", "Failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}
	if document == nil {
		// Deleted before the worker got to it.
		msg.Ack()
		return
	}

	if err := cs.chunkStore.Index(ctx, document.Id, document.Filename, document.Content, document.Pages); err != nil {
		cs.logger.Error("consumer", "Indexing failed", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err.Error(),
		})
		cs.setStatus(ctx, document, entity.DocumentStatusFailed)
		msg.Nack()
		return
	}

	cs.setStatus(ctx, document, entity.DocumentStatusIndexed)
	cs.logger.Info("consumer", "Document indexed", map[string]interface{}{
		"document_id": document.Id.String(),
		"filename":    document.Filename,
	})
	msg.Ack()
}

func (cs *consumerService) setStatus(ctx context.Context, document *entity.Document, status string) {
	document.Status = status
	now := time.Now()
	document.UpdatedAt = &now
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		cs.logger.Error("consumer", "Failed to update document status", map[string]interface{}{
			"document_id": document.Id.String(),
			"status":      status,
			"error":       err.Error(),
		})
	}
}
