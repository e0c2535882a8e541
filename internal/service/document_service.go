package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/chunkstore"
	"docchat-be/pkg/ragerr"
)

type IDocumentService interface {
	Upload(ctx context.Context, request *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	GetAll(ctx context.Context) (*dto.GetAllDocumentsResponse, error)
	Delete(ctx context.Context, documentId uuid.UUID) error
}

// documentService accepts extracted document text, defers indexing to
// the background consumer via the event bus, and removes documents with
// their chunks.
type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	chunkStore chunkstore.Store
	logger     logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	chunkStore chunkstore.Store,
	sysLogger logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		publisher:  publisher,
		chunkStore: chunkStore,
		logger:     sysLogger,
	}
}

// Upload registers a document and publishes the index event. A filename
// that is already known is skipped, not re-indexed.
func (ds *documentService) Upload(ctx context.Context, request *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.DocumentRepository().FindOne(ctx, specification.ByFilename{Filename: request.Filename})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &dto.UploadDocumentResponse{
			Id:       existing.Id,
			Filename: existing.Filename,
			Status:   existing.Status,
			Skipped:  true,
		}, nil
	}

	document := entity.Document{
		Id:        uuid.New(),
		Filename:  request.Filename,
		Content:   request.Content,
		Status:    entity.DocumentStatusPending,
		Pages:     request.Pages,
		CreatedAt: time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	if err := ds.publisher.PublishIndexDocument(ctx, document.Id); err != nil {
		ds.logger.Error("document", "Failed to publish index event", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	ds.logger.Info("document", "Document accepted for indexing", map[string]interface{}{
		"document_id": document.Id.String(),
		"filename":    document.Filename,
	})

	return &dto.UploadDocumentResponse{
		Id:       document.Id,
		Filename: document.Filename,
		Status:   document.Status,
	}, nil
}

func (ds *documentService) GetAll(ctx context.Context) (*dto.GetAllDocumentsResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	response := &dto.GetAllDocumentsResponse{
		Documents: make([]dto.DocumentSummary, len(documents)),
	}
	for i, document := range documents {
		response.Documents[i] = dto.DocumentSummary{
			Id:        document.Id,
			Filename:  document.Filename,
			Status:    document.Status,
			Pages:     document.Pages,
			CreatedAt: document.CreatedAt,
		}
		if document.Status == entity.DocumentStatusIndexed {
			response.HasDocuments = true
		}
	}
	return response, nil
}

// Delete removes the chunks first so no retrieval can see them once the
// document row is gone.
func (ds *documentService) Delete(ctx context.Context, documentId uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return err
	}
	if document == nil {
		return ragerr.NotFound("document", documentId.String())
	}

	if err := ds.chunkStore.Remove(ctx, documentId); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, documentId); err != nil {
		return err
	}

	ds.logger.Info("document", "Document removed", map[string]interface{}{
		"document_id": documentId.String(),
		"filename":    document.Filename,
	})
	return nil
}
