package service

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/constant"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/rag/executor"
	"docchat-be/pkg/ragerr"
	"docchat-be/pkg/store"
)

const maxImagesPerTurn = 4

type IChatService interface {
	CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	ClearHistory(ctx context.Context, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

// chatService owns session state and drives the orchestration pipeline.
// All reads and writes for one session key run under that session's
// lock, held from the history read through the turn append.
type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	pipeline   *executor.Pipeline
	locks      *memory.SessionLocks
	logger     logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	pipeline *executor.Pipeline,
	locks *memory.SessionLocks,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		pipeline:   pipeline,
		locks:      locks,
		logger:     sysLogger,
	}
}

func (cs *chatService) CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	title := request.Title
	if title == "" {
		title = "New chat"
	}

	session := entity.ChatSession{
		Id:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Id:    session.Id,
		Title: session.Title,
	}, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return responses, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if _, err := cs.requireSession(ctx, uow, sessionId); err != nil {
		return nil, err
	}

	turns, err := cs.loadTurns(ctx, uow, sessionId)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.GetChatHistoryResponse, len(turns))
	for i, turn := range turns {
		responses[i] = &dto.GetChatHistoryResponse{
			Id:              turn.Id,
			Role:            turn.Role,
			Content:         turn.Content,
			CreatedAt:       turn.CreatedAt,
			DocumentSources: toDocumentSourceDTOs(turn.DocumentSources),
			WebSources:      toWebSourceDTOs(turn.WebSources),
		}
	}
	return responses, nil
}

// SendChat runs one full turn: history read, decompose, route, retrieve,
// compose, then append both turns. Nothing is persisted when generation
// fails.
func (cs *chatService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	images, err := decodeImages(request.Images)
	if err != nil {
		return nil, err
	}

	categories := make([]store.Category, len(request.SearchCategories))
	for i, c := range request.SearchCategories {
		categories[i] = store.Category(c)
	}

	release := cs.locks.Acquire(request.ChatSessionId.String())
	defer release()

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	session, err := cs.requireSession(ctx, uow, request.ChatSessionId)
	if err != nil {
		return nil, err
	}

	history, err := cs.loadTurns(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	indexedCount, err := uow.DocumentRepository().Count(ctx,
		specification.FilterBy{Field: "status", Value: entity.DocumentStatusIndexed})
	if err != nil {
		return nil, err
	}
	hasDocuments := indexedCount > 0

	result, err := cs.pipeline.Execute(ctx, &executor.Request{
		Query:        request.Query,
		History:      history,
		Images:       images,
		RagEnabled:   request.RagEnabled,
		WebEnabled:   request.WebEnabled,
		HasDocuments: hasDocuments,
		Categories:   categories,
		ModelId:      request.ModelId,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	humanTurn := &entity.ChatTurn{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatRoleHuman,
		Content:       request.Query,
		Images:        images,
		CreatedAt:     now,
	}
	assistantTurn := &entity.ChatTurn{
		Id:              uuid.New(),
		ChatSessionId:   session.Id,
		Role:            constant.ChatRoleAssistant,
		Content:         result.Answer,
		DocumentSources: result.DocumentSources,
		WebSources:      result.WebSources,
		CreatedAt:       now.Add(time.Millisecond), // keep ordering stable under created_at
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatTurnRepository().Create(ctx, humanTurn); err != nil {
		return nil, err
	}
	if err := uow.ChatTurnRepository().Create(ctx, assistantTurn); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		session.Title = truncateTitle(request.Query)
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		ChatSessionId:   session.Id,
		AnswerText:      result.Answer,
		DocumentSources: toDocumentSourceDTOs(result.DocumentSources),
		WebSources:      toWebSourceDTOs(result.WebSources),
		Complexity:      string(result.Complexity),
		HasDocuments:    hasDocuments,
		CreatedAt:       assistantTurn.CreatedAt,
	}, nil
}

// ClearHistory empties the turn list but keeps the session and its
// uploaded-document association.
func (cs *chatService) ClearHistory(ctx context.Context, sessionId uuid.UUID) error {
	release := cs.locks.Acquire(sessionId.String())
	defer release()

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if _, err := cs.requireSession(ctx, uow, sessionId); err != nil {
		return err
	}
	return uow.ChatTurnRepository().DeleteBySessionId(ctx, sessionId)
}

// DeleteSession is terminal: every later operation on the key fails
// with NotFoundError.
func (cs *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	release := cs.locks.Acquire(sessionId.String())

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if _, err := cs.requireSession(ctx, uow, sessionId); err != nil {
		release()
		return err
	}

	err := func() error {
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer uow.Rollback()

		if err := uow.ChatTurnRepository().DeleteBySessionId(ctx, sessionId); err != nil {
			return err
		}
		if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
			return err
		}
		return uow.Commit()
	}()

	release()
	if err == nil {
		cs.locks.Forget(sessionId.String())
	}
	return err
}

func (cs *chatService) requireSession(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ragerr.NotFound("chat session", sessionId.String())
	}
	return session, nil
}

func (cs *chatService) loadTurns(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]*entity.ChatTurn, error) {
	return uow.ChatTurnRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

func decodeImages(encoded []string) ([][]byte, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	if len(encoded) > maxImagesPerTurn {
		return nil, ragerr.Configuration("at most %d images per turn, got %d", maxImagesPerTurn, len(encoded))
	}
	images := make([][]byte, len(encoded))
	for i, e := range encoded {
		raw, err := base64.StdEncoding.DecodeString(e)
		if err != nil {
			return nil, ragerr.Configuration("image %d is not valid base64", i)
		}
		images[i] = raw
	}
	return images, nil
}

func truncateTitle(query string) string {
	const maxTitle = 60
	runes := []rune(query)
	if len(runes) <= maxTitle {
		return query
	}
	return string(runes[:maxTitle]) + "..."
}

func toDocumentSourceDTOs(sources []entity.DocumentSource) []dto.DocumentSourceDTO {
	if len(sources) == 0 {
		return nil
	}
	dtos := make([]dto.DocumentSourceDTO, len(sources))
	for i, s := range sources {
		dtos[i] = dto.DocumentSourceDTO{Filename: s.Filename, Page: s.Page, Excerpt: s.Excerpt}
	}
	return dtos
}

func toWebSourceDTOs(sources []entity.WebSource) []dto.WebSourceDTO {
	if len(sources) == 0 {
		return nil
	}
	dtos := make([]dto.WebSourceDTO, len(sources))
	for i, s := range sources {
		dtos[i] = dto.WebSourceDTO{Title: s.Title, URL: s.URL}
	}
	return dtos
}
