package mapper

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *ChatMapper) TurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	var images [][]byte
	if len(t.Images) > 0 {
		var encoded []string
		if err := json.Unmarshal(t.Images, &encoded); err == nil {
			for _, e := range encoded {
				if raw, err := base64.StdEncoding.DecodeString(e); err == nil {
					images = append(images, raw)
				}
			}
		}
	}

	var docSources []entity.DocumentSource
	if len(t.DocumentSources) > 0 {
		_ = json.Unmarshal(t.DocumentSources, &docSources)
	}

	var webSources []entity.WebSource
	if len(t.WebSources) > 0 {
		_ = json.Unmarshal(t.WebSources, &webSources)
	}

	return &entity.ChatTurn{
		Id:              t.Id,
		ChatSessionId:   t.ChatSessionId,
		Role:            t.Role,
		Content:         t.Content,
		Images:          images,
		DocumentSources: docSources,
		WebSources:      webSources,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *ChatMapper) TurnToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	var images datatypes.JSON
	if len(t.Images) > 0 {
		encoded := make([]string, len(t.Images))
		for i, raw := range t.Images {
			encoded[i] = base64.StdEncoding.EncodeToString(raw)
		}
		if b, err := json.Marshal(encoded); err == nil {
			images = datatypes.JSON(b)
		}
	}

	var docSources datatypes.JSON
	if len(t.DocumentSources) > 0 {
		if b, err := json.Marshal(t.DocumentSources); err == nil {
			docSources = datatypes.JSON(b)
		}
	}

	var webSources datatypes.JSON
	if len(t.WebSources) > 0 {
		if b, err := json.Marshal(t.WebSources); err == nil {
			webSources = datatypes.JSON(b)
		}
	}

	return &model.ChatTurn{
		Id:              t.Id,
		ChatSessionId:   t.ChatSessionId,
		Role:            t.Role,
		Content:         t.Content,
		Images:          images,
		DocumentSources: docSources,
		WebSources:      webSources,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *ChatMapper) TurnsToEntities(turns []*model.ChatTurn) []*entity.ChatTurn {
	entities := make([]*entity.ChatTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.TurnToEntity(t)
	}
	return entities
}
