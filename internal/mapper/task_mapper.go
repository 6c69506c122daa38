package mapper

import (
	"time"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/model"
)

type TaskMapper struct{}

func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

func (m *TaskMapper) ToEntity(e *model.Task) *entity.Task {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.Task{
		Id:          e.Id,
		RoomId:      e.RoomId,
		MeetingId:   e.MeetingId,
		Description: e.Description,
		Assignee:    e.Assignee,
		DueHint:     e.DueHint,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *TaskMapper) ToModel(e *entity.Task) *model.Task {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Task{
		Id:          e.Id,
		RoomId:      e.RoomId,
		MeetingId:   e.MeetingId,
		Description: e.Description,
		Assignee:    e.Assignee,
		DueHint:     e.DueHint,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *TaskMapper) ToModels(tasks []*entity.Task) []*model.Task {
	models := make([]*model.Task, len(tasks))
	for i, e := range tasks {
		models[i] = m.ToModel(e)
	}
	return models
}
