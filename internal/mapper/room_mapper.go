package mapper

import (
	"encoding/json"
	"time"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/model"
)

type RoomMapper struct{}

func NewRoomMapper() *RoomMapper {
	return &RoomMapper{}
}

func (m *RoomMapper) ToEntity(e *model.Room) *entity.Room {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var roster []entity.Participant
	if len(e.Roster) > 0 {
		_ = json.Unmarshal(e.Roster, &roster)
	}

	return &entity.Room{
		Id:         e.Id,
		Title:      e.Title,
		Type:       e.Type,
		Recurrence: e.Recurrence,
		Roster:     roster,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *RoomMapper) ToModel(e *entity.Room) *model.Room {
	if e == nil {
		return nil
	}

	roster, _ := json.Marshal(e.Roster)

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.Room{
		Id:         e.Id,
		Title:      e.Title,
		Type:       e.Type,
		Recurrence: e.Recurrence,
		Roster:     roster,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}
