package implementation

import (
	"context"
	"errors"

	"ai-meeting-be/internal/entity"
	"ai-meeting-be/internal/mapper"
	"ai-meeting-be/internal/model"
	"ai-meeting-be/internal/repository/contract"
	"ai-meeting-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeetingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MeetingMapper
}

func NewMeetingRepository(db *gorm.DB) contract.MeetingRepository {
	return &MeetingRepositoryImpl{
		db:     db,
		mapper: mapper.NewMeetingMapper(),
	}
}

func (r *MeetingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MeetingRepositoryImpl) Create(ctx context.Context, meeting *entity.Meeting) error {
	m := r.mapper.ToModel(meeting)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*meeting = *r.mapper.ToEntity(m)
	return nil
}

func (r *MeetingRepositoryImpl) Update(ctx context.Context, meeting *entity.Meeting) error {
	m := r.mapper.ToModel(meeting)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*meeting = *r.mapper.ToEntity(m)
	return nil
}

func (r *MeetingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Meeting, error) {
	var m model.Meeting
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MeetingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error) {
	var models []*model.Meeting
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

// FindAllLean excludes the transcripts blob so batched retrieval reads stay
// cheap even for long meetings.
func (r *MeetingRepositoryImpl) FindAllLean(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error) {
	var models []*model.Meeting
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Omit("transcripts").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MeetingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Meeting{}).Count(&count).Error
	return count, err
}

// TransitionStatus is a compare-and-swap on processing_status. Zero rows
// affected means the meeting was not in the expected state (another trigger
// already advanced it) and false is returned.
func (r *MeetingRepositoryImpl) TransitionStatus(ctx context.Context, meetingId uuid.UUID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("id = ?", meetingId).
		Where("processing_status = ?", from).
		Update("processing_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
