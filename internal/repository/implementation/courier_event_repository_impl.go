package implementation

import (
	"context"
	"errors"
	"time"

	"shopnest-be/internal/model"
	"shopnest-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type courierEventRepository struct {
	db *gorm.DB
}

func NewCourierEventRepository(db *gorm.DB) contract.CourierEventRepository {
	return &courierEventRepository{db: db}
}

// InsertOnce relies on the unique event_id index: ON CONFLICT DO NOTHING
// turns a replayed webhook into zero affected rows.
func (r *courierEventRepository) InsertOnce(ctx context.Context, eventId string, requestId uuid.UUID, channel, status string, eventTime time.Time) (bool, error) {
	event := model.CourierEvent{
		EventId:   eventId,
		RequestId: requestId,
		Channel:   channel,
		Status:    status,
		EventTime: eventTime,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *courierEventRepository) LastApplied(ctx context.Context, requestId uuid.UUID, channel string) (*time.Time, error) {
	var event model.CourierEvent
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND channel = ?", requestId, channel).
		Order("event_time DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event.EventTime, nil
}
