package repository

import (
	"context"
	"errors"
	"time"

	"harbor-chat/internal/domain/call"
	harbor_errors "harbor-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresCallRepository struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) CallRepository {
	return &PostgresCallRepository{db: db}
}

func (r *PostgresCallRepository) Create(ctx context.Context, c *call.Call) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return harbor_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresCallRepository) GetByID(ctx context.Context, id uuid.UUID) (call.Call, error) {
	var c call.Call
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return call.Call{}, harbor_errors.ErrNotFound
		}
		return call.Call{}, err
	}
	return c, nil
}

func (r *PostgresCallRepository) GetActiveCallForThread(ctx context.Context, threadID uuid.UUID) (call.Call, error) {
	var c call.Call
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND ended_at IS NULL", threadID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return call.Call{}, harbor_errors.ErrNotFound
		}
		return call.Call{}, err
	}
	return c, nil
}

func (r *PostgresCallRepository) Activate(ctx context.Context, callID uuid.UUID, roomID string) error {
	res := r.db.WithContext(ctx).
		Model(&call.Call{}).
		Where("id = ? AND status = ?", callID, call.StatusSetup).
		Updates(map[string]interface{}{
			"status":  call.StatusActive,
			"room_id": roomID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return harbor_errors.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresCallRepository) EndCall(ctx context.Context, callID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&call.Call{}).
			Where("id = ? AND ended_at IS NULL", callID).
			Updates(map[string]interface{}{
				"status":   call.StatusEnded,
				"ended_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var c call.Call
			if err := tx.Where("id = ?", callID).First(&c).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return harbor_errors.ErrNotFound
				}
				return err
			}
			return harbor_errors.ErrCallAlreadyEnded
		}

		return tx.Model(&call.CallParticipant{}).
			Where("call_id = ? AND left_call IS NULL", callID).
			Update("left_call", at).Error
	})
}

func (r *PostgresCallRepository) AddParticipant(ctx context.Context, p *call.CallParticipant) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return harbor_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresCallRepository) GetParticipant(ctx context.Context, callID, userID uuid.UUID) (call.CallParticipant, error) {
	var p call.CallParticipant
	err := r.db.WithContext(ctx).
		Where("call_id = ? AND user_id = ?", callID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return call.CallParticipant{}, harbor_errors.ErrNotFound
		}
		return call.CallParticipant{}, err
	}
	return p, nil
}

func (r *PostgresCallRepository) GetParticipantByID(ctx context.Context, id uuid.UUID) (call.CallParticipant, error) {
	var p call.CallParticipant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return call.CallParticipant{}, harbor_errors.ErrNotFound
		}
		return call.CallParticipant{}, err
	}
	return p, nil
}

func (r *PostgresCallRepository) KickParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	return r.updateParticipant(ctx, participantID, map[string]interface{}{
		"kicked":    true,
		"left_call": at,
	})
}

func (r *PostgresCallRepository) ReinstateParticipant(ctx context.Context, participantID uuid.UUID) error {
	return r.updateParticipant(ctx, participantID, map[string]interface{}{
		"kicked": false,
	})
}

func (r *PostgresCallRepository) LeaveParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	return r.updateParticipant(ctx, participantID, map[string]interface{}{
		"left_call": at,
	})
}

func (r *PostgresCallRepository) RejoinParticipant(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	return r.updateParticipant(ctx, participantID, map[string]interface{}{
		"left_call": nil,
		"joined_at": at,
	})
}

func (r *PostgresCallRepository) updateParticipant(ctx context.Context, participantID uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&call.CallParticipant{}).
		Where("id = ?", participantID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return harbor_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresCallRepository) ActiveParticipants(ctx context.Context, callID uuid.UUID) ([]call.CallParticipant, error) {
	var participants []call.CallParticipant
	err := r.db.WithContext(ctx).
		Where("call_id = ? AND left_call IS NULL", callID).
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *PostgresCallRepository) ActiveParticipantCount(ctx context.Context, callID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&call.CallParticipant{}).
		Where("call_id = ? AND left_call IS NULL", callID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
