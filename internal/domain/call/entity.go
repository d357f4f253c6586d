package call

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Call represents calls table. A call is a voice/video session scoped to
// one conversation thread; a thread has at most one non-ended call at a time.
type Call struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ThreadID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null"`
	Status    Status    `gorm:"type:varchar(20);not null;default:'SETUP'"`
	RoomID    sql.NullString
	CreatedAt time.Time `gorm:"default:now()"`
	EndedAt   sql.NullTime
}

// CallParticipant represents call_participants. One row per user per call;
// leaving and rejoining reuse the same row.
type CallParticipant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CallID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_call_participant"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_call_participant"`
	JoinedAt time.Time `gorm:"default:now()"`
	LeftCall sql.NullTime
	Kicked   bool `gorm:"default:false"`
}

func (Call) TableName() string {
	return "calls"
}

func (CallParticipant) TableName() string {
	return "call_participants"
}

// Ended reports whether the call has reached its terminal state.
func (c Call) Ended() bool {
	return c.Status == StatusEnded || c.EndedAt.Valid
}

// Active reports whether the participant is still in the call.
func (p CallParticipant) Active() bool {
	return !p.LeftCall.Valid
}

// ActiveCount counts participants that have not left the call.
func ActiveCount(participants []CallParticipant) int {
	n := 0
	for _, p := range participants {
		if p.Active() {
			n++
		}
	}
	return n
}
