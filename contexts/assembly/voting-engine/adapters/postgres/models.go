package postgresadapter

import (
	"strings"
	"time"

	"assembly/contexts/assembly/voting-engine/domain/entities"
)

type sessionModel struct {
	SessionID string    `gorm:"column:id;primaryKey"`
	StartsAt  time.Time `gorm:"column:starts_at;not null"`
	EndsAt    time.Time `gorm:"column:ends_at;not null"`
	Version   int64     `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (sessionModel) TableName() string {
	return "voting_sessions"
}

func sessionModelFromEntity(session entities.Session) sessionModel {
	return sessionModel{
		SessionID: strings.TrimSpace(session.SessionID),
		StartsAt:  session.StartsAt.UTC(),
		EndsAt:    session.EndsAt.UTC(),
		Version:   session.Version,
		CreatedAt: session.CreatedAt.UTC(),
	}
}

func (m sessionModel) toEntity() entities.Session {
	return entities.Session{
		SessionID: m.SessionID,
		StartsAt:  m.StartsAt.UTC(),
		EndsAt:    m.EndsAt.UTC(),
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type agendaItemModel struct {
	AgendaItemID string    `gorm:"column:id;primaryKey"`
	Title        string    `gorm:"column:title;not null"`
	Description  string    `gorm:"column:description"`
	SessionID    string    `gorm:"column:session_id;not null;index"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (agendaItemModel) TableName() string {
	return "voting_agenda_items"
}

func agendaItemModelFromEntity(item entities.AgendaItem) agendaItemModel {
	return agendaItemModel{
		AgendaItemID: strings.TrimSpace(item.AgendaItemID),
		Title:        item.Title,
		Description:  item.Description,
		SessionID:    strings.TrimSpace(item.SessionID),
		CreatedAt:    item.CreatedAt.UTC(),
	}
}

func (m agendaItemModel) toEntity() entities.AgendaItem {
	return entities.AgendaItem{
		AgendaItemID: m.AgendaItemID,
		Title:        m.Title,
		Description:  m.Description,
		SessionID:    m.SessionID,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type ballotModel struct {
	BallotID       string    `gorm:"column:id;primaryKey"`
	AgendaItemID   string    `gorm:"column:agenda_item_id;not null;uniqueIndex:ux_ballots_item_participant,priority:1"`
	ParticipantID  string    `gorm:"column:participant_id;not null"`
	ParticipantKey string    `gorm:"column:participant_key;not null;uniqueIndex:ux_ballots_item_participant,priority:2"`
	Choice         string    `gorm:"column:choice;not null;index"`
	CastAt         time.Time `gorm:"column:cast_at;not null"`
}

func (ballotModel) TableName() string {
	return "voting_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		BallotID:       strings.TrimSpace(ballot.BallotID),
		AgendaItemID:   strings.TrimSpace(ballot.AgendaItemID),
		ParticipantID:  ballot.ParticipantID,
		ParticipantKey: strings.TrimSpace(ballot.ParticipantKey),
		Choice:         string(ballot.Choice),
		CastAt:         ballot.CastAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "voting_outbox"
}
