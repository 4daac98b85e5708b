package models

import (
	"time"
)

// Типы событий клана
const (
	EventWar     = "war"
	EventCwl     = "cwl"
	EventCapital = "capital"
)

// Состояния события (война как пример: preparation -> inWar -> warEnded)
const (
	StateUnknown     = ""
	StatePreparation = "preparation"
	StateInWar       = "inWar"
	StateWarEnded    = "warEnded"
	StateRaidStart   = "raidStart"
	StateRaidEnded   = "raidEnded"
)

// StateRank — порядок состояний в жизни одного события. Событие движется
// только вперед; откат наблюдаемого состояния при неизменном ключе — это
// дребезг API, а не новое событие.
func StateRank(state string) int {
	switch state {
	case StatePreparation, StateRaidStart:
		return 1
	case StateInWar:
		return 2
	case StateWarEnded, StateRaidEnded:
		return 3
	}
	return 0
}

// Статусы отложенных уведомлений и напоминаний
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Окна доставки персональных уведомлений
const (
	WindowAlways = "always"
	WindowDay    = "day" // только днем по часовому поясу клана
)

// Member — зарегистрированный участник клана
type Member struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;not null" json:"telegram_id"`
	PlayerTag  string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"player_tag"`
	Name       string    `gorm:"type:varchar(64);not null" json:"name"`
	IsAdmin    bool      `gorm:"not null" json:"is_admin"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`

	// Персональные настройки уведомлений
	NotifyEnabled bool   `gorm:"not null" json:"notify_enabled"`
	NotifyWar     bool   `gorm:"not null" json:"notify_war"`
	NotifyCwl     bool   `gorm:"not null" json:"notify_cwl"`
	NotifyCapital bool   `gorm:"not null" json:"notify_capital"`
	NotifyWindow  string `gorm:"type:varchar(8);default:always;not null" json:"notify_window"`
}

// ClanSettings — настройки клана и группового чата
type ClanSettings struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID        int64     `gorm:"uniqueIndex;not null" json:"chat_id"`
	ClanTag       string    `gorm:"type:varchar(16);not null" json:"clan_tag"`
	Timezone      string    `gorm:"type:varchar(48);default:UTC;not null" json:"timezone"`
	NotifyWar     bool      `gorm:"not null" json:"notify_war"`
	NotifyCwl     bool      `gorm:"not null" json:"notify_cwl"`
	NotifyCapital bool      `gorm:"not null" json:"notify_capital"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// EventState — последнее наблюдаемое состояние одного события.
// last_notified_state двигается только после попытки рассылки.
type EventState struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType         string     `gorm:"type:varchar(16);uniqueIndex:ux_event_states_type_key,priority:1;not null" json:"event_type"`
	EventKey          string     `gorm:"type:varchar(128);uniqueIndex:ux_event_states_type_key,priority:2;not null" json:"event_key"`
	CurrentState      string     `gorm:"type:varchar(32);not null" json:"current_state"`
	LastNotifiedState string     `gorm:"type:varchar(32);not null" json:"last_notified_state"`
	StartTime         *time.Time `gorm:"null" json:"start_time,omitempty"`
	EndTime           *time.Time `gorm:"null" json:"end_time,omitempty"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

// NotificationRule — правило уведомления, общее для всех будущих событий категории.
// Personal=false — правило чата (рассылка в группу), true — личное правило участника.
type NotificationRule struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID       int64     `gorm:"index;not null" json:"chat_id"`
	Personal     bool      `gorm:"not null" json:"personal"`
	EventType    string    `gorm:"type:varchar(16);not null" json:"event_type"`
	DelaySeconds int       `gorm:"default:0;not null" json:"delay_seconds"`
	TemplateKey  string    `gorm:"type:varchar(32);not null" json:"template_key"`
	MessageText  string    `gorm:"type:text" json:"message_text,omitempty"`
	Enabled      bool      `gorm:"not null" json:"enabled"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// NotificationInstance — материализация правила под конкретное событие.
// Пара (rule_id, event_key) уникальна — это и есть защита от дублей.
type NotificationInstance struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	RuleID    uint       `gorm:"uniqueIndex:ux_notification_instances_rule_event,priority:1;not null" json:"rule_id"`
	EventKey  string     `gorm:"type:varchar(128);uniqueIndex:ux_notification_instances_rule_event,priority:2;not null" json:"event_key"`
	EventType string     `gorm:"type:varchar(16);not null" json:"event_type"`
	ChatID    int64      `gorm:"not null" json:"chat_id"`
	FireAt    time.Time  `gorm:"index;not null" json:"fire_at"`
	Status    string     `gorm:"type:varchar(8);default:pending;not null;index" json:"status"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`
	SentAt    *time.Time `gorm:"null" json:"sent_at,omitempty"`
	LastError string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

// TargetClaim — бронь позиции противника на одну войну.
// Уникальный индекс (event_type, event_key, position) разруливает гонки на уровне БД.
type TargetClaim struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType    string    `gorm:"type:varchar(16);uniqueIndex:ux_target_claims_event_position,priority:1;not null" json:"event_type"`
	EventKey     string    `gorm:"type:varchar(128);uniqueIndex:ux_target_claims_event_position,priority:2;not null" json:"event_key"`
	Position     int       `gorm:"uniqueIndex:ux_target_claims_event_position,priority:3;not null" json:"position"`
	MemberID     *uint     `gorm:"index;null" json:"member_id,omitempty"`
	ClaimantName string    `gorm:"type:varchar(64);not null" json:"claimant_name"`
	ClaimedAt    time.Time `gorm:"not null" json:"claimed_at"`

	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// ReminderMessage — разовое напоминание в чат, отменяется если война закончилась раньше
type ReminderMessage struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType   string     `gorm:"type:varchar(16);not null" json:"event_type"`
	EventKey    string     `gorm:"type:varchar(128);index;not null" json:"event_key"`
	ChatID      int64      `gorm:"not null" json:"chat_id"`
	FireAt      time.Time  `gorm:"index;not null" json:"fire_at"`
	MessageText string     `gorm:"type:text;not null" json:"message_text"`
	Status      string     `gorm:"type:varchar(8);default:pending;not null;index" json:"status"`
	SentAt      *time.Time `gorm:"null" json:"sent_at,omitempty"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}
