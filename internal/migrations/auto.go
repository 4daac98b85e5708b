package migrations

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/pkg/db"
)

// InitDB инициализирует соединение с БД и выполняет авто-миграцию
func InitDB(dsn string) *gorm.DB {
	conn := ConnectDB(dsn)
	if err := Migrate(conn); err != nil {
		logrus.Fatalf("Ошибка миграции: %v", err)
	}
	logrus.Println("Таблицы успешно созданы/обновлены.")
	return conn
}

func ConnectDB(dsn string) *gorm.DB {
	conn, err := db.NewDb(db.NewDbConfig(dsn))
	if err != nil {
		logrus.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	return conn
}

// Migrate создает таблицы и уникальные индексы. Уникальные индексы на
// (rule_id, event_key) и (event_type, event_key, position) обязательны:
// на них держится защита от дублей уведомлений и гонок за позиции.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Member{},
		&models.ClanSettings{},
		&models.EventState{},
		&models.NotificationRule{},
		&models.NotificationInstance{},
		&models.TargetClaim{},
		&models.ReminderMessage{},
	)
}
