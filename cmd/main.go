package main

import (
	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/app"
)

func main() {
	logrus.Println("Запуск бота клана...")

	if err := app.Run(); err != nil {
		logrus.Fatalf("Фатальная ошибка: %v", err)
	}
}
