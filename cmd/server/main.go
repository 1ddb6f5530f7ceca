// dcare-crm/cmd/server/main.go
package main

import (
	"log/slog"
	"os"

	"dcare-crm/config"
	"dcare-crm/internal/handlers"
	"dcare-crm/internal/routes"
	"dcare-crm/models"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config.ConnectDB()
	config.ConnectRedis()
	config.InitAuth()

	if err := config.InitGoogleServices(); err != nil {
		// Отчеты работают и без Gemini, просто без текстового разбора.
		slog.Warn("Gemini API disabled", "reason", err)
	}

	if err := config.DB.AutoMigrate(&models.User{}, &models.Patient{}, &models.ActivityLog{}); err != nil {
		slog.Error("Ошибка миграции БД", "error", err)
		os.Exit(1)
	}

	go handlers.GlobalStatsHub.Run()

	r := routes.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Сервер запущен", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}
