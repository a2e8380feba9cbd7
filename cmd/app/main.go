package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/YaroslavMestkovsky/Extractor/internal/application"
)

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	// Ctrl+C должен закрыть браузер, а не оставить процесс-сироту
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, *configPath); err != nil {
		log.Fatalf("Произошла ошибка: %v", err)
	}
}
