package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/config"
	"github.com/garyjia/monitoria/internal/container"
	"github.com/garyjia/monitoria/pkg/utils"
)

// Sends one email through the configured mailer, to check SendGrid
// credentials and the sender address without running the portal

func main() {
	fmt.Println("=== Monitoria Notification Test ===")
	fmt.Println()

	if len(os.Args) < 2 {
		fmt.Println("Usage: test-notification <recipient-email> [config-path]")
		os.Exit(2)
	}

	recipient := os.Args[1]
	if err := utils.ValidateEmail(recipient); err != nil {
		log.Fatalf("Invalid recipient: %v", err)
	}

	configPath := "configs/config.yaml"
	if len(os.Args) > 2 {
		configPath = os.Args[2]
	}

	cfg, err := config.Load(configPath, ".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "debug", Format: "console"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Email.SendgridAPIKey == "" {
		fmt.Println("SendGrid API key not set; the message will only be logged")
	} else {
		fmt.Printf("Sender: %s <%s>\n", cfg.Email.FromName, cfg.Email.FromEmail)
	}

	containerCfg := cfg.ToContainerConfig()
	mailer, err := container.ProvideMailer(&containerCfg.Email, logger)
	if err != nil {
		log.Fatalf("Failed to create mailer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := &port.EmailMessage{
		To:      recipient,
		Subject: "Teste de notificação",
		Body: fmt.Sprintf("Mensagem de teste enviada em %s.\n\nPortal: %s\n",
			time.Now().Format(time.RFC1123), cfg.Notification.PortalURL),
	}

	fmt.Printf("\nSending test message to %s...\n", recipient)
	if err := mailer.Send(ctx, msg); err != nil {
		logger.Error("Send failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println("✓ Message accepted")
}
