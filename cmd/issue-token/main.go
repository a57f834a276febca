package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/garyjia/monitoria/internal/config"
	"github.com/garyjia/monitoria/internal/domain/entity"
	httpserver "github.com/garyjia/monitoria/internal/interfaces/http"
)

// Prints a bearer token for a portal user, signed with the configured secret.
// Intended for local development and smoke tests.

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	userID := flag.Int64("user", 0, "user id the token identifies")
	role := flag.String("role", "professor", "professor, admin or student")
	flag.Parse()

	actor := entity.Actor{UserID: *userID, Role: entity.Role(*role)}
	if actor.UserID <= 0 || !actor.Role.IsValid() {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, ".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tokens := httpserver.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	token, err := tokens.Issue(actor)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(token)
}
