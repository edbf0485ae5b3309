// Command token mints a bearer token for local development.
//
//	JWT_SECRET=dev go run ./cmd/token -name Alice -external alice@example.com
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/auth"
	"github.com/mmynk/choreshare/internal/config"
	"github.com/mmynk/choreshare/pkg/logging"
)

func main() {
	userID := flag.String("user", "", "user ID (default: random)")
	name := flag.String("name", "", "display name carried in the token")
	external := flag.String("external", "", "identity provider subject")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	id := auth.Identity{UserID: uuid.New(), ExternalID: *external, Name: *name}
	if *userID != "" {
		if id.UserID, err = uuid.Parse(*userID); err != nil {
			slog.Error("Invalid user ID", "user", *userID, "error", err)
			os.Exit(1)
		}
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL).Generate(id)
	if err != nil {
		slog.Error("Failed to generate token", "error", err)
		os.Exit(1)
	}
	slog.Info("Token minted", "user_id", id.UserID, "expires_in", cfg.TokenTTL)
	fmt.Println(token)
}
