package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"bloom-portal/internal/config"
	"bloom-portal/internal/database"
	"bloom-portal/internal/recordsystem"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/set-credentials/main.go <username> <password>")
		fmt.Println("Stores the record-system basic credential in Redis")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := database.NewRedisClient(cfg)
	if client == nil {
		log.Fatalf("Redis is disabled; set record_system.basic_credential instead")
	}
	defer client.Close()

	credential := base64.StdEncoding.EncodeToString([]byte(os.Args[1] + ":" + os.Args[2]))
	store := recordsystem.NewRedisCredentialStore(client, cfg.RecordSystem.CredentialKey)
	if err := store.SetCredential(context.Background(), credential); err != nil {
		log.Fatalf("Failed to store credential: %v", err)
	}

	fmt.Printf("Stored credential for '%s' under key '%s'\n", os.Args[1], cfg.RecordSystem.CredentialKey)
}
