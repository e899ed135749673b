package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"

	"crm-backend/internal/client"
	"crm-backend/internal/config"
	"crm-backend/internal/jobs"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if _, err := url.ParseRequestURI(cfg.CRMEndpoint); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRM_ENDPOINT: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ClientTimeout)
	defer cancel()

	api := client.New(cfg.CRMEndpoint, cfg.ClientTimeout)
	if _, err := jobs.OrderReminders(ctx, api, cfg.RemindersLog, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "reminders log: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Order reminders processed!")
}
