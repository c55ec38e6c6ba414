package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamevault/admin-connector/internal/bus"
	"github.com/gamevault/admin-connector/internal/cache"
	"github.com/gamevault/admin-connector/internal/config"
	"github.com/gamevault/admin-connector/internal/refresh"
	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
	"github.com/gamevault/admin-connector/pkg/sdk"
)

func main() {
	fmt.Println("=== Admin Connector quick start ===")

	logger.Init()

	// 1. Load configuration (config.yaml, then environment overrides)
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Println("using default configuration:", err)
		cfg = config.Default()
	}

	token := os.Getenv("ADMIN_TOKEN")
	if token == "" {
		fmt.Println("set ADMIN_TOKEN to your bearer token")
		os.Exit(1)
	}

	// 2. Create the SDK
	s := sdk.NewSDK(sdk.Options{
		Config: cfg,
		Tokens: interfaces.StaticToken(token),
	})
	defer s.Teardown()

	// 3. Register feed handlers
	s.RegisterGameManagementHandlers(cache.FeedHandlers{
		OnAuthenticated: func(schema.AuthResponse) {
			fmt.Println("authenticated, feeds are live")
		},
		OnGameProfiles: func(p schema.ProfilesPayload) {
			rows := schema.FlattenProfiles(p.ProfileList())
			fmt.Printf("game profiles: %d rows, %d pending\n", len(rows), schema.CountPending(p.ProfileList()))
		},
		OnGameStatistics: func(p schema.StatisticsPayload) {
			stats := p.Stats()
			fmt.Printf("statistics: %d profiles, %d pending credit requests\n",
				stats.TotalProfiles, stats.PendingCreditRequests)
		},
		OnError: func(msg string) {
			fmt.Println("game feed error:", msg)
		},
	})
	s.RegisterWithdrawalManagementHandlers(cache.FeedHandlers{
		OnWithdrawals: func(p schema.WithdrawalsPayload) {
			for _, w := range p.WithdrawalList() {
				fmt.Printf("pending withdrawal %s: %s %s by %s\n",
					w.Key(), w.Amount, schema.NetworkLabel(w.Asset, w.Network), w.Username())
			}
		},
	})

	// 4. Watch connection state through the bus
	stateCh, cancel := s.Subscribe(bus.ConnectionStateChanged)
	defer cancel()
	go func() {
		for ev := range stateCh {
			fmt.Println("connected:", ev.Connected)
		}
	}()

	// 5. Connect and authenticate
	if err := s.Connect(context.Background()); err != nil {
		fmt.Println("connect failed:", err)
		os.Exit(1)
	}

	// 6. Periodic refresh, debounced; falls back to REST while offline
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("press Ctrl+C to exit")
	for {
		select {
		case <-ticker.C:
			s.RequestRefresh(schema.FeedGameManagement, func(r refresh.Reason) {
				fmt.Println("game feed refresh settled:", r)
			})
			s.RequestRefresh(schema.FeedWithdrawalManagement, nil)
		case <-quit:
			fmt.Println("shutting down")
			return
		}
	}
}
