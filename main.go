package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hunterjsb/scrimbot/internal/balance"
	"github.com/hunterjsb/scrimbot/internal/config"
	"github.com/hunterjsb/scrimbot/internal/discord"
	"github.com/hunterjsb/scrimbot/internal/httpapi"
	"github.com/hunterjsb/scrimbot/internal/logging"
	"github.com/hunterjsb/scrimbot/internal/scheduler"
	"github.com/hunterjsb/scrimbot/internal/session"
	"github.com/hunterjsb/scrimbot/internal/store"
	"github.com/hunterjsb/scrimbot/internal/voice"
)

func main() {
	// Check if we should run the Discord bot or the offline demo
	mode := os.Getenv("MODE")

	switch mode {
	case "", "discord":
		if err := runDiscordBot(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "demo":
		if err := runDemo(os.Getenv("BALANCE_MODE")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown MODE %q.\n", mode)
		fmt.Println("Set MODE=discord to run the bot or MODE=demo to balance a sample lobby")
		os.Exit(2)
	}
}

func runDiscordBot() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.Open(store.Config{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
		Debug:  cfg.Development(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	pending := session.NewStore(cfg.SessionTTL)
	stopJanitor := pending.StartJanitor(5 * time.Minute)
	defer stopJanitor()

	bot, err := discord.NewDiscordBot(cfg, discord.Deps{
		Logger:   logger.Named("discord"),
		Store:    st,
		Balancer: balance.NewBalancer(),
		Pending:  pending,
		Voice:    voice.NewTracker(),
	})
	if err != nil {
		return err
	}

	sched := scheduler.New(logger.Named("scheduler"))
	if err := sched.AddJob(scheduler.Job{Name: "voice-accrual", Spec: "@every 1m", Run: bot.AccrueVoice}); err != nil {
		return err
	}
	if cfg.LeaderboardChannelID != "" {
		if err := sched.AddJob(scheduler.Job{Name: "leaderboard-post", Spec: cfg.LeaderboardCron, Run: bot.PostLeaderboard}); err != nil {
			return err
		}
	}

	logger.Info("starting discord bot")
	if err := bot.Start(); err != nil {
		return err
	}
	sched.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	api := httpapi.New(st, logger.Named("http"))
	g.Go(func() error {
		return httpapi.Serve(gctx, cfg.HTTPAddr, api.Router(), logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sched.Stop()

		// bank the voice time since the last tick
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sched.RunNow(flushCtx, "voice-accrual"); err != nil {
			logger.Warn("final voice accrual failed", zap.Error(err))
		}
		return bot.Stop()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runDemo balances a built-in lobby and prints the best split
func runDemo(modeName string) error {
	if modeName == "" {
		modeName = balance.ModeExhaustive.String()
	}
	mode, err := balance.ParseMode(modeName)
	if err != nil {
		return err
	}

	results, err := balance.NewBalancer().FindOptimalBalance(sampleLobby(), mode)
	if err != nil {
		return err
	}

	best := results[0]
	fmt.Printf("Mode: %s, %d results\n", mode, len(results))
	for _, side := range []struct {
		name string
		comp *balance.TeamComposition
	}{{"Team A", best.TeamA}, {"Team B", best.TeamB}} {
		fmt.Printf("\n%s (score %.3f)\n", side.name, side.comp.TeamScore())
		for _, a := range side.comp.Assignments() {
			fmt.Printf("  %-8s %s\n", a.Role, a.Player.Name)
		}
	}
	fmt.Printf("\nBalance %.3f, skill gap %.3f\n", best.BalanceScore, best.SkillDifference)
	fmt.Println(best.Rationale.Overall)
	fmt.Println(best.Rationale.Tank)
	fmt.Println(best.Rationale.Damage)
	fmt.Println(best.Rationale.Support)
	return nil
}

func sampleLobby() []balance.PlayerSnapshot {
	rec := func(games, wins int) balance.RoleRecord { return balance.RoleRecord{Games: games, Wins: wins} }
	return []balance.PlayerSnapshot{
		{ID: "1", Name: "Wall", PrimaryRole: balance.RoleTank, Tank: rec(24, 15), Damage: rec(3, 1), Overall: rec(27, 16)},
		{ID: "2", Name: "Anchor", PrimaryRole: balance.RoleTank, Tank: rec(12, 5), Support: rec(4, 2), Overall: rec(16, 7)},
		{ID: "3", Name: "Flick", PrimaryRole: balance.RoleDamage, Damage: rec(30, 19), Overall: rec(30, 19)},
		{ID: "4", Name: "Spray", PrimaryRole: balance.RoleDamage, Damage: rec(18, 8), Tank: rec(2, 1), Overall: rec(20, 9)},
		{ID: "5", Name: "Dive", PrimaryRole: balance.RoleDamage, Damage: rec(9, 5), Overall: rec(9, 5)},
		{ID: "6", Name: "Poke", PrimaryRole: balance.RoleDamage, Damage: rec(4, 1), Support: rec(6, 3), Overall: rec(10, 4)},
		{ID: "7", Name: "Halo", PrimaryRole: balance.RoleSupport, Support: rec(22, 13), Overall: rec(22, 13)},
		{ID: "8", Name: "Pulse", PrimaryRole: balance.RoleSupport, Support: rec(14, 6), Damage: rec(5, 3), Overall: rec(19, 9)},
		{ID: "9", Name: "Mender", PrimaryRole: balance.RoleSupport, Support: rec(3, 2), Overall: rec(3, 2)},
		{ID: "10", Name: "Fresh", Overall: rec(0, 0)},
	}
}
