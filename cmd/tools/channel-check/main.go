// cmd/tools/channel-check/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"lead-consultant/internal/common/config"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/notification"
)

func main() {
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	sendTestCmd := flag.NewFlagSet("send-test", flag.ExitOnError)
	chatIDCmd := flag.NewFlagSet("chat-id", flag.ExitOnError)

	// Shared flags
	configPath := ""
	for _, fs := range []*flag.FlagSet{checkCmd, sendTestCmd, chatIDCmd} {
		fs.StringVar(&configPath, "config", "", "Path to a config YAML file (default: configs/config.yaml lookup)")
	}

	// send-test flags
	channel := sendTestCmd.String("channel", "all", "Channel to test: telegram, email or all")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		_ = checkCmd.Parse(os.Args[2:])
		cfg := loadConfig(configPath)
		os.Exit(runCheck(cfg))

	case "send-test":
		_ = sendTestCmd.Parse(os.Args[2:])
		cfg := loadConfig(configPath)
		os.Exit(runSendTest(cfg, *channel))

	case "chat-id":
		_ = chatIDCmd.Parse(os.Args[2:])
		cfg := loadConfig(configPath)
		os.Exit(runChatID(cfg))

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: channel-check <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  check       Verify Telegram (getMe) and email (AWS read call) connectivity")
	fmt.Println("  send-test   Send a test message (-channel telegram|email|all)")
	fmt.Println("  chat-id     List channel chat ids found in the bot's pending updates")
	fmt.Println("Every command accepts -config <path>.")
}

func loadConfig(path string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func channels(ctx context.Context, cfg *config.Config) (*notification.TelegramChannel, *notification.EmailChannel) {
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	timeout := config.GetDuration(cfg.Notifications.Timeout)
	return notification.NewTelegramChannelFromConfig(cfg.Notifications.Telegram, timeout, log),
		notification.NewEmailChannelFromConfig(ctx, cfg.Notifications.Email, log)
}

func runCheck(cfg *config.Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	telegram, email := channels(ctx, cfg)
	dispatcher := notification.NewDispatcher(notification.Config{
		Timeout: config.GetDuration(cfg.Notifications.Timeout),
	}, telegram, email, logger.NewNoOpLogger())

	results := dispatcher.CheckConnections(ctx)

	failed := 0
	for _, name := range []string{notification.ChannelTelegram, notification.ChannelEmail} {
		switch {
		case results[name]:
			fmt.Printf("✅ %s: reachable\n", name)
		case name == notification.ChannelTelegram && !telegram.Enabled(),
			name == notification.ChannelEmail && !email.Enabled():
			fmt.Printf("⚪ %s: disabled\n", name)
		default:
			fmt.Printf("❌ %s: check failed\n", name)
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func runSendTest(cfg *config.Config, which string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	telegram, email := channels(ctx, cfg)

	type tester interface {
		Name() string
		Enabled() bool
		SendTest(ctx context.Context) error
	}

	var targets []tester
	switch which {
	case "telegram":
		targets = []tester{telegram}
	case "email":
		targets = []tester{email}
	case "all":
		targets = []tester{telegram, email}
	default:
		fmt.Printf("Error: unknown channel %q\n", which)
		return 1
	}

	failed := 0
	for _, t := range targets {
		if !t.Enabled() {
			fmt.Printf("⚪ %s: disabled, skipped\n", t.Name())
			continue
		}
		if err := t.SendTest(ctx); err != nil {
			fmt.Printf("❌ %s: %v\n", t.Name(), err)
			failed++
			continue
		}
		fmt.Printf("✅ %s: test message sent\n", t.Name())
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func runChatID(cfg *config.Config) int {
	if cfg.Notifications.Telegram.BotToken == "" {
		fmt.Println("Error: notifications.telegram.bot_token (TELEGRAM_BOT_TOKEN) is not set")
		return 1
	}

	bot, err := notification.NewBot(cfg.Notifications.Telegram, config.GetDuration(cfg.Notifications.Timeout))
	if err != nil {
		fmt.Printf("Error authorizing bot: %v\n", err)
		return 1
	}

	chats, err := notification.ChannelChats(bot)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	if len(chats) == 0 {
		fmt.Println("No channel posts found. Add the bot to the channel, post a message and run again.")
		return 1
	}
	for _, c := range chats {
		fmt.Printf("Chat ID: %d  %s\n", c.ID, c.Title)
	}
	return 0
}
