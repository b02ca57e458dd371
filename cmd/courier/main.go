// Courier is a voice-driven personal assistant daemon. It wakes on a
// spoken phrase, sends messages to contacts through a messaging
// bridge, and falls back to a local language model for conversation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"courier/internal/config"
	"courier/internal/log"
	"courier/pkg/assistant"
	"courier/pkg/chat"
	"courier/pkg/contacts"
	"courier/pkg/convlog"
	"courier/pkg/hub"
	"courier/pkg/intent"
	"courier/pkg/messaging"
	"courier/pkg/metrics"
	"courier/pkg/speech"
	"courier/pkg/web"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (debug, info, warn, error)")
	cli.Parse()

	godotenv.Load(*envFile)

	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	log.Init(cfg.LogLevel)
	logger := log.L()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The chat backend is required; refuse to start without it.
	chatClient := chat.NewClient(
		chat.WithBaseURL(cfg.OllamaBaseURL),
		chat.WithModel(cfg.OllamaModel),
		chat.WithLogger(logger),
	)
	if err := chatClient.Health(ctx); err != nil {
		logger.Error("chat backend unreachable", "url", cfg.OllamaBaseURL, "error", err)
		os.Exit(1)
	}

	directory, err := contacts.Load(cfg.ContactsPath)
	if err != nil {
		logger.Error("failed to load contacts", "path", cfg.ContactsPath, "error", err)
		os.Exit(1)
	}
	if directory.Len() == 0 {
		logger.Warn("contact directory is empty", "path", cfg.ContactsPath)
	}

	journal, err := convlog.Open(cfg.ConvLogPath)
	if err != nil {
		logger.Warn("conversation log unavailable", "path", cfg.ConvLogPath, "error", err)
		journal, _ = convlog.Open("")
	}

	classifier := intent.NewChain(
		intent.NewOpenAI(
			intent.WithAPIKey(cfg.OpenAIKey),
			intent.WithModel(cfg.IntentModel),
			intent.WithLogger(logger),
		),
		intent.NewRules(),
		logger,
	)

	dispatcher := messaging.NewBridge(
		messaging.WithURL(cfg.BridgeURL),
		messaging.WithLogger(logger),
	)
	defer dispatcher.Close()

	events := hub.New(logger)

	asst := assistant.New(assistant.Deps{
		Transcriber: speech.NewConsoleTranscriber(nil),
		Speaker:     speech.ConsoleSpeaker{},
		Classifier:  classifier,
		Chat:        chatClient,
		Dispatcher:  dispatcher,
		Directory:   directory,
		Journal:     journal,
		Events:      events,
	},
		assistant.WithConversationTimeout(cfg.ConversationTimeout),
		assistant.WithLogger(logger),
	)

	var listener *messaging.BridgeListener
	if cfg.EnableListener {
		listener = messaging.NewBridgeListener(
			messaging.WithURL(cfg.BridgeURL),
			messaging.WithLogger(logger),
		)
		go func() {
			if err := listener.Subscribe(ctx, asst.OnInbound); err != nil && ctx.Err() == nil {
				logger.Error("message listener stopped", "error", err)
			}
		}()
		go watchListener(ctx, listener)
	}

	if cfg.WebPort != "" {
		status := func() web.Status {
			snap := asst.State()
			return web.Status{
				Mode:              string(snap.Mode),
				LastRecipient:     snap.LastRecipient,
				LastReceivedFrom:  snap.LastReceivedFrom,
				ReplyArmed:        snap.ReplyArmed,
				MessagesSent:      snap.MessagesSent,
				ListenerConnected: listener != nil && listener.Connected(),
			}
		}
		srv := web.NewServer(":"+cfg.WebPort, status, events, journal, logger)
		srv.StartAsync()
		defer srv.Shutdown()
	}

	logger.Info("courier ready",
		"contacts", directory.Len(),
		"listener", cfg.EnableListener,
		"chat_model", cfg.OllamaModel,
	)

	if err := asst.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("assistant stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

// watchListener mirrors the listener's connection state into the
// Prometheus gauge.
func watchListener(ctx context.Context, l *messaging.BridgeListener) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.Connected() {
				metrics.ListenerConnected.Set(1)
			} else {
				metrics.ListenerConnected.Set(0)
			}
		}
	}
}
