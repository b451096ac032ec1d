// Package staffwatch parses staffwatch command configuration and wires
// one reconciliation run.
package staffwatch

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/staffwatch/staffwatch/internal/discord"
	entrypoint "github.com/staffwatch/staffwatch/internal/platform/cmd"
	"github.com/staffwatch/staffwatch/internal/reconcile"
	"github.com/staffwatch/staffwatch/internal/storage/jsonfile"
	"github.com/staffwatch/staffwatch/internal/tracker"
)

// Config holds staffwatch command configuration.
type Config struct {
	DiscordToken   string `env:"STAFFWATCH_DISCORD_TOKEN"`
	StaffChannelID string `env:"STAFFWATCH_STAFF_CHANNEL_ID"`
	AlertChannelID string `env:"STAFFWATCH_ALERT_CHANNEL_ID"`
	AlertRoleID    string `env:"STAFFWATCH_ALERT_ROLE_ID"`

	TrackerURL string `env:"STAFFWATCH_TRACKER_URL" envDefault:"https://tracker.rinaorc.com/"`
	UserAgent  string `env:"STAFFWATCH_USER_AGENT" envDefault:"staffwatch/1.0 (+https://github.com/staffwatch/staffwatch)"`

	SnapshotPath  string `env:"STAFFWATCH_SNAPSHOT_PATH" envDefault:"data/staff_snapshot.json"`
	MessageIDPath string `env:"STAFFWATCH_MESSAGE_ID_PATH" envDefault:"data/message_id.json"`

	ConnectTimeout    time.Duration `env:"STAFFWATCH_CONNECT_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"STAFFWATCH_READ_TIMEOUT" envDefault:"15s"`
	FetchAttempts     uint          `env:"STAFFWATCH_FETCH_ATTEMPTS" envDefault:"4"`
	LookupConcurrency int           `env:"STAFFWATCH_LOOKUP_CONCURRENCY" envDefault:"4"`

	LogLevel string `env:"STAFFWATCH_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig parses environment and flags into a Config and validates
// that everything required to run is present.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.TrackerURL, "tracker-url", cfg.TrackerURL, "The roster tracker base URL")
	fs.StringVar(&cfg.SnapshotPath, "snapshot-path", cfg.SnapshotPath, "The roster snapshot file path")
	fs.StringVar(&cfg.MessageIDPath, "message-id-path", cfg.MessageIDPath, "The display message id file path")
	fs.UintVar(&cfg.FetchAttempts, "fetch-attempts", cfg.FetchAttempts, "Total roster fetch attempts before giving up")
	fs.IntVar(&cfg.LookupConcurrency, "lookup-concurrency", cfg.LookupConcurrency, "Parallel removed-member grade lookups")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	missing := []string{}
	if strings.TrimSpace(c.DiscordToken) == "" {
		missing = append(missing, "STAFFWATCH_DISCORD_TOKEN")
	}
	if strings.TrimSpace(c.StaffChannelID) == "" {
		missing = append(missing, "STAFFWATCH_STAFF_CHANNEL_ID")
	}
	if strings.TrimSpace(c.AlertChannelID) == "" {
		missing = append(missing, "STAFFWATCH_ALERT_CHANNEL_ID")
	}
	if strings.TrimSpace(c.AlertRoleID) == "" {
		missing = append(missing, "STAFFWATCH_ALERT_ROLE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Run executes one reconciliation pass with collaborators built from
// the configuration.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceStaffwatch, func(ctx context.Context) error {
		logger := logrus.New()
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		logger.SetLevel(level)

		httpClient := &http.Client{
			Timeout: cfg.ReadTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		}

		source, err := tracker.New(tracker.Config{
			BaseURL:    cfg.TrackerURL,
			HTTPClient: httpClient,
			UserAgent:  cfg.UserAgent,
			MaxTries:   cfg.FetchAttempts,
		})
		if err != nil {
			return fmt.Errorf("build tracker client: %w", err)
		}

		snapshots, err := jsonfile.NewSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			return fmt.Errorf("build snapshot store: %w", err)
		}
		messageRef, err := jsonfile.NewMessageRefStore(cfg.MessageIDPath)
		if err != nil {
			return fmt.Errorf("build message id store: %w", err)
		}

		messenger, err := discord.NewSession(cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("build discord session: %w", err)
		}

		svc, err := reconcile.New(reconcile.Config{
			Source:            source,
			Snapshots:         snapshots,
			MessageRef:        messageRef,
			Messenger:         messenger,
			StaffChannelID:    cfg.StaffChannelID,
			AlertChannelID:    cfg.AlertChannelID,
			AlertRoleID:       cfg.AlertRoleID,
			LookupConcurrency: cfg.LookupConcurrency,
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("build reconciler: %w", err)
		}

		return svc.Run(ctx)
	})
}
