package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	TrackerURL string `env:"CMD_TEST_TRACKER_URL" envDefault:"https://tracker.example.com/"`
	LogLevel   string `env:"CMD_TEST_LOG_LEVEL" envDefault:"info"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_TRACKER_URL", "https://env.example.com/")
	t.Setenv("CMD_TEST_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.TrackerURL, "tracker-url", cfg.TrackerURL, "tracker url")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := ParseArgs(fs, []string{"-tracker-url", "https://flag.example.com/"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.TrackerURL != "https://flag.example.com/" {
		t.Fatalf("expected flag value for tracker url, got %q", cfg.TrackerURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env value for log level, got %q", cfg.LogLevel)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected parse config to reject nil target")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceStaffwatch, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	t.Setenv("STAFFWATCH_OTEL_ENDPOINT", "")

	want := errors.New("run failed")
	err := RunWithTelemetry(context.Background(), ServiceStaffwatch, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}
