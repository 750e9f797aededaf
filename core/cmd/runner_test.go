package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coretelegram "github.com/m3rciful/weatherbot/core/telegram"
)

type carrier struct{ cfg coreconfig.Config }

func (c *carrier) CoreConfig() *coreconfig.Config { return &c.cfg }

type hookApp struct{ calls *[]string }

func (a hookApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			*a.calls = append(*a.calls, "start")
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			*a.calls = append(*a.calls, "stop")
			return nil
		},
	}, nil
}

func TestRunWiresHooksAndConfigPath(t *testing.T) {
	t.Setenv("WEATHERBOT_CONFIG", "/etc/weatherbot.yaml")
	var calls []string
	var loaded string
	err := Run(Options{
		ConfigEnvVar: "WEATHERBOT_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return &carrier{}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return hookApp{calls: &calls}, nil },
		ShutdownLogger: func() error { calls = append(calls, "logger"); return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loaded != "/etc/weatherbot.yaml" {
		t.Fatalf("loaded %q", loaded)
	}
	want := []string{"start", "stop", "logger"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestRunStopsOnBootstrapError(t *testing.T) {
	boom := errors.New("no db")
	ran := false
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return &carrier{}, nil },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return nil, boom },
		RunTelegram: func(context.Context, coretelegram.RunOptions) error {
			ran = true
			return nil
		},
	})
	if !errors.Is(err, boom) || ran {
		t.Fatalf("err = %v ran = %v", err, ran)
	}
}
