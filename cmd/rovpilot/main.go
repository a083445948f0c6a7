package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/open-teleop/rovpilot/pkg/api"
	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/control"
	"github.com/open-teleop/rovpilot/pkg/input"
	"github.com/open-teleop/rovpilot/pkg/journal"
	"github.com/open-teleop/rovpilot/pkg/link"
	customlog "github.com/open-teleop/rovpilot/pkg/log"
	"github.com/open-teleop/rovpilot/pkg/session"
	"github.com/open-teleop/rovpilot/pkg/telemetry"
	"github.com/open-teleop/rovpilot/pkg/zeromq"
	"github.com/open-teleop/rovpilot/services"
)

const simulatorPort = "simulator"

func main() {
	app := cli.NewApp()
	app.Name = "rovpilot"
	app.Usage = "drive an ROV from a gamepad over a serial link"
	app.ArgsUsage = "[serial-path]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: "config.yaml",
			Usage: "path to the YAML configuration",
		},
		cli.BoolFlag{
			Name:  "simulate",
			Usage: "run the control session without a vehicle",
		},
		cli.StringFlag{
			Name:  "input",
			Usage: "evdev gamepad device, e.g. /dev/input/event5",
		},
		cli.IntFlag{
			Name:  "http",
			Usage: "HTTP API port (0 disables)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError prints err followed by every wrapped cause.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(os.Stderr, "Caused by: %v\n", cause)
	}
}

func run(c *cli.Context) error {
	configPath := c.String("config")
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if c.IsSet("input") {
		cfg.Input.Device = c.String("input")
	}
	if c.IsSet("http") {
		cfg.Server.HTTPPort = c.Int("http")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if found {
		logger.Infof("Loaded configuration from %s", configPath)
	} else {
		logger.Infof("No configuration at %s, using defaults", configPath)
	}

	mixer, err := control.NewMixer(cfg.Control)
	if err != nil {
		return err
	}

	configService, err := services.NewConfigService(configPath, cfg, logger)
	if err != nil {
		return err
	}

	// Telemetry: ZeroMQ service (optional) behind the hub.
	var publisher telemetry.Publisher
	var zmqService *zeromq.Service
	if cfg.Telemetry.PublishAddress != "" || cfg.Telemetry.RequestAddress != "" {
		zmqService, err = zeromq.NewService(cfg.Telemetry, logger.WithField("component", "zeromq"))
		if err != nil {
			return fmt.Errorf("failed to start telemetry: %w", err)
		}
		defer zmqService.Stop()
		publisher = zmqService
		configService.SetPublisher(zmqService)
	}
	hub := telemetry.NewHub(cfg.Telemetry.PublishInterval(), publisher, logger)
	if zmqService != nil {
		zeromq.Register(zmqService,
			func() interface{} { return hub.Latest() },
			func() (interface{}, error) { return configService.GetCurrentConfig(), nil },
		)
		zmqService.Start()
	}

	engine := &session.Engine{
		Input:    input.NewQueue(),
		Config:   cfg,
		Mixer:    mixer,
		Logger:   logger,
		Renderer: hub,
		Open: func(path string) (link.Channel, error) {
			ch, err := link.OpenSerial(path, cfg.Serial, logger)
			if err != nil {
				return nil, err
			}
			return ch, nil
		},
	}

	var journalReader api.JournalReader
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal, logger)
		if err != nil {
			return err
		}
		j.Start()
		defer func() {
			if err := j.Stop(); err != nil {
				logger.Warnf("Failed to close journal: %v", err)
			}
		}()
		engine.Recorder = j
		journalReader = j
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Input.Device != "" {
		pad, err := input.OpenGamepad(cfg.Input.Device, cfg.Input.TriggerMax, logger)
		if err != nil {
			return err
		}
		defer pad.Close()
		go func() {
			if err := pad.Run(ctx, engine.Input); err != nil && ctx.Err() == nil {
				logger.Errorf("Gamepad input stopped: %v", err)
			}
		}()
	}

	if cfg.Server.HTTPPort > 0 {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to bind HTTP API on %s: %w", addr, err)
		}
		app := api.NewApp(api.Deps{
			Status:  hub,
			Config:  configService,
			Journal: journalReader,
			Input:   engine.Input,
			Logger:  logger.WithField("component", "api"),
		})
		go func() {
			if err := app.Listener(ln); err != nil {
				logger.Errorf("HTTP API stopped: %v", err)
			}
		}()
		defer func() {
			if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
				logger.Warnf("HTTP API forced to shutdown: %v", err)
			}
		}()
		logger.Infof("HTTP API listening on %s", addr)
	}

	// SIGINT and SIGTERM end the session through the input queue so the
	// active screen closes normally.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Infof("Received %v, shutting down", sig)
			engine.Input.Push(input.Quit())
		case <-ctx.Done():
		}
	}()

	screen, err := initialScreen(c, engine)
	if err != nil {
		return err
	}
	if err := session.Run(engine, screen); err != nil {
		return err
	}
	logger.Infof("Session ended")
	return nil
}

func initialScreen(c *cli.Context, e *session.Engine) (session.Screen, error) {
	if path := c.Args().First(); path != "" {
		ch, err := e.Open(path)
		if err != nil {
			return session.Screen{}, fmt.Errorf("failed to open vehicle link: %w", err)
		}
		return session.ControlScreen(session.NewRovControl(path, ch)), nil
	}
	if c.Bool("simulate") {
		return session.ControlScreen(session.NewRovControl(simulatorPort, nil)), nil
	}
	return session.SelectScreen(session.NewPortSelect(e.Config.Serial.Candidates)), nil
}
