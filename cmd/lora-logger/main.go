package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gre0071/lora-logger/internal/api"
	"github.com/gre0071/lora-logger/internal/capture"
	"github.com/gre0071/lora-logger/internal/concentrator"
	"github.com/gre0071/lora-logger/internal/config"
	"github.com/gre0071/lora-logger/internal/pktlog"
	"github.com/gre0071/lora-logger/internal/radiocfg"
	"github.com/gre0071/lora-logger/internal/telemetry"
)

func main() {
	var configFile string
	var rotateInterval int
	var driver string
	flag.StringVar(&configFile, "config", "config/lora-logger.yml", "configuration file path")
	flag.IntVar(&rotateInterval, "r", 0, "rotate log file every N seconds (-1 disables log rotation)")
	flag.StringVar(&driver, "driver", "", "concentrator driver (overrides configuration)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("file", configFile).Msg("no configuration file, using defaults")
			cfg = config.Default()
		} else {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if rotateInterval != 0 {
		if rotateInterval < -1 {
			log.Fatal().Int("interval", rotateInterval).Msg("invalid argument for -r option")
		}
		cfg.PacketLog.RotateInterval = rotateInterval
	}
	if driver != "" {
		cfg.Radio.Driver = driver
	}

	log.Info().Msg("LoRa packet logger starting...")

	// Translate the radio configuration. An unparseable document is fatal:
	// starting the radio with stale prior configuration is unsafe.
	doc, err := radiocfg.Discover(cfg.Radio.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load radio configuration")
	}
	result := radiocfg.Translate(doc)
	for _, d := range result.Diags {
		log.Warn().Str("field", d.Path).Msg(d.Reason)
	}
	gatewayID := result.Gateway.String()
	log.Info().Str("gateway_id", gatewayID).Msg("gateway identity configured")

	conc, err := concentrator.Open(cfg.Radio.Driver)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open concentrator")
	}
	radiocfg.Apply(conc, result)

	if err := conc.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start the concentrator")
	}
	log.Info().Msg("concentrator started, packets can now be received")

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("lora-logger"),
		nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password),
		nats.ReconnectWait(cfg.NATS.ReconnectInterval),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()
	log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")

	logw := pktlog.New(cfg.PacketLog.Dir, gatewayID, cfg.PacketLog.RotateInterval)
	if err := logw.Open(time.Now()); err != nil {
		log.Fatal().Err(err).Msg("failed to open packet log")
	}

	publisher := telemetry.NewPublisher(nc, gatewayID)
	loop := capture.New(conc, logw, publisher, gatewayID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.API.Enabled {
		statusSrv := api.NewServer(loop)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		go func() {
			if err := statusSrv.ListenAndServe(addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("status API stopped")
			}
		}()
		defer statusSrv.Shutdown(context.Background())
	}

	// SIGINT/SIGTERM stop gracefully: close the log, stop the hardware.
	// SIGQUIT stops without further hardware shutdown calls.
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for sig := range sigChan {
			log.Info().Str("signal", sig.String()).Msg("signal received")
			if sig == syscall.SIGQUIT {
				loop.Quit()
			} else {
				cancel()
			}
		}
	}()

	if err := loop.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("capture loop failed")
	}

	log.Info().Msg("LoRa packet logger stopped")
}
