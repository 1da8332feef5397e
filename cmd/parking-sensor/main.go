// Command parking-sensor measures parking spot occupancy with an ultrasonic
// ranger and publishes debounced state reports to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/parking-sensor/internal/battery"
	"github.com/sweeney/parking-sensor/internal/config"
	"github.com/sweeney/parking-sensor/internal/led"
	"github.com/sweeney/parking-sensor/internal/logic"
	"github.com/sweeney/parking-sensor/internal/mqtt"
	"github.com/sweeney/parking-sensor/internal/ranging"
	"github.com/sweeney/parking-sensor/internal/scheduler"
	"github.com/sweeney/parking-sensor/internal/status"
	"github.com/sweeney/parking-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults apply if empty)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config, \"off\" disables)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	printState := flag.Bool("print-state", false, "Take one measurement, print it and exit")

	flag.Parse()

	var zapLogger *zap.Logger
	var err error
	if *debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *httpAddr != "" {
		if *httpAddr == "off" {
			cfg.HTTPAddr = ""
		} else {
			cfg.HTTPAddr = *httpAddr
		}
	}

	// The only fatal validation; components trust the config afterwards.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := run(cfg, log, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, log *zap.SugaredLogger, printState bool) error {
	limits := ranging.Limits{
		MinCM:   cfg.Measurement.MinDistanceCM,
		MaxCM:   cfg.Measurement.MaxDistanceCM,
		Timeout: cfg.Measurement.SensorTimeout,
	}
	ranger, err := ranging.NewRealRanger(cfg.Pins.Trigger, cfg.Pins.Echo, limits)
	if err != nil {
		return fmt.Errorf("init ranger: %w", err)
	}
	defer ranger.Close()

	if printState {
		return printOnce(cfg, ranger)
	}

	batt, err := battery.NewRealMonitor(cfg.Pins.BatteryChannel)
	if err != nil {
		return fmt.Errorf("init battery monitor: %w", err)
	}
	defer batt.Close()

	// A broken LED is an annoyance, not a reason to stop reporting.
	var indicator led.Driver
	if d, err := led.NewRealDriver(cfg.Pins.LED); err != nil {
		log.Warnf("led unavailable: %v", err)
	} else {
		indicator = d
		defer d.Close()
	}

	publisher, err := mqtt.NewRealPublisher(cfg.MQTT, cfg.Identity.SensorID, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		SensorID:            cfg.Identity.SensorID,
		Location:            cfg.Identity.Location,
		FirmwareVersion:     cfg.Identity.FirmwareVersion,
		HardwareVersion:     cfg.Identity.HardwareVersion,
		Broker:              cfg.MQTT.Broker,
		HTTPAddr:            cfg.HTTPAddr,
		IntervalMs:          cfg.Measurement.Interval.Milliseconds(),
		Samples:             cfg.Measurement.Samples,
		DebounceCount:       cfg.Measurement.DebounceCount,
		OccupiedThresholdCM: cfg.Measurement.OccupiedThresholdCM,
		DeepSleepEnabled:    cfg.Power.DeepSleepEnabled,
	})

	sched := scheduler.New(cfg, scheduler.Deps{
		Ranger:     ranger,
		Battery:    batt,
		Publisher:  publisher,
		ConnStatus: publisher,
		LED:        indicator,
		Tracker:    tracker,
		Log:        log,
	})

	if err := sched.PublishLifecycle("STARTUP", ""); err != nil {
		log.Errorf("failed to publish startup report: %v", err)
	} else {
		log.Info("published startup report")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Infow("started",
		"sensor_id", cfg.Identity.SensorID,
		"location", cfg.Identity.Location,
		"broker", cfg.MQTT.Broker,
		"interval", cfg.Measurement.Interval,
		"deep_sleep", cfg.Power.DeepSleepEnabled)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(sched, log, sigCh, wait)
}

// wait is the production timer; tests substitute their own.
func wait(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// runLoop runs measurement cycles until a shutdown signal arrives. Between
// cycles it either deep-sleeps (suspension is not cancellable; signals are
// handled on wake) or waits cooperatively on a timer.
func runLoop(sched *scheduler.Scheduler, log *zap.SugaredLogger, sig <-chan os.Signal, wait func(time.Duration) <-chan time.Time) error {
	for {
		sched.RunCycle()

		if sched.DeepSleepEnabled() {
			sched.DeepSleep()
			select {
			case s := <-sig:
				return shutdown(sched, log, s)
			default:
			}
			continue
		}

		select {
		case s := <-sig:
			return shutdown(sched, log, s)
		case <-wait(sched.NextInterval()):
		}
	}
}

func shutdown(sched *scheduler.Scheduler, log *zap.SugaredLogger, s os.Signal) error {
	log.Infof("received %v, shutting down", s)

	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	if err := sched.PublishLifecycle("SHUTDOWN", signalName); err != nil {
		log.Errorf("failed to publish shutdown report: %v", err)
	} else {
		log.Info("published shutdown report")
	}
	return nil
}

// printOnce runs a single measurement cycle and prints the result, for
// field installation checks.
func printOnce(cfg config.Config, ranger ranging.Ranger) error {
	samples := make([]ranging.Sample, 0, cfg.Measurement.Samples)
	for i := 0; i < cfg.Measurement.Samples; i++ {
		s, err := ranger.MeasureOnce()
		if err != nil {
			return fmt.Errorf("measure: %w", err)
		}
		samples = append(samples, s)
	}

	distance, ok := logic.Aggregate(samples, cfg.Measurement.Quorum())
	if !ok {
		fmt.Println("no reliable reading (quorum not met)")
		return nil
	}

	state := logic.StateVacant
	if distance <= cfg.Measurement.OccupiedThresholdCM {
		state = logic.StateOccupied
	}
	fmt.Printf("distance: %.1f cm, classification: %s (threshold %.0f cm)\n",
		distance, state, cfg.Measurement.OccupiedThresholdCM)
	return nil
}
