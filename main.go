package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/vimeo/dials"
	"github.com/vimeo/dials/sources/env"
	"github.com/vimeo/dials/sources/flag"

	"github.com/y4kupkaya/android-volume-controller/adb"
	"github.com/y4kupkaya/android-volume-controller/errutil"
	"github.com/y4kupkaya/android-volume-controller/events"
	"github.com/y4kupkaya/android-volume-controller/keepalive"
	"github.com/y4kupkaya/android-volume-controller/mixer"
)

const appVersion = "1.0.0"

// mixerWarmup is how long the keep-alive clip plays before the sync loop
// starts, giving the mixer time to register our session.
const mixerWarmup = 3 * time.Second

type Config struct {
	Background bool   `dialsdesc:"Run in background mode with minimal console output (errors only)"`
	Verbose    bool   `dialsdesc:"Enable verbose logging with debug information"`
	V          bool   `dialsdesc:"Alias of verbose"`
	Version    bool   `dialsdesc:"Print the version and exit"`
	Match      string `dialsdesc:"Comma-separated process names identifying our session in the mixer"`
	LogFile    string `dialsdesc:"Path of the rotating log file"`
}

var config *Config

func defaultConfig() *Config {
	return &Config{
		Match:   mixer.DefaultProcessNames,
		LogFile: filepath.Join(xdg.StateHome, "android-volume-controller", "controller.log"),
	}
}

func realMain() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config = defaultConfig()
	flagSrc, err := flag.NewCmdLineSet(flag.DefaultFlagNameConfig(), config)
	if err != nil {
		return err
	}
	d, err := dials.Config(ctx, config, &env.Source{}, flagSrc)
	if err != nil {
		return err
	}
	config = d.View()

	if config.Version {
		fmt.Println("android-volume-controller v" + appVersion)
		return nil
	}

	verbose := config.Verbose || config.V
	debugLevel := "info"
	if verbose {
		debugLevel = "debug"
	}
	logBknd, err := newLogBackend(config.LogFile, debugLevel, config.Background)
	if err != nil {
		return err
	}
	defer logBknd.close()
	log := logBknd.logger("CTRL")

	if !config.Background {
		printWelcome()
	}
	if verbose && !config.Background {
		log.Infof("Running in verbose mode")
	} else if config.Background {
		log.Errorf("Running in background mode (minimal output)")
	}
	log.Infof("Initializing Android Volume Controller")

	eventBus := events.NewBus()
	go handleConsoleEvents(eventBus.Subscribe(64), log)

	log.Infof("Checking system dependencies...")
	adapter := adb.New(logBknd.logger("ADBC"))
	if err := adapter.CheckInstalled(ctx); err != nil {
		log.Errorf("ADB (Android Debug Bridge) is required but not accessible.")
		log.Errorf("Please install Android SDK Platform Tools and add it to your PATH.")
		return err
	}
	log.Infof("✓ ADB is installed and accessible")

	log.Infof("Initializing Android device connection...")
	devices, err := adapter.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		log.Errorf("No Android device found. Please ensure:")
		log.Errorf("• Device is connected via USB")
		log.Errorf("• USB Debugging is enabled in Developer Options")
		log.Errorf("• Computer is authorized on the device")
		return errutil.E(errutil.DeviceUnreachable, "adb devices", errors.New("no devices connected"))
	}
	serial := devices[0]
	if len(devices) > 1 {
		log.Warnf("Multiple devices connected, using %s", serial)
	}
	adapter.Target(serial)
	maxVolume := adapter.QueryMaxVolume(ctx)
	eventBus.Publish(events.DeviceDiscovered{Serial: serial, MaxVolume: maxVolume})

	finder, err := mixer.NewFinder(mixer.ParseNames(config.Match), logBknd.logger("MIXR"))
	if err != nil {
		return err
	}
	defer finder.Release()

	log.Infof("Starting audio system...")
	emitter, err := keepalive.New(logBknd.logger("KEEP"))
	if err != nil {
		log.Errorf("Initialization failed: %v", err)
		return err
	}
	emitter.Start(ctx)
	log.Infof("✓ Audio system started successfully")
	log.Infof("Waiting for Volume Mixer registration...")
	select {
	case <-ctx.Done():
	case <-time.After(mixerWarmup):
	}

	log.Infof("Starting volume synchronization...")
	if !config.Background {
		printInstructions(log)
	}

	ctrl := NewController(adapter, finder, maxVolume, eventBus, log)
	runErr := ctrl.Run(ctx)

	if runErr == nil {
		log.Infof("Received shutdown signal, cleaning up...")
	}
	log.Infof("Shutting down Android Volume Controller...")
	// The loop may have exited on its own; cancel so the keep-alive
	// emitter winds down too. A second interrupt now kills outright.
	stop()
	emitter.Stop()
	log.Infof("✓ Temporary files cleaned up")
	log.Infof("Application shutdown complete")
	return runErr
}

func main() {
	err := realMain()
	if err == nil || errors.Is(err, context.Canceled) {
		// An interrupt that landed during startup is still a clean exit.
		return
	}
	fmt.Println("Error:", err)
	os.Exit(1)
}
