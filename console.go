package main

import (
	"fmt"
	"strings"

	"github.com/decred/slog"

	"github.com/y4kupkaya/android-volume-controller/events"
	"github.com/y4kupkaya/android-volume-controller/pkg/format"
)

// handleConsoleEvents turns bus events into the operator-facing narrative.
// The log backend already keeps info lines off stdout in background mode,
// so the handler itself runs in every mode.
func handleConsoleEvents(eventChan chan events.Event, log slog.Logger) {
	for event := range eventChan {
		switch e := event.(type) {
		case events.DeviceDiscovered:
			log.Infof("✓ Android device connected: %s", e.Serial)
			log.Infof("✓ Android maximum volume level: %d", e.MaxVolume)
		case events.SessionAttached:
			log.Infof("✓ Audio session found in Volume Mixer")
			log.Infof("You can now control your Android device volume from your desktop!")
		case events.SessionLost:
			log.Infof("Audio session lost, searching for a new one...")
		case events.VolumeSynced:
			log.Infof("📱 Volume updated: %s -> %s",
				format.Percent(e.Fraction), format.Level(e.Level, e.Max))
		case events.MuteSynced:
			if e.Muted {
				log.Infof("🔇 Android device muted (synchronized with the Volume Mixer)")
			} else {
				log.Infof("🔊 Android device unmuted (synchronized with the Volume Mixer)")
			}
		case events.SyncFailed:
			log.Debugf("Sync failure on %q: %v", e.Op, e.Err)
		case events.ConnectionLost:
			// The sync loop reports this one itself, with recovery guidance.
		}
	}
}

func printWelcome() {
	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Printf("Android Volume Controller v%s\n", appVersion)
	fmt.Println("Control your Android device volume from your desktop's volume mixer")
	fmt.Println("")
	fmt.Println("Copyright (C) 2025 Yakup Kaya - yakupkaya.me")
	fmt.Println("Licensed under GNU General Public License v3.0")
	fmt.Println(rule)
}

func printInstructions(log slog.Logger) {
	log.Infof("Instructions:")
	log.Infof("1. Open your volume mixer (on Windows: right-click speaker icon > Open Volume mixer)")
	log.Infof("2. Find 'android-volume-controller' application in the mixer")
	log.Infof("3. Adjust the volume slider to control your Android device")
	log.Infof("4. Use mute button to mute/unmute your Android device")
	fmt.Println(strings.Repeat("=", 60))
}
