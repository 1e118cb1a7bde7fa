package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/bytewatt-integration/cmd"
)

func main() {
	app := &cli.App{
		Name:   "bytewatt-monitor",
		Usage:  "polls a byte-watt (Neovolt) home battery and republishes derived readings",
		Action: cmd.BytewattCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "bytewatt-username",
				EnvVars: []string{"BYTEWATT_USERNAME"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "bytewatt-password",
				EnvVars: []string{"BYTEWATT_PASSWORD"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				EnvVars: []string{"POLL_INTERVAL"},
				Value:   5 * time.Minute,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "listen-addr",
				EnvVars: []string{"LISTEN_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
