package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/customeros/mailharvest/app"
	"github.com/customeros/mailharvest/config"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		log.Printf("mailharvest: %v", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "mailharvest",
		Usage: "fetch recent mail over IMAP or POP3, classify job offers and export them to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: config.DefaultEnvFile,
				Usage: "dotenv file loaded before the process environment is read",
			},
		},
		Action: runOnce,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "process one batch and exit",
				Action: runOnce,
			},
			{
				Name:   "schedule",
				Usage:  "process a batch on every tick of CRON_SCHEDULE_FETCH",
				Action: schedule,
			},
		},
	}
}

func setup(c *cli.Context) (*app.App, error) {
	cfg, err := config.InitConfig(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	return app.NewApp(cfg)
}

func runOnce(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.RunOnce(contextOf(c))
}

func schedule(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Schedule(contextOf(c))
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
