package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sitepulse",
		Usage: "scrape a website through the sitepulse backend and inspect the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "scrape backend base URL (overrides SITEPULSE_BACKEND_URL)",
				EnvVars: []string{"SITEPULSE_BACKEND_URL"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "session store driver: memory, sqlite or redis",
				EnvVars: []string{"SITEPULSE_STORE"},
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "disable the progress spinner",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "scrape",
				Usage:     "scrape a website and save the result",
				ArgsUsage: "<url>",
				Action:    ScrapeAction,
			},
			{
				Name:   "probe",
				Usage:  "check whether the scrape backend is online",
				Action: ProbeAction,
			},
			{
				Name:  "show",
				Usage: "print the last saved scrape result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   formatJSON,
						Usage:   "output format: json, yaml, markdown or html",
					},
				},
				Action: ShowAction,
			},
			{
				Name:   "website",
				Usage:  "print the saved website URL",
				Action: WebsiteAction,
			},
			{
				Name:   "clear",
				Usage:  "forget the saved website and scrape result",
				Action: ClearAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
