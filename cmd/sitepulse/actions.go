package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v2"

	"github.com/use-agent/sitepulse/client"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/logging"
	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/notify"
	"github.com/use-agent/sitepulse/session"
	"github.com/use-agent/sitepulse/store"
	"github.com/use-agent/sitepulse/webhook"
)

// env bundles what every command needs. close releases the store and the
// log file.
type env struct {
	cfg     *config.Config
	session *session.Session
	close   func()
}

// loadConfig applies the global flags on top of the environment and
// installs terminal-friendly logging unless configured otherwise.
func loadConfig(c *cli.Context) (*config.Config, io.Closer) {
	cfg := config.Load()
	if v := c.String("backend"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := c.String("store"); v != "" {
		cfg.Store.Driver = v
	}
	if os.Getenv("SITEPULSE_LOG_FORMAT") == "" {
		cfg.Log.Format = "pretty"
	}
	if os.Getenv("SITEPULSE_LOG_LEVEL") == "" {
		cfg.Log.Level = "warn"
	}
	return cfg, logging.Init(cfg.Log, os.Stderr, "sitepulse")
}

func setup(c *cli.Context) (*env, error) {
	cfg, logFile := loadConfig(c)
	st, err := store.Open(c.Context, cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &env{
		cfg:     cfg,
		session: session.New(st),
		close: func() {
			st.Close()
			logFile.Close()
		},
	}, nil
}

func newSpinner(c *cli.Context, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	if c.Bool("quiet") {
		s.Disable()
	}
	return s
}

// ScrapeAction runs the orchestrator for one URL and reports the outcome.
func ScrapeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: sitepulse scrape <url>", 2)
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	sp := newSpinner(c, " Scraping...")
	progress := notify.Func(func(_ context.Context, n notify.Notification) {
		if n.Kind != notify.KindRetrying {
			return
		}
		sp.Lock()
		sp.Suffix = " " + n.Message
		sp.Unlock()
	})

	var pending sync.WaitGroup
	notifiers := notify.Multi{notify.Log{}, progress}
	if e.cfg.Webhook.URL != "" {
		notifiers = append(notifiers, notify.Webhook{
			Sender:  webhook.NewSender(e.cfg.Webhook.URL, e.cfg.Webhook.Secret),
			Pending: &pending,
		})
	}
	defer pending.Wait()

	cl := client.New(e.cfg.Client, e.session, notifiers)

	sp.Start()
	outcome, err := cl.Scrape(c.Context, c.Args().First())
	sp.Stop()
	if err != nil {
		return cli.Exit(models.UserMessage(err), 1)
	}

	res := outcome.Result()
	if outcome.Degraded() {
		fmt.Println(notify.MsgDegraded)
		fmt.Printf("  url:  %s\n  html: %d bytes\n", res.URL, len(res.HTML))
		return nil
	}
	fmt.Println(notify.MsgSuccess)
	printSummary(os.Stdout, res)
	return nil
}

// ProbeAction reports backend reachability and fails when it is offline.
func ProbeAction(c *cli.Context) error {
	cfg, logFile := loadConfig(c)
	defer logFile.Close()

	sp := newSpinner(c, " Checking backend...")
	sp.Start()
	status := client.NewProber(cfg.Client).Check(c.Context)
	sp.Stop()

	fmt.Printf("Backend %s: %s\n", cfg.Client.BaseURL, status)
	if status != models.StatusOnline {
		return cli.Exit("", 1)
	}
	return nil
}

// ShowAction prints the last saved scrape result.
func ShowAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	stored, err := e.session.LastScrape(c.Context)
	if errors.Is(err, session.ErrEmpty) {
		return cli.Exit("No scrape result saved yet. Run 'sitepulse scrape <url>' first.", 1)
	}
	if err != nil {
		return err
	}
	return render(os.Stdout, stored, c.String("format"))
}

// WebsiteAction prints the saved website URL.
func WebsiteAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if !e.session.HasWebsite(c.Context) {
		return cli.Exit("No website saved yet. Run 'sitepulse scrape <url>' first.", 1)
	}
	url, err := e.session.Website(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

// ClearAction removes the saved website and scrape result.
func ClearAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.session.Clear(c.Context); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	fmt.Println("Session cleared")
	return nil
}

func printSummary(w io.Writer, res models.ScrapeResult) {
	fmt.Fprintf(w, "  url:         %s\n", res.URL)
	fmt.Fprintf(w, "  title:       %s\n", res.Title)
	if res.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", res.Description)
	}
	if res.Language != "" {
		fmt.Fprintf(w, "  language:    %s\n", res.Language)
	}
	fmt.Fprintf(w, "  markdown:    %d bytes\n", len(res.Markdown))
	for _, p := range res.RelatedPages {
		fmt.Fprintf(w, "  related:     %s (%s)\n", p.URL, p.Title)
	}
}
