package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/sitepulse/api"
	"github.com/use-agent/sitepulse/client"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/logging"
	"github.com/use-agent/sitepulse/notify"
	"github.com/use-agent/sitepulse/session"
	"github.com/use-agent/sitepulse/store"
	"github.com/use-agent/sitepulse/webhook"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP protocol; logs go to stderr.
	logFile := logging.Init(cfg.Log, os.Stderr, "sitepulse-mcp")
	defer logFile.Close()

	st, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	sess := session.New(st)

	notifiers := notify.Multi{notify.Log{}}
	if cfg.Webhook.URL != "" {
		notifiers = append(notifiers, notify.Webhook{Sender: webhook.NewSender(cfg.Webhook.URL, cfg.Webhook.Secret)})
	}

	s := newServer(client.New(cfg.Client, sess, notifiers), client.NewProber(cfg.Client), sess)

	slog.Info("sitepulse MCP server starting", "backend", cfg.Client.BaseURL, "store", cfg.Store.Driver)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(cl *client.Client, prober *client.Prober, sess *session.Session) *server.MCPServer {
	s := server.NewMCPServer(
		"sitepulse",
		api.Version,
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_website",
		mcp.WithDescription("Scrape a website through the sitepulse backend. Returns the page title, description and Markdown, and saves the result as the current website."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Website URL or bare domain, e.g. 'example.com'"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeWebsite(cl))

	statusTool := mcp.NewTool("backend_status",
		mcp.WithDescription("Check whether the sitepulse scrape backend is reachable. Returns 'online' or 'offline'."),
	)
	s.AddTool(statusTool, handleBackendStatus(prober))

	lastTool := mcp.NewTool("last_scrape",
		mcp.WithDescription("Return the most recently saved scrape result."),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default) or 'json'"),
			mcp.Enum("markdown", "json"),
		),
	)
	s.AddTool(lastTool, handleLastScrape(sess))

	return s
}
