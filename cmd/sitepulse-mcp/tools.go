package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/sitepulse/client"
	"github.com/use-agent/sitepulse/models"
	"github.com/use-agent/sitepulse/notify"
	"github.com/use-agent/sitepulse/session"
)

func handleScrapeWebsite(cl *client.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		outcome, err := cl.Scrape(ctx, url)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", models.UserMessage(err), models.CodeOf(err))), nil
		}
		return mcp.NewToolResultText(formatOutcome(outcome)), nil
	}
}

func handleBackendStatus(prober *client.Prober) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(string(prober.Check(ctx))), nil
	}
}

func handleLastScrape(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stored, err := sess.LastScrape(ctx)
		if errors.Is(err, session.ErrEmpty) {
			return mcp.NewToolResultError("no scrape result saved yet"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read session: %v", err)), nil
		}

		if request.GetString("format", "markdown") == "json" {
			b, err := json.MarshalIndent(stored, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
			}
			return mcp.NewToolResultText(string(b)), nil
		}

		o, err := stored.Outcome()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatOutcome(o)), nil
	}
}

// formatOutcome renders o as Markdown for the model. Degraded outcomes
// carry the raw body instead.
func formatOutcome(o models.Outcome) string {
	res := o.Result()
	var sb strings.Builder
	if o.Degraded() {
		fmt.Fprintf(&sb, "%s\n\nSource: %s\n\n", notify.MsgDegraded, res.URL)
		sb.WriteString(res.HTML)
		return sb.String()
	}

	if res.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", res.Title)
	}
	fmt.Fprintf(&sb, "Source: %s\n", res.URL)
	if res.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", res.Description)
	}
	if res.Language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", res.Language)
	}
	sb.WriteString("\n---\n\n")
	sb.WriteString(res.Markdown)

	for _, p := range res.RelatedPages {
		fmt.Fprintf(&sb, "\n---\n\n## %s\n\n", p.Title)
		sb.WriteString(p.Markdown)
	}
	return sb.String()
}
