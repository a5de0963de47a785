// Package main provides the scribe CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/scribe/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "scribe",
		Short: "Draft documentation with LLMs and export it to Notion or Confluence",
		Long: `A CLI tool for drafting technical documentation and exporting it.

Markdown goes in; Notion blocks or Confluence storage-format pages come out.
Generation runs through a provider chain with automatic failover, and
oversized context is trimmed before it reaches a model.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "Primary LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	// Add commands
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(exportNotionCmd())
	rootCmd.AddCommand(exportConfluenceCmd())
	rootCmd.AddCommand(searchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	var mode string
	var contextPath string
	var notionPage string
	var confluenceSpace string
	var confluenceTitle string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft documentation from source context",
		Long: `Draft a documentation page from raw context (code, notes, transcripts).

The context is read from --context, or from stdin when the flag is omitted.
Oversized context is condensed before generation. The primary provider is
tried first; configured fallbacks take over when it fails.

Modes:
- task: step-by-step task documentation (default)
- architecture: system design documentation
- meeting: meeting notes and decisions

Pass --notion-page or --space/--title to export the draft in the same run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Verbose:  verbose,
			}
			targets := cli.GenerateTargets{
				NotionPage:      notionPage,
				ConfluenceSpace: confluenceSpace,
				ConfluenceTitle: confluenceTitle,
			}
			return cli.Generate(context.Background(), contextPath, mode, targets, opts)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "task", "Documentation mode (task, architecture, meeting)")
	cmd.Flags().StringVarP(&contextPath, "context", "c", "", "Context file ('-' or empty reads stdin)")
	cmd.Flags().StringVar(&notionPage, "notion-page", "", "Notion page ID to append the draft to")
	cmd.Flags().StringVar(&confluenceSpace, "space", "", "Confluence space key for the draft")
	cmd.Flags().StringVar(&confluenceTitle, "title", "", "Confluence page title for the draft")

	return cmd
}

func exportNotionCmd() *cobra.Command {
	var sourcePath string

	cmd := &cobra.Command{
		Use:   "export-notion [page-id]",
		Short: "Append a markdown document to a Notion page",
		Long: `Convert a markdown document to Notion blocks and append them to a page.

Delivery is chunked to the platform's per-request block cap and paced so
sequential exports respect upstream rate limits. Nested content (table
rows) lands under its parent after the parent chunk is placed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Verbose:  verbose,
			}
			return cli.ExportNotion(context.Background(), args[0], sourcePath, opts)
		},
	}

	cmd.Flags().StringVarP(&sourcePath, "file", "f", "", "Markdown file ('-' or empty reads stdin)")

	return cmd
}

func exportConfluenceCmd() *cobra.Command {
	var spaceKey string
	var title string
	var sourcePath string

	cmd := &cobra.Command{
		Use:   "export-confluence",
		Short: "Publish a markdown document as a Confluence page",
		Long: `Convert a markdown document to Confluence storage format and publish it.

The page is looked up by title in the target space: a missing title creates
a new page, an existing one is updated at its next version number. A
version conflict (someone else saved first) fails the export; re-run to
retry against the new version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Verbose:  verbose,
			}
			return cli.ExportConfluence(context.Background(), spaceKey, title, sourcePath, opts)
		},
	}

	cmd.Flags().StringVar(&spaceKey, "space", "", "Confluence space key (defaults to CONFLUENCE_SPACE)")
	cmd.Flags().StringVar(&title, "title", "", "Page title to create or update")
	cmd.Flags().StringVarP(&sourcePath, "file", "f", "", "Markdown file ('-' or empty reads stdin)")

	return cmd
}

func searchCmd() *cobra.Command {
	var spaceKey string
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "search [cql]",
		Short: "Search Confluence pages with CQL",
		Long: `Run a CQL query against Confluence and list matching pages.

Results are paginated; when more pages exist the next cursor is printed.
Repeated queries within the cache window are served locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Verbose:  verbose,
			}
			return cli.Search(context.Background(), args[0], spaceKey, limit, cursor, opts)
		},
	}

	cmd.Flags().StringVar(&spaceKey, "space", "", "Restrict results to a space key")
	cmd.Flags().IntVar(&limit, "limit", 0, "Results per page (default 25)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Continue from a previous search")

	return cmd
}
