// Command execution for CLI commands.
//
// Information Hiding:
// - Service assembly from settings hidden
// - Backend chain construction hidden
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/richinex/scribe/config"
	"github.com/richinex/scribe/confluence"
	"github.com/richinex/scribe/export"
	"github.com/richinex/scribe/llm"
	"github.com/richinex/scribe/notion"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{}
}

// GenerateTargets names the optional export destinations for a
// generated document. Zero value means print to stdout only.
type GenerateTargets struct {
	NotionPage      string
	ConfluenceSpace string
	ConfluenceTitle string
}

// Generate drafts documentation from the context in contextPath and
// prints it, optionally exporting it to the targets.
func Generate(ctx context.Context, contextPath, mode string, targets GenerateTargets, opts Options) error {
	source, err := readSource(contextPath)
	if err != nil {
		return err
	}

	deps, err := buildDeps(opts)
	if err != nil {
		return err
	}

	input := export.GenerateInput{Context: source, Mode: llm.Mode(mode)}

	switch {
	case targets.NotionPage != "":
		combined, err := deps.service.GenerateAndExportToNotion(ctx, input, targets.NotionPage)
		if err != nil {
			return err
		}
		printGeneration(combined.Generation)
		printNotionExport(combined.Export)
		return nil
	case targets.ConfluenceTitle != "" || targets.ConfluenceSpace != "":
		space, title, err := confluenceTarget(targets, deps.settings)
		if err != nil {
			return err
		}
		combined, err := deps.service.GenerateAndExportToConfluence(ctx, input, space, title)
		if err != nil {
			return err
		}
		printGeneration(combined.Generation)
		printConfluenceExport(combined.Export)
		return nil
	default:
		result, err := deps.service.Generate(ctx, input)
		if err != nil {
			return err
		}
		printGeneration(result)
		return nil
	}
}

// ExportNotion appends the markdown in sourcePath to a Notion page.
func ExportNotion(ctx context.Context, pageID, sourcePath string, opts Options) error {
	source, err := readSource(sourcePath)
	if err != nil {
		return err
	}

	deps, err := buildDeps(opts)
	if err != nil {
		return err
	}

	result, err := deps.service.ExportToNotion(ctx, pageID, source)
	if err != nil {
		return err
	}

	printNotionExport(result)
	return nil
}

// ExportConfluence publishes the markdown in sourcePath as a Confluence
// page, creating or updating by title.
func ExportConfluence(ctx context.Context, spaceKey, title, sourcePath string, opts Options) error {
	source, err := readSource(sourcePath)
	if err != nil {
		return err
	}

	deps, err := buildDeps(opts)
	if err != nil {
		return err
	}

	space, title, err := confluenceTarget(GenerateTargets{ConfluenceSpace: spaceKey, ConfluenceTitle: title}, deps.settings)
	if err != nil {
		return err
	}

	result, err := deps.service.ExportToConfluence(ctx, space, title, source)
	if err != nil {
		return err
	}

	printConfluenceExport(result)
	return nil
}

// Search runs a CQL query against Confluence and prints matching pages.
func Search(ctx context.Context, query, spaceKey string, limit int, cursor string, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}
	if !settings.Confluence.Configured() {
		return fmt.Errorf("confluence is not configured: set CONFLUENCE_BASE_URL, CONFLUENCE_EMAIL, and CONFLUENCE_API_TOKEN")
	}

	client := buildConfluenceClient(settings, newLogger(opts.Verbose))

	result, err := client.Search(ctx, query, confluence.SearchOptions{
		SpaceKey: spaceKey,
		Limit:    limit,
		Cursor:   cursor,
	})
	if err != nil {
		return err
	}

	if len(result.Pages) == 0 {
		fmt.Println("No pages found.")
		return nil
	}
	for _, page := range result.Pages {
		fmt.Printf("%-12s %-8s %s\n", page.ID, page.SpaceKey, page.Title)
	}
	if result.NextCursor != "" {
		fmt.Printf("\nMore results: --cursor %s\n", result.NextCursor)
	}
	return nil
}

// dependencies bundles everything a runner needs after assembly.
type dependencies struct {
	settings config.Settings
	service  *export.Service
}

// buildDeps assembles the export service from environment settings.
// Targets without credentials are left unconfigured; the service rejects
// operations against them with a clear error.
func buildDeps(opts Options) (*dependencies, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	logger := newLogger(opts.Verbose)

	backends, err := buildBackends(settings, logger)
	if err != nil {
		return nil, err
	}
	router := llm.NewRouter(backends, logger)

	var deliverer export.BlockDeliverer
	if settings.Notion.Configured() {
		client := notion.NewClient(notion.Options{
			Token:      settings.Notion.Token,
			BaseURL:    settings.Notion.BaseURL,
			APIVersion: settings.Notion.APIVersion,
			Policy:     settings.Export.Policy(),
		})
		deliverer = notion.NewDeliverer(client, notion.DeliveryOptions{
			ChunkSize: settings.Notion.BlockCap,
			Pace:      settings.Notion.Pace,
			Logger:    logger,
		})
	}

	var publisher export.PagePublisher
	if settings.Confluence.Configured() {
		publisher = buildConfluenceClient(settings, logger)
	}

	return &dependencies{
		settings: settings,
		service:  export.New(deliverer, publisher, router, logger),
	}, nil
}

// buildBackends creates one backend per provider in chain order,
// skipping providers whose API key is absent.
func buildBackends(settings config.Settings, log *logrus.Logger) ([]llm.Backend, error) {
	temperature := float32(settings.LLM.Temperature)

	var backends []llm.Backend
	for _, name := range settings.LLM.Chain() {
		provider, err := llm.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		apiKey, err := config.APIKeyFor(name)
		if err != nil {
			log.WithField("provider", name).Debug("skipping backend without API key")
			continue
		}
		model, err := config.ModelFor(name)
		if err != nil {
			return nil, err
		}

		backend, err := llm.NewBackend(provider, llm.BackendConfig{
			APIKey:      apiKey,
			Model:       model,
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, err
		}
		backends = append(backends, backend)
	}
	return backends, nil
}

func buildConfluenceClient(settings config.Settings, log *logrus.Logger) *confluence.Client {
	return confluence.NewClient(confluence.Options{
		BaseURL:   settings.Confluence.BaseURL,
		Email:     settings.Confluence.Email,
		APIToken:  settings.Confluence.APIToken,
		Policy:    settings.Export.Policy(),
		SearchTTL: settings.Confluence.SearchTTL,
		Logger:    log,
	})
}

// confluenceTarget resolves the space and title for a Confluence write.
// The space falls back to CONFLUENCE_SPACE; the title has no fallback.
func confluenceTarget(targets GenerateTargets, settings config.Settings) (string, string, error) {
	title := targets.ConfluenceTitle
	if title == "" {
		return "", "", fmt.Errorf("--title is required for a Confluence export")
	}
	space := targets.ConfluenceSpace
	if space == "" {
		space = settings.Confluence.SpaceKey
	}
	if space == "" {
		return "", "", fmt.Errorf("no space key: pass --space or set CONFLUENCE_SPACE")
	}
	return space, title, nil
}

// newLogger builds the CLI logger. Verbose switches on debug logging;
// otherwise only warnings and errors reach the terminal.
func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

// readSource loads markdown from a file, or from stdin when the path is
// "-" or empty.
func readSource(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func printGeneration(result *llm.Result) {
	fmt.Printf("%s\n\n", result.Documentation)
	if result.WasOptimized {
		fmt.Printf("Context optimized: %d -> %d chars (%.1f%% reduction)\n",
			result.Metadata.OriginalSize, result.Metadata.OptimizedSize, result.Metadata.ReductionPercent)
	}
	fmt.Printf("Generated by %s in %dms (%s)\n",
		result.Provider, result.Metadata.ElapsedMS, result.Metadata.SelectionReason)
}

func printNotionExport(result *export.NotionExport) {
	fmt.Printf("Appended %d blocks to page %s in %d requests\n",
		result.BlocksAdded, result.PageID, result.ChunkCount)
}

func printConfluenceExport(result *export.ConfluenceExport) {
	if result.Created {
		fmt.Printf("Created page %q (id %s, version %d)\n", result.Title, result.PageID, result.Version)
		return
	}
	fmt.Printf("Updated page %q to version %d (id %s)\n", result.Title, result.Version, result.PageID)
}
