// Package export orchestrates the documentation pipeline: markdown in,
// structured blocks out to a platform, optionally with the markdown
// generated first.
//
// Information Hiding:
// - Stage sequencing and per-operation correlation stay here
// - Platform clients are behind small seams so the service tests without
//   a network
package export

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/richinex/scribe/confluence"
	scriberr "github.com/richinex/scribe/errors"
	"github.com/richinex/scribe/llm"
	"github.com/richinex/scribe/markdown"
	"github.com/richinex/scribe/notion"
)

// BlockDeliverer is the notion-side seam: chunked delivery of a node tree
// under a target block.
type BlockDeliverer interface {
	Deliver(ctx context.Context, targetID string, nodes []notion.Node) (notion.DeliveryReport, error)
}

// PagePublisher is the confluence-side seam: render-and-upsert of one page.
type PagePublisher interface {
	PublishPage(ctx context.Context, req confluence.PublishRequest) (*confluence.PublishResult, error)
}

// Generator is the routing seam for documentation generation.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// Service wires generation and the two export targets together. Any seam
// may be nil; the matching operations then fail with a configuration
// error instead of a panic.
type Service struct {
	notion     BlockDeliverer
	confluence PagePublisher
	generator  Generator
	log        *logrus.Logger
}

// New builds a Service. A nil logger falls back to the standard logger.
func New(deliverer BlockDeliverer, publisher PagePublisher, generator Generator, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		notion:     deliverer,
		confluence: publisher,
		generator:  generator,
		log:        logger,
	}
}

// NotionExport reports a completed export to a Notion page.
type NotionExport struct {
	PageID        string
	BlocksAdded   int
	ChunkCount    int
	CorrelationID string
}

// ConfluenceExport reports a completed export to a Confluence page.
type ConfluenceExport struct {
	PageID        string
	Title         string
	Version       int
	Created       bool
	CorrelationID string
}

// GenerateInput carries what to document and in which style.
type GenerateInput struct {
	Context string
	Mode    llm.Mode
}

// ExportToNotion converts markdown to blocks and delivers them under the
// page. Chunks already accepted before a failure stay delivered; the
// returned error reports where the export stopped.
func (s *Service) ExportToNotion(ctx context.Context, pageID, source string) (*NotionExport, error) {
	if s.notion == nil {
		return nil, &scriberr.PermissionError{Message: "notion export is not configured"}
	}
	correlationID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{
		"operation":      "export_notion",
		"correlation_id": correlationID,
		"page_id":        pageID,
	})

	nodes := notion.BlocksFrom(markdown.Parse(source, markdown.Options{}))
	log.WithField("top_level_blocks", len(nodes)).Debug("markdown converted")

	report, err := s.notion.Deliver(ctx, pageID, nodes)
	if err != nil {
		log.WithError(err).WithField("blocks_added", report.BlocksAdded).Error("notion export failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"blocks_added": report.BlocksAdded,
		"chunks":       report.ChunkCount,
	}).Info("notion export complete")
	return &NotionExport{
		PageID:        pageID,
		BlocksAdded:   report.BlocksAdded,
		ChunkCount:    report.ChunkCount,
		CorrelationID: correlationID,
	}, nil
}

// ExportToConfluence renders markdown to storage format and upserts it by
// title in the space.
func (s *Service) ExportToConfluence(ctx context.Context, spaceKey, title, source string) (*ConfluenceExport, error) {
	if s.confluence == nil {
		return nil, &scriberr.PermissionError{Message: "confluence export is not configured"}
	}
	correlationID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{
		"operation":      "export_confluence",
		"correlation_id": correlationID,
		"space":          spaceKey,
		"title":          title,
	})

	result, err := s.confluence.PublishPage(ctx, confluence.PublishRequest{
		SpaceKey: spaceKey,
		Title:    title,
		Markdown: source,
	})
	if err != nil {
		log.WithError(err).Error("confluence export failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"page_id": result.PageID,
		"version": result.Version,
		"created": result.Created,
	}).Info("confluence export complete")
	return &ConfluenceExport{
		PageID:        result.PageID,
		Title:         result.Title,
		Version:       result.Version,
		Created:       result.Created,
		CorrelationID: correlationID,
	}, nil
}

// Generate produces a markdown document through the backend chain.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (*llm.Result, error) {
	if s.generator == nil {
		return nil, &scriberr.ProviderUnavailableError{}
	}
	correlationID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{
		"operation":      "generate",
		"correlation_id": correlationID,
		"mode":           string(input.Mode),
	})

	result, err := s.generator.Generate(ctx, llm.Request{Context: input.Context, Mode: input.Mode})
	if err != nil {
		log.WithError(err).Error("generation failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"provider":      result.Provider,
		"was_optimized": result.WasOptimized,
		"elapsed_ms":    result.Metadata.ElapsedMS,
	}).Info("generation complete")
	return result, nil
}

// GeneratedNotionExport pairs a generation with its Notion delivery.
type GeneratedNotionExport struct {
	Generation *llm.Result
	Export     *NotionExport
}

// GeneratedConfluenceExport pairs a generation with its Confluence page.
type GeneratedConfluenceExport struct {
	Generation *llm.Result
	Export     *ConfluenceExport
}

// GenerateAndExportToNotion generates documentation and appends it under
// the page in one operation.
func (s *Service) GenerateAndExportToNotion(ctx context.Context, input GenerateInput, pageID string) (*GeneratedNotionExport, error) {
	generation, err := s.Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	exported, err := s.ExportToNotion(ctx, pageID, generation.Documentation)
	if err != nil {
		return nil, err
	}
	return &GeneratedNotionExport{Generation: generation, Export: exported}, nil
}

// GenerateAndExportToConfluence generates documentation and publishes it
// as a page in one operation.
func (s *Service) GenerateAndExportToConfluence(ctx context.Context, input GenerateInput, spaceKey, title string) (*GeneratedConfluenceExport, error) {
	generation, err := s.Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	exported, err := s.ExportToConfluence(ctx, spaceKey, title, generation.Documentation)
	if err != nil {
		return nil, err
	}
	return &GeneratedConfluenceExport{Generation: generation, Export: exported}, nil
}
