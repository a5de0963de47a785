package confluence

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	scriberr "github.com/richinex/scribe/errors"
	"github.com/richinex/scribe/markdown"
)

// PublishRequest describes a markdown document destined for a space.
type PublishRequest struct {
	SpaceKey string
	Title    string
	Markdown string
	// ParentID places a newly created page under an existing one. It is
	// ignored when the page already exists.
	ParentID string
}

// PublishResult reports where a document landed.
type PublishResult struct {
	PageID  string
	Title   string
	Version int
	// Created is true when a new page was made rather than an existing
	// one updated.
	Created bool
}

// PublishPage renders markdown to storage format and upserts it by title:
// a page with the same title in the space is updated at its next version,
// otherwise a new page is created. A version conflict during update is
// returned as-is for the caller to resolve; the page is never retried
// blindly.
func (c *Client) PublishPage(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if strings.TrimSpace(req.SpaceKey) == "" {
		return nil, &scriberr.ValidationError{Message: "space key is empty"}
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, &scriberr.ValidationError{Message: "page title is empty"}
	}

	blocks := markdown.Parse(req.Markdown, markdown.Options{})
	body := Render(blocks)

	existing, err := c.FindPageByTitle(ctx, req.SpaceKey, req.Title)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		page, err := c.CreatePage(ctx, CreateRequest{
			SpaceKey: req.SpaceKey,
			Title:    req.Title,
			Body:     body,
			ParentID: req.ParentID,
		})
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"page_id": page.ID,
			"space":   req.SpaceKey,
			"title":   req.Title,
		}).Info("created page")
		return &PublishResult{PageID: page.ID, Title: page.Title, Version: page.Version, Created: true}, nil
	}

	page, err := c.GetPage(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	updated, err := c.UpdatePage(ctx, page, body)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"page_id": updated.ID,
		"space":   req.SpaceKey,
		"title":   req.Title,
		"version": updated.Version,
	}).Info("updated page")
	return &PublishResult{PageID: updated.ID, Title: updated.Title, Version: updated.Version, Created: false}, nil
}
