package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CatalogResult is the normalized open-line set for one placement
type CatalogResult struct {
	Lines    []OpenLine
	Warnings []Warning
}

// Catalog loads and normalizes open documents into lines
type Catalog struct {
	documents DocumentReader
	logger    *zap.Logger
}

// CatalogOption is a functional option for configuring the catalog
type CatalogOption func(*Catalog)

// WithCatalogLogger sets the logger used for fetch warnings
func WithCatalogLogger(logger *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCatalog creates a catalog reading from documents
func NewCatalog(documents DocumentReader, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		documents: documents,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches every kind concurrently. A kind whose fetch fails contributes no lines and
// one warning; the other kinds still load. The only error returned is context cancellation.
func (c *Catalog) Load(
	ctx context.Context,
	tenantID, counterpartyID, locationID uuid.UUID,
	kinds []LineKind,
) (CatalogResult, error) {
	if counterpartyID == uuid.Nil || locationID == uuid.Nil {
		return CatalogResult{Lines: []OpenLine{}}, nil
	}
	kinds = uniqueKinds(kinds)

	perKind := make([][]OpenLine, len(kinds))
	warnings := make([]*Warning, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !kind.IsValid() {
				warnings[i] = &Warning{Kind: kind, Message: fmt.Sprintf("unknown document kind %q", kind)}
				return nil
			}
			docs, err := c.documents.FindOpen(gctx, tenantID, counterpartyID, locationID, kind)
			if err != nil {
				c.logger.Warn("Failed to load open documents",
					zap.String("kind", kind.String()),
					zap.String("counterparty_id", counterpartyID.String()),
					zap.String("location_id", locationID.String()),
					zap.Error(err))
				warnings[i] = &Warning{Kind: kind, Message: fmt.Sprintf("could not load %s documents: %v", kind, err)}
				return nil
			}
			lines := make([]OpenLine, 0, len(docs))
			for j := range docs {
				if !docs[j].IsOpen() {
					continue
				}
				lines = append(lines, docs[j].ToOpenLine())
			}
			perKind[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CatalogResult{}, err
	}

	result := CatalogResult{Lines: []OpenLine{}}
	for i := range kinds {
		result.Lines = append(result.Lines, perKind[i]...)
		if warnings[i] != nil {
			result.Warnings = append(result.Warnings, *warnings[i])
		}
	}
	sortLinesOldestFirst(result.Lines)
	return result, nil
}

func uniqueKinds(kinds []LineKind) []LineKind {
	seen := make(map[LineKind]bool, len(kinds))
	out := make([]LineKind, 0, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
