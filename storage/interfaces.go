package storage

import (
	"context"

	"usgs-water-summary/models"
)

// Batch is one run's cleaned readings together with what identifies them.
type Batch struct {
	RunID         string
	SiteID        string
	ParameterCode string
	Readings      []models.Reading
}

// SeriesWriter persists the cleaned table.
type SeriesWriter interface {
	Write(series *models.Series) error
}

// SummaryWriter persists the summary document.
type SummaryWriter interface {
	Write(doc models.SummaryDocument) error
}

// ReadingArchive is the interface any history backend must satisfy.
type ReadingArchive interface {
	Save(ctx context.Context, batch Batch) error
	Close() error
}
