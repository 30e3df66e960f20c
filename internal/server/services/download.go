package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	sc "github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
)

// DownloadTicket is a time-boxed URL to GET the file content.
type DownloadTicket struct {
	FileID      string
	DownloadURL string
	ExpiresIn   int64 // seconds
}

// DownloadService issues signed download URLs for files the requester may
// read. Only ACTIVE files are downloadable.
type DownloadService struct {
	access *AccessService
	store  objectstore.Client
	config *sc.Config
	logger logging.Logger
}

func NewDownloadService(access *AccessService, store objectstore.Client, config *sc.Config, logger logging.Logger) *DownloadService {
	return &DownloadService{
		access: access,
		store:  store,
		config: config,
		logger: logger.With("module", "download"),
	}
}

// IssueURL authorizes requesterID against fileID and signs a download URL.
// A PENDING record is common.ErrNotReady, a CORRUPT one common.ErrFileCorrupt.
func (s *DownloadService) IssueURL(ctx context.Context, requesterID, fileID string) (*DownloadTicket, error) {

	rec, err := s.access.Authorize(ctx, requesterID, fileID)
	if err != nil {
		return nil, err
	}

	switch rec.Status {
	case models.FileStatusActive:
	case models.FileStatusPending:
		return nil, common.ErrNotReady
	case models.FileStatusCorrupt:
		return nil, common.ErrFileCorrupt
	default:
		return nil, fmt.Errorf("%w: unexpected file status %q", common.ErrorInternal, rec.Status)
	}

	// Confirm the object is still there before handing out a URL for it.
	if _, err := s.store.Stat(ctx, rec.ObjectKey); err != nil {
		return nil, fmt.Errorf("error checking object: %w", err)
	}

	url, err := s.store.PresignGet(ctx, rec.ObjectKey, s.config.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("error presigning download url: %w", err)
	}

	metrics.DownloadURLsIssued.Inc()
	s.logger.Info(ctx, "download url issued", "fileID", rec.FileID, "requesterID", requesterID)

	return &DownloadTicket{
		FileID:      rec.FileID,
		DownloadURL: url,
		ExpiresIn:   int64(s.config.DownloadURLTTL.Seconds()),
	}, nil
}
