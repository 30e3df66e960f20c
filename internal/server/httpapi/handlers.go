package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
)

type reserveUploadRequest struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

type reserveUploadResponse struct {
	FileID    string `json:"fileId"`
	UploadURL string `json:"uploadUrl"`
	ExpiresIn int64  `json:"expiresIn"`
}

type downloadURLResponse struct {
	FileID      string `json:"fileId"`
	DownloadURL string `json:"downloadUrl"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type shareRequest struct {
	TargetUserID string `json:"targetUserId"`
}

type sharedFileItem struct {
	FileID      string    `json:"fileId"`
	Filename    string    `json:"filename"`
	OwnerUserID string    `json:"ownerUserId"`
	Status      string    `json:"status"`
	SharedAt    time.Time `json:"sharedAt"`
}

type listSharedResponse struct {
	Files []sharedFileItem `json:"files"`
}

// storageEvent mirrors the S3 notification payload; only the object key is
// used.
type storageEvent struct {
	Records []struct {
		S3 struct {
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

func (s *Server) handleReserveUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	var req reserveUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	ticket, err := s.reservations.Admit(r.Context(), userID, req.Filename, req.SizeBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reserveUploadResponse{
		FileID:    ticket.FileID,
		UploadURL: ticket.UploadURL,
		ExpiresIn: ticket.ExpiresIn,
	})
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	fileID := r.PathValue("fileID")
	if fileID == "" {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	ticket, err := s.downloads.IssueURL(r.Context(), userID, fileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, downloadURLResponse{
		FileID:      ticket.FileID,
		DownloadURL: ticket.DownloadURL,
		ExpiresIn:   ticket.ExpiresIn,
	})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	fileID := r.PathValue("fileID")
	if fileID == "" {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	if err := s.shares.Share(r.Context(), userID, fileID, req.TargetUserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "file shared"})
}

func (s *Server) handleListShared(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	files, err := s.shares.ListShared(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := listSharedResponse{Files: make([]sharedFileItem, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, sharedFileItem{
			FileID:      f.FileID,
			Filename:    f.Filename,
			OwnerUserID: f.OwnerUserID,
			Status:      string(f.Status),
			SharedAt:    f.SharedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleStorageEvent accepts S3-style notification payloads from the object
// store. A failed record returns 500 so the sender redelivers; reconciliation
// is idempotent, so redelivering already-processed records is harmless.
func (s *Server) handleStorageEvent(w http.ResponseWriter, r *http.Request) {
	var event storageEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	processed := 0
	for _, rec := range event.Records {
		// Object keys arrive URL-encoded in S3 notifications.
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			key = rec.S3.Object.Key
		}
		if err := s.reconciliations.Process(r.Context(), key); err != nil {
			s.logger.Error(r.Context(), "storage event processing failed", "objectKey", key, "error", err.Error())
			s.writeError(w, r, common.ErrorInternal)
			return
		}
		processed++
	}

	s.writeJSON(w, http.StatusOK, map[string]int{"processed": processed})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "error encoding response", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrQuotaExceeded):
		status, msg = http.StatusForbidden, "quota exceeded"
	case errors.Is(err, common.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrNotReady):
		status, msg = http.StatusConflict, "file is not ready for download"
	case errors.Is(err, common.ErrFileCorrupt):
		status, msg = http.StatusGone, "file is corrupt"
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
