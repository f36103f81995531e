package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/break-my-assignment/internal/services/extract"
	"github.com/benvon/break-my-assignment/internal/services/storage"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UploadPresigner signs direct-to-bucket uploads
type UploadPresigner interface {
	PresignUpload(ctx context.Context, fileName string) (*storage.PresignedUpload, error)
}

// UploadHandler issues presigned upload URLs
type UploadHandler struct {
	presigner UploadPresigner
	logger    *zap.Logger
}

// NewUploadHandler creates an upload handler
func NewUploadHandler(presigner UploadPresigner, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{presigner: presigner, logger: logger}
}

// RegisterRoutes registers upload routes
func (h *UploadHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/uploads", h.CreateUpload).Methods("POST")
}

// CreateUploadRequest names the file about to be uploaded
type CreateUploadRequest struct {
	FileName string `json:"file_name" validate:"required,file_name"`
	FileType string `json:"file_type" validate:"max=255"`
}

// CreateUploadResponse tells the client where to PUT the file and which URL to analyze
type CreateUploadResponse struct {
	*storage.PresignedUpload
	ContentType string `json:"content_type"`
}

// CreateUpload presigns an upload for a PDF or DOCX file
func (h *UploadHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	var req CreateUploadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	format, err := extract.DetectFormat(req.FileName, req.FileType)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "unsupported_format", "Unsupported file format")
		return
	}

	upload, err := h.presigner.PresignUpload(r.Context(), req.FileName)
	if err != nil {
		h.logger.Error("presign_upload_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to prepare upload")
		return
	}

	respondJSON(w, http.StatusCreated, CreateUploadResponse{
		PresignedUpload: upload,
		ContentType:     format.MIMEType(),
	})
}
