package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// AttachmentHandler handles file upload and download endpoints
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	logger            *zap.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *service.AttachmentService, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// Upload godoc
// @Summary Upload an attachment
// @Description Uploads a file to an editable document as multipart form data under the "file" field.
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.AttachmentDTO "Uploaded attachment"
// @Failure 400 {object} domain.APIError "Missing file or unsupported type"
// @Failure 409 {object} domain.APIError "Document is not editable"
// @Failure 413 {object} domain.APIError "File too large"
// @Security BearerAuth
// @Router /documents/{type}/{id}/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	maxBytes := h.attachmentService.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	// Multipart parts above 10MB spill to temp files
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum upload size")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.attachmentService.Upload(r.Context(), docType, documentID, header.Filename, contentType, header.Size, file)
	if err != nil {
		h.logger.Error("failed to upload attachment",
			zap.Error(err),
			zap.String("document_id", documentID.String()),
			zap.String("filename", header.Filename))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// List godoc
// @Summary List a document's attachments
// @Tags Attachments
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {array} domain.AttachmentDTO "Attachments"
// @Failure 404 {object} domain.APIError "Document not found"
// @Security BearerAuth
// @Router /documents/{type}/{id}/attachments [get]
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	attachments, err := h.attachmentService.List(r.Context(), docType, documentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if attachments == nil {
		attachments = []domain.AttachmentDTO{}
	}
	respondJSON(w, http.StatusOK, attachments)
}

// Download godoc
// @Summary Download an attachment
// @Tags Attachments
// @Produce application/octet-stream
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {file} file "File content"
// @Failure 404 {object} domain.APIError "Attachment not found"
// @Security BearerAuth
// @Router /attachments/{attachmentId} [get]
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	attachmentID, err := uuid.Parse(chi.URLParam(r, "attachmentId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID")
		return
	}

	result, err := h.attachmentService.Download(r.Context(), attachmentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer result.Reader.Close()

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	if result.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", result.Size))
	}

	if _, err := io.Copy(w, result.Reader); err != nil {
		h.logger.Warn("failed to stream attachment",
			zap.String("attachment_id", attachmentID.String()),
			zap.Error(err))
	}
}

// Delete godoc
// @Summary Delete an attachment
// @Description Removes an attachment while its document is still editable. Attachments of approved documents are read-only.
// @Tags Attachments
// @Param attachmentId path string true "Attachment ID"
// @Success 204 "Deleted"
// @Failure 409 {object} domain.APIError "Attachment is read-only"
// @Security BearerAuth
// @Router /attachments/{attachmentId} [delete]
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	attachmentID, err := uuid.Parse(chi.URLParam(r, "attachmentId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID")
		return
	}

	if err := h.attachmentService.Delete(r.Context(), attachmentID); err != nil {
		h.logger.Error("failed to delete attachment",
			zap.Error(err),
			zap.String("attachment_id", attachmentID.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
