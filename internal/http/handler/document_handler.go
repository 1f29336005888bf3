package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/service"
	"go.uber.org/zap"
)

// DocumentHandler handles document CRUD and workflow endpoints. All routes
// carry the document type as a path segment; the same handler serves every
// type.
type DocumentHandler struct {
	documentService *service.DocumentService
	workflowService *service.WorkflowService
	logger          *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(
	documentService *service.DocumentService,
	workflowService *service.WorkflowService,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		workflowService: workflowService,
		logger:          logger,
	}
}

// docTypeFromRequest resolves the {type} path segment
func docTypeFromRequest(r *http.Request) (domain.DocumentType, bool) {
	docType := domain.DocumentType(chi.URLParam(r, "type"))
	return docType, docType.IsValid()
}

// List godoc
// @Summary List documents of a type
// @Description Returns documents visible to the current user, paginated and newest first.
// @Tags Documents
// @Produce json
// @Param type path string true "Document type" Enums(nfa, work_order, cost_contract, revenue_contract, agreement, statutory_document)
// @Param status query string false "Filter by status" Enums(Draft, Submitted, Approved, Rejected)
// @Param search query string false "Case-insensitive title search"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} domain.PaginatedResponse "Documents"
// @Failure 400 {object} domain.APIError "Unknown document type"
// @Security BearerAuth
// @Router /documents/{type} [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	filter := &domain.DocumentListFilter{
		Search: r.URL.Query().Get("search"),
	}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.DocumentStatus(statusParam)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Unknown document status")
			return
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.documentService.List(r.Context(), docType, filter)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err), zap.String("doc_type", string(docType)))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a document
// @Description Creates a new draft document. A reference number is generated unless one is supplied.
// @Tags Documents
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param request body domain.CreateDocumentRequest true "Document fields"
// @Success 201 {object} domain.DocumentDTO "Created document"
// @Failure 400 {object} domain.APIError "Invalid request"
// @Failure 409 {object} domain.APIError "Reference number already in use"
// @Security BearerAuth
// @Router /documents/{type} [post]
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	var req domain.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	doc, err := h.documentService.Create(r.Context(), r, docType, &req)
	if err != nil {
		h.logger.Error("failed to create document", zap.Error(err), zap.String("doc_type", string(docType)))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

// Get godoc
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {object} domain.DocumentDTO "Document"
// @Failure 403 {object} domain.APIError "Not visible to the current user"
// @Failure 404 {object} domain.APIError "Document not found"
// @Security BearerAuth
// @Router /documents/{type}/{id} [get]
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	doc, err := h.documentService.GetByID(r.Context(), docType, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Update godoc
// @Summary Update a document
// @Description Updates an editable document. Submitted and approved documents are immutable.
// @Tags Documents
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param request body domain.UpdateDocumentRequest true "Fields to change"
// @Success 200 {object} domain.DocumentDTO "Updated document"
// @Failure 409 {object} domain.APIError "Document is not editable"
// @Security BearerAuth
// @Router /documents/{type}/{id} [put]
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	var req domain.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	doc, err := h.documentService.Update(r.Context(), r, docType, id, &req)
	if err != nil {
		h.logger.Error("failed to update document", zap.Error(err), zap.String("document_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Delete godoc
// @Summary Delete a draft document
// @Description Deletes a draft along with its attachments. Other statuses cannot be deleted.
// @Tags Documents
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 204 "Deleted"
// @Failure 409 {object} domain.APIError "Document is not a draft"
// @Security BearerAuth
// @Router /documents/{type}/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	if err := h.documentService.Delete(r.Context(), r, docType, id); err != nil {
		h.logger.Error("failed to delete document", zap.Error(err), zap.String("document_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Submit godoc
// @Summary Submit a document for approval
// @Description Moves a draft or rejected document to Submitted. At least one attachment is required.
// @Tags Workflow
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {object} domain.DocumentDTO "Submitted document"
// @Failure 400 {object} domain.APIError "No attachments"
// @Failure 409 {object} domain.APIError "Document is not in a submittable status"
// @Security BearerAuth
// @Router /documents/{type}/{id}/submit [post]
func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	doc, err := h.workflowService.Submit(r.Context(), r, docType, id)
	if err != nil {
		h.logger.Error("failed to submit document", zap.Error(err), zap.String("document_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Approve godoc
// @Summary Approve a submitted document
// @Description Moves a submitted document to Approved and freezes its attachments.
// @Tags Workflow
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param request body domain.ApproveDocumentRequest false "Optional comments"
// @Success 200 {object} domain.DocumentDTO "Approved document"
// @Failure 403 {object} domain.APIError "Caller may not decide on this document"
// @Failure 409 {object} domain.APIError "Document is not submitted"
// @Security BearerAuth
// @Router /documents/{type}/{id}/approve [post]
func (h *DocumentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	// Body is optional for approvals
	var req domain.ApproveDocumentRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	doc, err := h.workflowService.Approve(r.Context(), r, docType, id, &req)
	if err != nil {
		h.logger.Error("failed to approve document", zap.Error(err), zap.String("document_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Reject godoc
// @Summary Reject a submitted document
// @Description Moves a submitted document to Rejected. Comments are required.
// @Tags Workflow
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param request body domain.RejectDocumentRequest true "Rejection comments"
// @Success 200 {object} domain.DocumentDTO "Rejected document"
// @Failure 400 {object} domain.APIError "Missing comments"
// @Failure 409 {object} domain.APIError "Document is not submitted"
// @Security BearerAuth
// @Router /documents/{type}/{id}/reject [post]
func (h *DocumentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	var req domain.RejectDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	doc, err := h.workflowService.Reject(r.Context(), r, docType, id, &req)
	if err != nil {
		h.logger.Error("failed to reject document", zap.Error(err), zap.String("document_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// History godoc
// @Summary Get a document's approval history
// @Description Returns the append-only ledger of workflow actions, oldest first.
// @Tags Workflow
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {array} domain.ApprovalHistoryDTO "History entries"
// @Failure 404 {object} domain.APIError "Document not found"
// @Security BearerAuth
// @Router /documents/{type}/{id}/history [get]
func (h *DocumentHandler) History(w http.ResponseWriter, r *http.Request) {
	docType, ok := docTypeFromRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown document type")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	history, err := h.documentService.GetHistory(r.Context(), docType, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}
