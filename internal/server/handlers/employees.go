package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/docstore"
	"github.com/peopledesk/hrms/internal/server/middleware"
	"github.com/peopledesk/hrms/internal/server/storage"
	"github.com/peopledesk/hrms/internal/validation"
	"github.com/peopledesk/hrms/pkg/api"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// Лимит размера загружаемого документа
	maxUploadSize = 10 << 20 // 10 MiB
)

// Statuses профиля, принимаемые API
var validStatuses = map[string]bool{
	"Active":   true,
	"Inactive": true,
	"On Leave": true,
}

// BlobStore хранит содержимое документов. Реализуется docstore.Store,
// в тестах — моком.
type BlobStore interface {
	// Put uploads document content under the given key.
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	// PresignGet returns a temporary download URL for the key and its TTL.
	PresignGet(ctx context.Context, key string) (string, time.Duration, error)
}

// EmployeeHandler обрабатывает запросы к профилям сотрудников и их документам
type EmployeeHandler struct {
	logger    *slog.Logger
	employees storage.EmployeeStorage
	documents storage.DocumentStorage
	users     storage.UserStorage
	blobs     BlobStore
}

// NewEmployeeHandler создает новый handler для профилей сотрудников
func NewEmployeeHandler(
	logger *slog.Logger,
	employees storage.EmployeeStorage,
	documents storage.DocumentStorage,
	users storage.UserStorage,
	blobs BlobStore,
) *EmployeeHandler {
	return &EmployeeHandler{
		logger:    logger,
		employees: employees,
		documents: documents,
		users:     users,
		blobs:     blobs,
	}
}

// List обрабатывает GET /api/employees
// Постраничный список с фильтрами по подстроке, отделу и статусу
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := positiveQueryInt(r, "page", 1)
	if err != nil {
		sendError(h.logger, w, "invalid page parameter", http.StatusBadRequest)
		return
	}
	size, err := positiveQueryInt(r, "size", defaultPageSize)
	if err != nil {
		sendError(h.logger, w, "invalid size parameter", http.StatusBadRequest)
		return
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	filter := storage.EmployeeFilter{
		Search:     r.URL.Query().Get("search"),
		Department: r.URL.Query().Get("department"),
		Status:     r.URL.Query().Get("status"),
		Limit:      size,
		Offset:     (page - 1) * size,
	}

	employees, total, err := h.employees.ListEmployees(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list employees", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]api.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		items = append(items, toEmployeeResponse(emp))
	}

	resp := api.EmployeeListResponse{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: (total + size - 1) / size,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Get обрабатывает GET /api/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := employeeID(r)
	if err != nil {
		sendError(h.logger, w, "invalid employee id", http.StatusBadRequest)
		return
	}

	emp, err := h.employees.GetEmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			sendError(h.logger, w, "employee not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toEmployeeResponse(emp), http.StatusOK)
}

// Me обрабатывает GET /api/employees/me
// Профиль текущего пользователя
func (h *EmployeeHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
		return
	}

	emp, err := h.employees.GetEmployeeByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			sendError(h.logger, w, "employee profile not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toEmployeeResponse(emp), http.StatusOK)
}

// GetByUser обрабатывает GET /api/employees/user/{userID}
// Доступ: администратор или владелец учетной записи
func (h *EmployeeHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
		return
	}

	userID := r.PathValue("userID")
	if !user.IsAdmin && userID != user.ID {
		sendError(h.logger, w, "access denied", http.StatusForbidden)
		return
	}

	emp, err := h.employees.GetEmployeeByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			sendError(h.logger, w, "employee profile not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toEmployeeResponse(emp), http.StatusOK)
}

// Create обрабатывает POST /api/employees
// Только для администраторов (гарантируется маршрутизацией)
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode create request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.EmployeeNumber == "" || req.FirstName == "" || req.LastName == "" {
		sendError(h.logger, w, "employee_number, first_name and last_name are required", http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.UserEmail)
	if err := validation.ValidateEmail(email); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	// Профиль заводится только для существующей учетной записи
	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "no account with this email", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to look up user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	emp := &models.EmployeeProfile{
		UserID:         user.ID,
		EmployeeNumber: req.EmployeeNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		PhoneNumber:    req.PhoneNumber,
		PersonalEmail:  req.PersonalEmail,
		Department:     req.Department,
		Position:       req.Position,
		EmploymentType: req.EmploymentType,
		DateOfJoining:  req.DateOfJoining,
		Status:         "Active",
		City:           req.City,
		Country:        req.Country,
		Bio:            req.Bio,
		Skills:         req.Skills,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	id, err := h.employees.CreateEmployee(ctx, emp)
	if err != nil {
		if errors.Is(err, storage.ErrEmployeeAlreadyExists) {
			sendError(h.logger, w, "employee number or profile already exists", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	emp.ID = id

	h.logger.InfoContext(ctx, "employee profile created",
		slog.Int64("employee_id", id),
		slog.String("employee_number", emp.EmployeeNumber))

	sendJSON(h.logger, w, toEmployeeResponse(emp), http.StatusCreated)
}

// Update обрабатывает PATCH /api/employees/{id}
// Частичное обновление: nil-поля запроса не изменяются.
// Доступ: администратор или владелец профиля; статус меняет только администратор.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	emp, ok := h.authorizedEmployee(w, r)
	if !ok {
		return
	}

	var req api.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Status != nil {
		if !validStatuses[*req.Status] {
			sendError(h.logger, w, "invalid status", http.StatusBadRequest)
			return
		}
		if user, _ := middleware.UserFromContext(ctx); user == nil || !user.IsAdmin {
			sendError(h.logger, w, "only admins can change status", http.StatusForbidden)
			return
		}
	}

	applyEmployeeUpdate(emp, &req)
	emp.UpdatedAt = time.Now()

	if err := h.employees.UpdateEmployee(ctx, emp); err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			sendError(h.logger, w, "employee not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, toEmployeeResponse(emp), http.StatusOK)
}

// Delete обрабатывает DELETE /api/employees/{id}
// Мягкое удаление: профиль деактивируется, история сохраняется
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := employeeID(r)
	if err != nil {
		sendError(h.logger, w, "invalid employee id", http.StatusBadRequest)
		return
	}

	if err := h.employees.DeactivateEmployee(ctx, id); err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			sendError(h.logger, w, "employee not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to deactivate employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "employee profile deactivated", slog.Int64("employee_id", id))

	w.WriteHeader(http.StatusNoContent)
}

// UploadDocument обрабатывает POST /api/employees/{id}/documents
// Multipart upload: поле file плюс опциональный document_type.
// Доступ: администратор или владелец профиля.
func (h *EmployeeHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	emp, ok := h.authorizedEmployee(w, r)
	if !ok {
		return
	}

	user, _ := middleware.UserFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		sendError(h.logger, w, "file too large or malformed multipart body", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendError(h.logger, w, "file field is required", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	docType := r.FormValue("document_type")
	if docType == "" {
		docType = "Other"
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := docstore.RandomKey()
	if err := h.blobs.Put(ctx, key, mimeType, file); err != nil {
		h.logger.ErrorContext(ctx, "failed to store document content", slog.Any("error", err))
		sendError(h.logger, w, "failed to store document", http.StatusInternalServerError)
		return
	}

	doc := &models.EmployeeDocument{
		ID:           uuid.New().String(),
		EmployeeID:   emp.ID,
		DocumentType: docType,
		DocumentName: header.Filename,
		StorageKey:   key,
		FileSize:     header.Size,
		MimeType:     mimeType,
		UploadedBy:   user.ID,
		UploadedAt:   time.Now(),
	}

	if err := h.documents.CreateDocument(ctx, doc); err != nil {
		h.logger.ErrorContext(ctx, "failed to save document metadata", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		slog.Int64("employee_id", emp.ID),
		slog.String("document_id", doc.ID),
		slog.Int64("size", doc.FileSize))

	sendJSON(h.logger, w, toDocumentResponse(doc), http.StatusCreated)
}

// ListDocuments обрабатывает GET /api/employees/{id}/documents
func (h *EmployeeHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	emp, ok := h.authorizedEmployee(w, r)
	if !ok {
		return
	}

	docs, err := h.documents.ListEmployeeDocuments(ctx, emp.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]api.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDocumentResponse(doc))
	}

	sendJSON(h.logger, w, items, http.StatusOK)
}

// DownloadDocument обрабатывает GET /api/employees/{id}/documents/{docID}/download
// Возвращает presigned URL вместо проксирования содержимого
func (h *EmployeeHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	emp, ok := h.authorizedEmployee(w, r)
	if !ok {
		return
	}

	doc, err := h.documents.GetDocumentByID(ctx, r.PathValue("docID"))
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			sendError(h.logger, w, "document not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get document", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Документ обязан принадлежать профилю из пути
	if doc.EmployeeID != emp.ID {
		sendError(h.logger, w, "document not found", http.StatusNotFound)
		return
	}

	url, ttl, err := h.blobs.PresignGet(ctx, doc.StorageKey)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to presign document url", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.DocumentURLResponse{
		URL:       url,
		ExpiresIn: int64(ttl.Seconds()),
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// authorizedEmployee загружает профиль из пути и проверяет право доступа:
// администратор или владелец профиля. При отказе ответ уже отправлен.
func (h *EmployeeHandler) authorizedEmployee(w http.ResponseWriter, r *http.Request) (*models.EmployeeProfile, bool) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
		return nil, false
	}

	id, err := employeeID(r)
	if err != nil {
		sendError(h.logger, w, "invalid employee id", http.StatusBadRequest)
		return nil, false
	}

	emp, err := h.employees.GetEmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrEmployeeNotFound) {
			sendError(h.logger, w, "employee not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to get employee", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	if !user.IsAdmin && emp.UserID != user.ID {
		h.logger.WarnContext(ctx, "employee access denied",
			slog.String("user_id", user.ID),
			slog.Int64("employee_id", emp.ID))
		sendError(h.logger, w, "access denied", http.StatusForbidden)
		return nil, false
	}

	return emp, true
}

// employeeID извлекает числовой ID профиля из пути
func employeeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// positiveQueryInt читает положительный целочисленный query параметр
func positiveQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return v, nil
}

func applyEmployeeUpdate(emp *models.EmployeeProfile, req *api.UpdateEmployeeRequest) {
	if req.FirstName != nil {
		emp.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		emp.LastName = *req.LastName
	}
	if req.DateOfBirth != nil {
		emp.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		emp.Gender = req.Gender
	}
	if req.PhoneNumber != nil {
		emp.PhoneNumber = req.PhoneNumber
	}
	if req.PersonalEmail != nil {
		emp.PersonalEmail = req.PersonalEmail
	}
	if req.Department != nil {
		emp.Department = req.Department
	}
	if req.Position != nil {
		emp.Position = req.Position
	}
	if req.EmploymentType != nil {
		emp.EmploymentType = req.EmploymentType
	}
	if req.DateOfJoining != nil {
		emp.DateOfJoining = req.DateOfJoining
	}
	if req.Status != nil {
		emp.Status = *req.Status
	}
	if req.City != nil {
		emp.City = req.City
	}
	if req.Country != nil {
		emp.Country = req.Country
	}
	if req.Bio != nil {
		emp.Bio = req.Bio
	}
	if req.Skills != nil {
		emp.Skills = req.Skills
	}
}

func toEmployeeResponse(emp *models.EmployeeProfile) api.EmployeeResponse {
	return api.EmployeeResponse{
		ID:             emp.ID,
		UserID:         emp.UserID,
		EmployeeNumber: emp.EmployeeNumber,
		FirstName:      emp.FirstName,
		LastName:       emp.LastName,
		DateOfBirth:    emp.DateOfBirth,
		Gender:         emp.Gender,
		PhoneNumber:    emp.PhoneNumber,
		PersonalEmail:  emp.PersonalEmail,
		Department:     emp.Department,
		Position:       emp.Position,
		EmploymentType: emp.EmploymentType,
		DateOfJoining:  emp.DateOfJoining,
		Status:         emp.Status,
		City:           emp.City,
		Country:        emp.Country,
		Bio:            emp.Bio,
		Skills:         emp.Skills,
		IsActive:       emp.IsActive,
		CreatedAt:      emp.CreatedAt,
		UpdatedAt:      emp.UpdatedAt,
	}
}

func toDocumentResponse(doc *models.EmployeeDocument) api.DocumentResponse {
	return api.DocumentResponse{
		ID:           doc.ID,
		EmployeeID:   doc.EmployeeID,
		DocumentType: doc.DocumentType,
		DocumentName: doc.DocumentName,
		FileSize:     doc.FileSize,
		MimeType:     doc.MimeType,
		UploadedBy:   doc.UploadedBy,
		UploadedAt:   doc.UploadedAt,
	}
}
