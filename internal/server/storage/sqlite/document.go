package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/storage"
)

// CreateDocument stores document metadata
func (s *Storage) CreateDocument(ctx context.Context, doc *models.EmployeeDocument) error {
	query := `
		INSERT INTO employee_documents (id, employee_id, document_type, document_name,
			storage_key, file_size, mime_type, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.EmployeeID,
		doc.DocumentType,
		doc.DocumentName,
		doc.StorageKey,
		doc.FileSize,
		doc.MimeType,
		doc.UploadedBy,
		doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

const documentColumns = `id, employee_id, document_type, document_name, storage_key, file_size, mime_type, uploaded_by, uploaded_at`

// GetDocumentByID retrieves document metadata by ID
func (s *Storage) GetDocumentByID(ctx context.Context, id string) (*models.EmployeeDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM employee_documents WHERE id = ?`

	doc := &models.EmployeeDocument{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.EmployeeID,
		&doc.DocumentType,
		&doc.DocumentName,
		&doc.StorageKey,
		&doc.FileSize,
		&doc.MimeType,
		&doc.UploadedBy,
		&doc.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListEmployeeDocuments returns all documents of an employee, newest first
func (s *Storage) ListEmployeeDocuments(ctx context.Context, employeeID int64) ([]*models.EmployeeDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM employee_documents
		WHERE employee_id = ? ORDER BY uploaded_at DESC`

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*models.EmployeeDocument
	for rows.Next() {
		doc := &models.EmployeeDocument{}
		if err := rows.Scan(
			&doc.ID,
			&doc.EmployeeID,
			&doc.DocumentType,
			&doc.DocumentName,
			&doc.StorageKey,
			&doc.FileSize,
			&doc.MimeType,
			&doc.UploadedBy,
			&doc.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return docs, nil
}
