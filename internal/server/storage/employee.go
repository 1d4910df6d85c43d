package storage

import (
	"context"

	"github.com/peopledesk/hrms/internal/models"
)

// EmployeeFilter describes pagination and filtering for employee listings
type EmployeeFilter struct {
	Search     string // подстрока в имени, фамилии или табельном номере
	Department string
	Status     string
	Limit      int
	Offset     int
}

// EmployeeStorage defines interface for employee profile persistence
type EmployeeStorage interface {
	// CreateEmployee creates a new employee profile
	// Returns ErrEmployeeAlreadyExists on duplicate employee number
	// or a second profile for the same user
	CreateEmployee(ctx context.Context, emp *models.EmployeeProfile) (int64, error)

	// GetEmployeeByID retrieves employee profile by ID
	// Returns ErrEmployeeNotFound if profile doesn't exist
	GetEmployeeByID(ctx context.Context, id int64) (*models.EmployeeProfile, error)

	// GetEmployeeByUserID retrieves employee profile by account ID
	// Returns ErrEmployeeNotFound if profile doesn't exist
	GetEmployeeByUserID(ctx context.Context, userID string) (*models.EmployeeProfile, error)

	// ListEmployees returns a page of profiles and the total count
	// matching the filter
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]*models.EmployeeProfile, int, error)

	// UpdateEmployee persists the given profile fields
	// Returns ErrEmployeeNotFound if profile doesn't exist
	UpdateEmployee(ctx context.Context, emp *models.EmployeeProfile) error

	// DeactivateEmployee performs a soft delete (is_active = false)
	// Returns ErrEmployeeNotFound if profile doesn't exist
	DeactivateEmployee(ctx context.Context, id int64) error
}

// DocumentStorage defines interface for employee document metadata
type DocumentStorage interface {
	// CreateDocument stores document metadata
	CreateDocument(ctx context.Context, doc *models.EmployeeDocument) error

	// GetDocumentByID retrieves document metadata by ID
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocumentByID(ctx context.Context, id string) (*models.EmployeeDocument, error)

	// ListEmployeeDocuments returns all documents of an employee,
	// newest first
	ListEmployeeDocuments(ctx context.Context, employeeID int64) ([]*models.EmployeeDocument, error)
}
