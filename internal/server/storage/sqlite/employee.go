package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/peopledesk/hrms/internal/models"
	"github.com/peopledesk/hrms/internal/server/storage"
)

const employeeColumns = `id, user_id, employee_number, first_name, last_name, date_of_birth,
	gender, phone_number, personal_email, department, position, employment_type,
	date_of_joining, status, city, country, bio, skills, is_active, created_at, updated_at`

// CreateEmployee creates a new employee profile
func (s *Storage) CreateEmployee(ctx context.Context, emp *models.EmployeeProfile) (int64, error) {
	query := `
		INSERT INTO employee_profiles (user_id, employee_number, first_name, last_name,
			date_of_birth, gender, phone_number, personal_email, department, position,
			employment_type, date_of_joining, status, city, country, bio, skills,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		emp.UserID,
		emp.EmployeeNumber,
		emp.FirstName,
		emp.LastName,
		emp.DateOfBirth,
		emp.Gender,
		emp.PhoneNumber,
		emp.PersonalEmail,
		emp.Department,
		emp.Position,
		emp.EmploymentType,
		emp.DateOfJoining,
		emp.Status,
		emp.City,
		emp.Country,
		emp.Bio,
		emp.Skills,
		emp.IsActive,
		emp.CreatedAt,
		emp.UpdatedAt,
	)

	if err != nil {
		// Дубликат табельного номера или второй профиль для аккаунта
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, storage.ErrEmployeeAlreadyExists
		}
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// scanEmployee читает строку employee_profiles в модель
func scanEmployee(scan func(dest ...any) error) (*models.EmployeeProfile, error) {
	emp := &models.EmployeeProfile{}
	var dateOfBirth, dateOfJoining sql.NullTime
	var gender, phone, personalEmail, department, position sql.NullString
	var employmentType, city, country, bio, skills sql.NullString

	err := scan(
		&emp.ID,
		&emp.UserID,
		&emp.EmployeeNumber,
		&emp.FirstName,
		&emp.LastName,
		&dateOfBirth,
		&gender,
		&phone,
		&personalEmail,
		&department,
		&position,
		&employmentType,
		&dateOfJoining,
		&emp.Status,
		&city,
		&country,
		&bio,
		&skills,
		&emp.IsActive,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dateOfBirth.Valid {
		emp.DateOfBirth = &dateOfBirth.Time
	}
	if dateOfJoining.Valid {
		emp.DateOfJoining = &dateOfJoining.Time
	}
	emp.Gender = nullable(gender)
	emp.PhoneNumber = nullable(phone)
	emp.PersonalEmail = nullable(personalEmail)
	emp.Department = nullable(department)
	emp.Position = nullable(position)
	emp.EmploymentType = nullable(employmentType)
	emp.City = nullable(city)
	emp.Country = nullable(country)
	emp.Bio = nullable(bio)
	emp.Skills = nullable(skills)

	return emp, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// GetEmployeeByID retrieves employee profile by ID
func (s *Storage) GetEmployeeByID(ctx context.Context, id int64) (*models.EmployeeProfile, error) {
	query := `SELECT ` + employeeColumns + ` FROM employee_profiles WHERE id = ?`

	emp, err := scanEmployee(s.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return emp, nil
}

// GetEmployeeByUserID retrieves employee profile by account ID
func (s *Storage) GetEmployeeByUserID(ctx context.Context, userID string) (*models.EmployeeProfile, error) {
	query := `SELECT ` + employeeColumns + ` FROM employee_profiles WHERE user_id = ?`

	emp, err := scanEmployee(s.db.QueryRowContext(ctx, query, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee by user: %w", err)
	}

	return emp, nil
}

// ListEmployees returns a page of profiles and the total count matching
// the filter
func (s *Storage) ListEmployees(ctx context.Context, filter storage.EmployeeFilter) ([]*models.EmployeeProfile, int, error) {
	where := []string{"is_active = 1"}
	args := []any{}

	if filter.Search != "" {
		where = append(where, "(first_name LIKE ? OR last_name LIKE ? OR employee_number LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Department != "" {
		where = append(where, "department = ?")
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM employee_profiles` + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	query := `SELECT ` + employeeColumns + ` FROM employee_profiles` + whereClause +
		` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query employees: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var employees []*models.EmployeeProfile
	for rows.Next() {
		emp, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return employees, total, nil
}

// UpdateEmployee persists the given profile fields
func (s *Storage) UpdateEmployee(ctx context.Context, emp *models.EmployeeProfile) error {
	query := `
		UPDATE employee_profiles
		SET first_name = ?, last_name = ?, date_of_birth = ?, gender = ?,
			phone_number = ?, personal_email = ?, department = ?, position = ?,
			employment_type = ?, date_of_joining = ?, status = ?, city = ?,
			country = ?, bio = ?, skills = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		emp.FirstName,
		emp.LastName,
		emp.DateOfBirth,
		emp.Gender,
		emp.PhoneNumber,
		emp.PersonalEmail,
		emp.Department,
		emp.Position,
		emp.EmploymentType,
		emp.DateOfJoining,
		emp.Status,
		emp.City,
		emp.Country,
		emp.Bio,
		emp.Skills,
		time.Now(),
		emp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	return requireRow(result, storage.ErrEmployeeNotFound)
}

// DeactivateEmployee performs a soft delete
func (s *Storage) DeactivateEmployee(ctx context.Context, id int64) error {
	query := `UPDATE employee_profiles SET is_active = 0, status = 'Inactive', updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate employee: %w", err)
	}

	return requireRow(result, storage.ErrEmployeeNotFound)
}
