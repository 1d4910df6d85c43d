package api

import "time"

// CreateEmployeeRequest представляет запрос на создание профиля сотрудника
type CreateEmployeeRequest struct {
	UserEmail      string     `json:"user_email"`      // email существующей учетной записи
	EmployeeNumber string     `json:"employee_number"` // уникальный табельный номер
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         *string    `json:"gender,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	PersonalEmail  *string    `json:"personal_email,omitempty"`
	Department     *string    `json:"department,omitempty"`
	Position       *string    `json:"position,omitempty"`
	EmploymentType *string    `json:"employment_type,omitempty"`
	DateOfJoining  *time.Time `json:"date_of_joining,omitempty"`
	City           *string    `json:"city,omitempty"`
	Country        *string    `json:"country,omitempty"`
	Bio            *string    `json:"bio,omitempty"`
	Skills         *string    `json:"skills,omitempty"`
}

// UpdateEmployeeRequest представляет частичное обновление профиля.
// nil-поля не изменяются.
type UpdateEmployeeRequest struct {
	FirstName      *string    `json:"first_name,omitempty"`
	LastName       *string    `json:"last_name,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         *string    `json:"gender,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	PersonalEmail  *string    `json:"personal_email,omitempty"`
	Department     *string    `json:"department,omitempty"`
	Position       *string    `json:"position,omitempty"`
	EmploymentType *string    `json:"employment_type,omitempty"`
	DateOfJoining  *time.Time `json:"date_of_joining,omitempty"`
	Status         *string    `json:"status,omitempty"`
	City           *string    `json:"city,omitempty"`
	Country        *string    `json:"country,omitempty"`
	Bio            *string    `json:"bio,omitempty"`
	Skills         *string    `json:"skills,omitempty"`
}

// EmployeeListResponse представляет страницу списка сотрудников
type EmployeeListResponse struct {
	Items []EmployeeResponse `json:"items"`
	Total int                `json:"total"` // общее количество с учетом фильтров
	Page  int                `json:"page"`
	Size  int                `json:"size"`
	Pages int                `json:"pages"`
}

// EmployeeResponse представляет профиль сотрудника в ответах API
type EmployeeResponse struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	EmployeeNumber string     `json:"employee_number"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         *string    `json:"gender,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	PersonalEmail  *string    `json:"personal_email,omitempty"`
	Department     *string    `json:"department,omitempty"`
	Position       *string    `json:"position,omitempty"`
	EmploymentType *string    `json:"employment_type,omitempty"`
	DateOfJoining  *time.Time `json:"date_of_joining,omitempty"`
	Status         string     `json:"status"`
	City           *string    `json:"city,omitempty"`
	Country        *string    `json:"country,omitempty"`
	Bio            *string    `json:"bio,omitempty"`
	Skills         *string    `json:"skills,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DocumentResponse представляет метаданные загруженного документа
type DocumentResponse struct {
	ID           string    `json:"id"`
	EmployeeID   int64     `json:"employee_id"`
	DocumentType string    `json:"document_type"`
	DocumentName string    `json:"document_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadedBy   string    `json:"uploaded_by"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// DocumentURLResponse представляет временную ссылку на скачивание документа
type DocumentURLResponse struct {
	URL       string `json:"url"`        // presigned URL
	ExpiresIn int64  `json:"expires_in"` // срок действия ссылки в секундах
}
