package models

import "time"

// EmployeeProfile представляет кадровый профиль сотрудника.
// Связан 1:1 с учетной записью User через UserID.
type EmployeeProfile struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`         // ID учетной записи
	EmployeeNumber string     `json:"employee_number"` // уникальный табельный номер
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         *string    `json:"gender"`
	PhoneNumber    *string    `json:"phone_number"`
	PersonalEmail  *string    `json:"personal_email"`
	Department     *string    `json:"department"`
	Position       *string    `json:"position"`
	EmploymentType *string    `json:"employment_type"` // Full-time, Part-time, Contract
	DateOfJoining  *time.Time `json:"date_of_joining"`
	Status         string     `json:"status"` // Active, Inactive, On Leave
	City           *string    `json:"city"`
	Country        *string    `json:"country"`
	Bio            *string    `json:"bio"`
	Skills         *string    `json:"skills"` // список через запятую
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EmployeeDocument представляет метаданные документа сотрудника.
// Само содержимое хранится в объектном хранилище по StorageKey.
type EmployeeDocument struct {
	ID           string    `json:"id"`            // UUID документа
	EmployeeID   int64     `json:"employee_id"`   // профиль, к которому привязан документ
	DocumentType string    `json:"document_type"` // Resume, ID Proof, Contract и т.д.
	DocumentName string    `json:"document_name"`
	StorageKey   string    `json:"-"` // ключ объекта в S3, наружу не отдается
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadedBy   string    `json:"uploaded_by"` // ID загрузившего пользователя
	UploadedAt   time.Time `json:"uploaded_at"`
}
