package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// User model. The gateway owns its own accounts and roles instead of
// re-reading a per-user role document from an external identity provider
// in every view.
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('admin','teacher','student')"` // admin, teacher, student
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`
	Avatar   string `json:"avatar" gorm:"size:500"`
}

// SagaRecord tracks one multi-step workflow execution. The upstream API has
// no transactions, so step completion is journaled here and incomplete runs
// can be resumed or compensated after a crash.
type SagaRecord struct {
	BaseModel
	SagaID    string `json:"saga_id" gorm:"size:64;not null;uniqueIndex"`
	Name      string `json:"name" gorm:"size:100;not null"`
	State     string `json:"state" gorm:"size:50;not null;default:'running';type:enum('running','completed','compensated','failed')"`
	Payload   JSON   `json:"payload" gorm:"type:json"`
	LastError string `json:"last_error" gorm:"type:text"`

	Steps []SagaStepRecord `json:"steps,omitempty" gorm:"foreignKey:SagaRecordID"`
}

// SagaStepRecord is one journaled step of a saga.
type SagaStepRecord struct {
	BaseModel
	SagaRecordID uint   `json:"saga_record_id" gorm:"not null;index"`
	StepIndex    int    `json:"step_index" gorm:"not null"`
	StepName     string `json:"step_name" gorm:"size:100;not null"`
	Status       string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','done','failed','compensated')"`
	Error        string `json:"error" gorm:"type:text"`
}

// PaymentReview records an admin decision on a payment. The upstream wire
// format collapses rejected and pending to the same status value, so the
// explicit outcome lives here.
type PaymentReview struct {
	BaseModel
	PaymentID  uint   `json:"payment_id" gorm:"not null;index"`
	ReviewerID uint   `json:"reviewer_id" gorm:"not null"`
	Decision   string `json:"decision" gorm:"size:50;not null;type:enum('accepted','rejected')"`
	Reason     string `json:"reason" gorm:"size:500"`
	SagaID     string `json:"saga_id" gorm:"size:64"`

	Reviewer User `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID"`
}

// IdempotencyRecord maps a client idempotency key to the first response so
// a retried submission never creates a duplicate payment upstream.
type IdempotencyRecord struct {
	BaseModel
	Key        string `json:"key" gorm:"size:64;not null;uniqueIndex"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	StatusCode int    `json:"status_code" gorm:"not null"`
	Response   JSON   `json:"response" gorm:"type:json"`
}

// Notification model for in-app staff notifications
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`
	Data    JSON       `json:"data" gorm:"type:json"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// ReportArchive tracks exported reports uploaded to S3.
type ReportArchive struct {
	BaseModel
	FileName    string `json:"file_name" gorm:"size:255;not null"`
	S3Key       string `json:"s3_key" gorm:"size:500;not null"`
	RecordCount int    `json:"record_count" gorm:"not null"`
	FileSize    int64  `json:"file_size" gorm:"not null"`
	Status      string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"`
	Error       string `json:"error" gorm:"type:text"`
}
