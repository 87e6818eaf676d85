package models

import (
	"database/sql/driver"
	"strings"
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

// User model. Professors are users with role "professor"; timetable
// entries reference them directly by user id.
type User struct {
	BaseModel
	Username  string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password  string `json:"-" gorm:"size:255;not null"`
	Email     string `json:"email" gorm:"size:255;uniqueIndex"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`
	Role      string `json:"role" gorm:"size:50;not null;default:'student';type:enum('admin','professor','student')"` // admin, professor, student
	Status    string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"`
}

// DisplayName returns "First Last" when set, otherwise the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Year model: an academic level such as L1, L2, M1.
type Year struct {
	BaseModel
	Name      string `json:"name" gorm:"size:50;not null;uniqueIndex"`
	SortOrder int    `json:"sort_order" gorm:"default:1"`

	// Relationships
	Groups []Group `json:"groups,omitempty" gorm:"foreignKey:YearID"`
}

// Group model: a student group within a year (G1, G2, ...).
type Group struct {
	BaseModel
	YearID uint   `json:"year_id" gorm:"not null;uniqueIndex:idx_group_per_year"`
	Name   string `json:"name" gorm:"size:50;not null;uniqueIndex:idx_group_per_year"`

	// Relationships
	Year Year `json:"year,omitempty" gorm:"foreignKey:YearID"`
}

// Subject model
type Subject struct {
	BaseModel
	Name   string `json:"name" gorm:"size:255;not null"`
	Code   string `json:"code" gorm:"size:100;uniqueIndex"`
	YearID uint   `json:"year_id"`

	// Relationships
	Year Year `json:"year,omitempty" gorm:"foreignKey:YearID"`
}

// Room model. Timetable cells store rooms by name so ad-hoc rooms typed
// by admins keep working; this table backs the pickers and availability UI.
type Room struct {
	BaseModel
	Name     string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Capacity int    `json:"capacity"`
	Kind     string `json:"kind" gorm:"size:50;default:'salle';type:enum('salle','amphi','labo')"` // salle, amphi, labo
	Active   bool   `json:"active" gorm:"default:true"`
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

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"`
	Error       string    `json:"error" gorm:"type:text"`
}
