package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a team member account
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Name      string         `gorm:"size:100;not null" json:"name"`
	Team      string         `gorm:"size:50;default:digital" json:"team"`
	Role      string         `gorm:"size:50;default:member" json:"role"` // admin, member
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Brand represents a brand that owns parent projects
type Brand struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Parent project statuses
const (
	ParentStatusActive    = "active"
	ParentStatusCompleted = "completed"
	ParentStatusAborted   = "aborted"
	ParentStatusArchived  = "archived"
)

// Project represents a brand-level parent project
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	BrandID     uint           `gorm:"index;not null" json:"brand_id"`
	Title       string         `gorm:"size:300;not null" json:"title"`
	StartDate   string         `gorm:"size:10" json:"start_date"` // YYYY-MM-DD
	EndDate     string         `gorm:"size:10" json:"end_date"`
	Owner       string         `gorm:"size:100" json:"owner"`
	Status      string         `gorm:"size:20;index;default:active" json:"status"`
	DelayReason string         `gorm:"size:100" json:"delay_reason"`
	DelayRemark string         `gorm:"size:500" json:"delay_remark"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Sub-project statuses
const (
	SubStatusSetup      = "setup"
	SubStatusInProgress = "in_progress"
	SubStatusCompleted  = "completed"
	SubStatusAborted    = "aborted"
	SubStatusArchived   = "archived"
)

// SubProject represents a single assignable unit of work under a parent
// project. The milestone/event/comment/link arrays are stored as JSON text
// columns so one row update commits the whole document atomically.
type SubProject struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	ParentID              uint           `gorm:"index;not null" json:"parent_id"`
	Title                 string         `gorm:"size:300;not null" json:"title"`
	Assignee              string         `gorm:"size:100" json:"assignee"`
	CurrentHandler        string         `gorm:"size:100" json:"current_handler"`
	Status                string         `gorm:"size:20;index;default:setup" json:"status"`
	StartDate             string         `gorm:"size:10" json:"start_date"`
	EndDate               string         `gorm:"size:10;index" json:"end_date"`
	LastHandoffDate       string         `gorm:"size:10" json:"last_handoff_date"`
	CompletedDate         string         `gorm:"size:10" json:"completed_date"`
	Milestones            MilestoneList  `gorm:"type:text" json:"milestones"`
	Events                EventList      `gorm:"type:text" json:"events"`
	Links                 LinkList       `gorm:"type:text" json:"links"`
	Comments              CommentList    `gorm:"type:text" json:"comments"`
	Tags                  StringList     `gorm:"type:text" json:"tags"`
	DelayReason           string         `gorm:"size:100" json:"delay_reason"`
	DelayRemark           string         `gorm:"size:500" json:"delay_remark"`
	FinalDelayDays        int            `gorm:"default:0" json:"final_delay_days"`
	TotalHours            *float64       `json:"total_hours"` // cached, nil until first event write
	IsWaitingForManager   bool           `gorm:"default:false" json:"is_waiting_for_manager"`
	ManagerCheckStartDate string         `gorm:"size:10" json:"manager_check_start_date"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// Notification is an in-app notification record
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Recipient    string    `gorm:"size:100;index;not null" json:"recipient"`
	Type         string    `gorm:"size:50" json:"type"` // handoff, task, reminder
	Message      string    `gorm:"size:500" json:"message"`
	ProjectID    uint      `json:"project_id"`
	SubProjectID uint      `json:"sub_project_id"`
	Read         bool      `gorm:"default:false" json:"read"`
	Sender       string    `gorm:"size:100" json:"sender"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// SystemLog represents a system operation log
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    *uint     `json:"user_id"`
	IP        string    `gorm:"size:50" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	Extra     string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (User) TableName() string         { return "users" }
func (Brand) TableName() string        { return "brands" }
func (Project) TableName() string      { return "projects" }
func (SubProject) TableName() string   { return "sub_projects" }
func (Notification) TableName() string { return "notifications" }
func (SystemLog) TableName() string    { return "system_logs" }

// IsTerminal reports whether a parent status admits no further transition.
func (p *Project) IsTerminal() bool {
	return p.Status != ParentStatusActive
}

// IsClosed reports whether a sub-project has reached a terminal status.
func (sp *SubProject) IsClosed() bool {
	return sp.Status == SubStatusCompleted || sp.Status == SubStatusAborted || sp.Status == SubStatusArchived
}
