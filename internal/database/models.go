package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 用户角色。
const (
	RoleJobSeeker = "JobSeeker"
	RoleJobGiver  = "JobGiver"
	RoleAdmin     = "Admin"
)

// 职位类型与工作地点类型的枚举值。
const (
	JobTypeFullTime  = "Full-Time"
	JobTypePartTime  = "Part-Time"
	JobTypeContract  = "Contract"
	JobTypeIntern    = "Internship"
	JobTypeTemporary = "Temporary"

	LocationOnsite = "Onsite"
	LocationRemote = "Remote"
	LocationHybrid = "Hybrid"
)

// 职位发布状态。
const (
	PostingStatusOpen   = "Open"
	PostingStatusClosed = "Closed"
	PostingStatusFilled = "Filled"
	PostingStatusDraft  = "Draft"
	PostingStatusPaused = "Paused"
)

// 投递状态。
const (
	ApplicationStatusSubmitted    = "Submitted"
	ApplicationStatusViewed       = "Viewed"
	ApplicationStatusUnderReview  = "Under Review"
	ApplicationStatusInterviewing = "Interviewing"
	ApplicationStatusOffered      = "Offered"
	ApplicationStatusHired        = "Hired"
	ApplicationStatusRejected     = "Rejected"
	ApplicationStatusWithdrawn    = "Withdrawn"
)

// 职位技能要求类型。
const (
	SkillTypeRequired  = "Required"
	SkillTypePreferred = "Preferred"
)

// User 表示身份服务下发的稳定账号，主键即外部用户 ID。
// 应用只负责首次写入（冲突忽略），从不删除。
type User struct {
	ClerkUserID string `gorm:"primaryKey;size:255"`
	Email       string `gorm:"uniqueIndex;size:255"`
	Role        string `gorm:"size:32;not null"`
	CreatedAt   time.Time
}

// CompanyProfile 表示招聘方的公司资料，与 User 一对一。
type CompanyProfile struct {
	CompanyID      string `gorm:"type:uuid;primaryKey"`
	ClerkUserID    string `gorm:"size:255;not null;uniqueIndex"`
	User           User   `gorm:"foreignKey:ClerkUserID;references:ClerkUserID;constraint:OnDelete:CASCADE"`
	CompanyName    string `gorm:"size:255;not null"`
	ContactPerson  string `gorm:"size:255"`
	Email          string `gorm:"size:255"`
	Phone          string `gorm:"size:50"`
	Website        string `gorm:"size:255"`
	Address        string `gorm:"type:text"`
	City           string `gorm:"size:100"`
	State          string `gorm:"size:100"`
	ZipCode        string `gorm:"size:20"`
	CompanyLogoURL string `gorm:"type:text"`
	AboutCompany   string `gorm:"type:text"`
	CreatedAt      time.Time
}

func (p *CompanyProfile) BeforeCreate(*gorm.DB) error {
	if p.CompanyID == "" {
		p.CompanyID = uuid.NewString()
	}
	return nil
}

// JobSeekerProfile 表示求职者资料，与 User 一对一。
type JobSeekerProfile struct {
	JobSeekerProfileID     string `gorm:"type:uuid;primaryKey"`
	ClerkUserID            string `gorm:"size:255;not null;uniqueIndex"`
	User                   User   `gorm:"foreignKey:ClerkUserID;references:ClerkUserID;constraint:OnDelete:CASCADE"`
	FullName               string `gorm:"size:255;not null"`
	Phone                  string `gorm:"size:50"`
	Email                  string `gorm:"size:255"`
	ProfilePictureURL      string `gorm:"type:text"`
	Address                string `gorm:"type:text"`
	LocationCity           string `gorm:"size:100"`
	LocationState          string `gorm:"size:100"`
	ZipCode                string `gorm:"size:20"`
	LinkedInProfileURL     string `gorm:"type:text"`
	PortfolioWebsiteURL    string `gorm:"type:text"`
	AboutMe                string `gorm:"type:text"`
	ResumeFileURL          string `gorm:"type:text"`
	WillingToRelocate      bool   `gorm:"default:false"`
	ExpectedSalaryMin      *int
	ExpectedSalaryMax      *int
	TotalYearsOfExperience *int
	AvailabilityStartDate  *time.Time `gorm:"type:date"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (p *JobSeekerProfile) BeforeCreate(*gorm.DB) error {
	if p.JobSeekerProfileID == "" {
		p.JobSeekerProfileID = uuid.NewString()
	}
	return nil
}

// Skill 是只读技能目录，由 cmd/admin 预置。
type Skill struct {
	SkillID   string `gorm:"type:uuid;primaryKey"`
	SkillName string `gorm:"size:100;not null;uniqueIndex"`
	Category  string `gorm:"size:100"`
}

func (s *Skill) BeforeCreate(*gorm.DB) error {
	if s.SkillID == "" {
		s.SkillID = uuid.NewString()
	}
	return nil
}

// Category 是职位分类目录。职位通过 JobPostingCategory 关联到它，
// 旧版的自由文本分类列只保留读取。
type Category struct {
	CategoryID   string `gorm:"type:uuid;primaryKey"`
	CategoryName string `gorm:"size:100;not null;uniqueIndex"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.CategoryID == "" {
		c.CategoryID = uuid.NewString()
	}
	return nil
}

// DesiredJobRole 是期望职位目录，可选归属于某个分类。
type DesiredJobRole struct {
	DesiredJobRoleID string  `gorm:"type:uuid;primaryKey"`
	RoleName         string  `gorm:"size:255;not null;uniqueIndex"`
	CategoryID       *string `gorm:"type:uuid"`
	CreatedAt        time.Time
}

func (r *DesiredJobRole) BeforeCreate(*gorm.DB) error {
	if r.DesiredJobRoleID == "" {
		r.DesiredJobRoleID = uuid.NewString()
	}
	return nil
}

// JobSeekerSkill 求职者↔技能，(profile, skill) 唯一。
type JobSeekerSkill struct {
	ID                 string           `gorm:"type:uuid;primaryKey"`
	JobSeekerProfileID string           `gorm:"type:uuid;not null;uniqueIndex:idx_seeker_skill;index"`
	Profile            JobSeekerProfile `gorm:"foreignKey:JobSeekerProfileID;constraint:OnDelete:CASCADE"`
	SkillID            string           `gorm:"type:uuid;not null;uniqueIndex:idx_seeker_skill;index"`
	Skill              Skill            `gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE"`
	IsPrimary          bool             `gorm:"default:false"`
	YearsOfExperience  *int
	ProficiencyLevel   *string `gorm:"size:32"`
	CreatedAt          time.Time
}

func (s *JobSeekerSkill) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// JobSeekerDesiredJobRole 求职者↔期望职位，(profile, role) 唯一。
type JobSeekerDesiredJobRole struct {
	ID                 string           `gorm:"type:uuid;primaryKey"`
	JobSeekerProfileID string           `gorm:"type:uuid;not null;uniqueIndex:idx_seeker_role;index"`
	Profile            JobSeekerProfile `gorm:"foreignKey:JobSeekerProfileID;constraint:OnDelete:CASCADE"`
	DesiredJobRoleID   string           `gorm:"type:uuid;not null;uniqueIndex:idx_seeker_role;index"`
	Role               DesiredJobRole   `gorm:"foreignKey:DesiredJobRoleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time
}

func (r *JobSeekerDesiredJobRole) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// JobSeekerDesiredJobType 求职者期望的职位类型，枚举值直接入列。
type JobSeekerDesiredJobType struct {
	ID                 string           `gorm:"type:uuid;primaryKey"`
	JobSeekerProfileID string           `gorm:"type:uuid;not null;uniqueIndex:idx_seeker_job_type;index"`
	Profile            JobSeekerProfile `gorm:"foreignKey:JobSeekerProfileID;constraint:OnDelete:CASCADE"`
	JobType            string           `gorm:"size:32;not null;uniqueIndex:idx_seeker_job_type"`
	CreatedAt          time.Time
}

func (t *JobSeekerDesiredJobType) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// JobSeekerPreferredLocationType 求职者偏好的工作地点类型。
type JobSeekerPreferredLocationType struct {
	ID                 string           `gorm:"type:uuid;primaryKey"`
	JobSeekerProfileID string           `gorm:"type:uuid;not null;uniqueIndex:idx_seeker_loc_type;index"`
	Profile            JobSeekerProfile `gorm:"foreignKey:JobSeekerProfileID;constraint:OnDelete:CASCADE"`
	JobLocationType    string           `gorm:"size:32;not null;uniqueIndex:idx_seeker_loc_type"`
	CreatedAt          time.Time
}

func (t *JobSeekerPreferredLocationType) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// JobPosting 表示公司发布的职位。
type JobPosting struct {
	JobPostingID            string         `gorm:"type:uuid;primaryKey"`
	CompanyID               string         `gorm:"type:uuid;not null;index"`
	Company                 CompanyProfile `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	PostedByClerkUserID     string         `gorm:"size:255;not null;index"`
	Author                  User           `gorm:"foreignKey:PostedByClerkUserID;references:ClerkUserID;constraint:OnDelete:CASCADE"`
	JobTitle                string         `gorm:"size:255;not null"`
	JobCategory             string         `gorm:"size:100"` // legacy free-text category, read only
	JobType                 string         `gorm:"size:32;not null;index"`
	JobLocationType         string         `gorm:"size:32;not null;index"`
	JobLocationAddress      string         `gorm:"type:text"`
	JobLocationCity         string         `gorm:"size:100"`
	JobLocationState        string         `gorm:"size:100"`
	ZipCode                 string         `gorm:"size:20"`
	JobRole                 string         `gorm:"type:text"`
	ApplicationDeadline     time.Time      `gorm:"type:date;not null"`
	JobDescription          string         `gorm:"type:text"`
	KeyResponsibilities     string         `gorm:"type:text"`
	RequiredQualifications  string         `gorm:"type:text"`
	ExperienceLevelRequired string         `gorm:"size:50"`
	SalaryMin               *int
	SalaryMax               *int
	HowToApply              string `gorm:"type:text"`
	Status                  string `gorm:"size:32;not null;default:'Open';index"`
	Vacancies               int    `gorm:"default:1"`
	AgeMin                  *int
	AgeMax                  *int
	Languages               datatypes.JSON `gorm:"type:jsonb"`
	TimingStart             string         `gorm:"size:16"`
	TimingEnd               string         `gorm:"size:16"`
	WorkDays                datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (p *JobPosting) BeforeCreate(*gorm.DB) error {
	if p.JobPostingID == "" {
		p.JobPostingID = uuid.NewString()
	}
	return nil
}

// JobPostingSkill 职位↔技能，(posting, skill, type) 唯一。
type JobPostingSkill struct {
	JobPostingSkillID string     `gorm:"type:uuid;primaryKey"`
	JobPostingID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_posting_skill_type;index"`
	Posting           JobPosting `gorm:"foreignKey:JobPostingID;constraint:OnDelete:CASCADE"`
	SkillID           string     `gorm:"type:uuid;not null;uniqueIndex:idx_posting_skill_type;index"`
	Skill             Skill      `gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE"`
	SkillType         string     `gorm:"size:16;not null;uniqueIndex:idx_posting_skill_type"`
	CreatedAt         time.Time
}

func (s *JobPostingSkill) BeforeCreate(*gorm.DB) error {
	if s.JobPostingSkillID == "" {
		s.JobPostingSkillID = uuid.NewString()
	}
	return nil
}

// JobPostingCategory 职位↔分类，(posting, category) 唯一。
type JobPostingCategory struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	JobPostingID string     `gorm:"type:uuid;not null;uniqueIndex:idx_posting_category;index"`
	Posting      JobPosting `gorm:"foreignKey:JobPostingID;constraint:OnDelete:CASCADE"`
	CategoryID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_posting_category;index"`
	Category     Category   `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
}

func (c *JobPostingCategory) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// JobApplication 表示一次投递，(posting, seeker) 唯一：同一职位最多投一次。
type JobApplication struct {
	JobApplicationID             string           `gorm:"type:uuid;primaryKey"`
	JobPostingID                 string           `gorm:"type:uuid;not null;uniqueIndex:idx_posting_seeker;index"`
	Posting                      JobPosting       `gorm:"foreignKey:JobPostingID;constraint:OnDelete:CASCADE"`
	JobSeekerProfileID           string           `gorm:"type:uuid;not null;uniqueIndex:idx_posting_seeker;index"`
	Profile                      JobSeekerProfile `gorm:"foreignKey:JobSeekerProfileID;constraint:OnDelete:CASCADE"`
	ApplicationDate              time.Time        `gorm:"not null"`
	Status                       string           `gorm:"size:32;not null;default:'Submitted';index"`
	CoverLetterText              string           `gorm:"type:text"`
	SeekerResumeURLAtApplication string           `gorm:"type:text"`
	NotesBySeeker                string           `gorm:"type:text"`
	NotesByGiver                 string           `gorm:"type:text"`
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

func (a *JobApplication) BeforeCreate(*gorm.DB) error {
	if a.JobApplicationID == "" {
		a.JobApplicationID = uuid.NewString()
	}
	return nil
}

// AllModels 按迁移顺序列出全部表。
func AllModels() []any {
	return []any{
		&User{},
		&CompanyProfile{},
		&JobSeekerProfile{},
		&Skill{},
		&Category{},
		&DesiredJobRole{},
		&JobSeekerSkill{},
		&JobSeekerDesiredJobRole{},
		&JobSeekerDesiredJobType{},
		&JobSeekerPreferredLocationType{},
		&JobPosting{},
		&JobPostingSkill{},
		&JobPostingCategory{},
		&JobApplication{},
	}
}
