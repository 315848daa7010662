package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
	"jobboard/internal/tasks"
)

// SeekerHandler 负责处理求职者资料相关的 API 请求。
type SeekerHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
}

// NewSeekerHandler 构造 SeekerHandler。asynqClient 可为 nil（测试或未启用队列时）。
func NewSeekerHandler(db *gorm.DB, asynqClient *asynq.Client) *SeekerHandler {
	return &SeekerHandler{
		db:          db,
		asynqClient: asynqClient,
	}
}

type saveSeekerProfileRequest struct {
	ClerkID             string   `json:"clerkId" binding:"required"`
	FullName            string   `json:"fullName" binding:"required"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	Address             string   `json:"address"`
	City                string   `json:"city"`
	State               string   `json:"state"`
	Zip                 string   `json:"zip"`
	ResumeURL           string   `json:"resumeUrl"`
	ProfilePictureURL   string   `json:"profilePictureUrl"`
	LinkedInProfileURL  string   `json:"linkedInProfileUrl"`
	PortfolioWebsiteURL string   `json:"portfolioWebsiteUrl"`
	AboutMe             string   `json:"aboutMe"`
	WillingToRelocate   bool     `json:"willingToRelocate"`
	ExpectedSalary      *int     `json:"expectedSalary"`
	ExpectedSalaryMax   *int     `json:"expectedSalaryMax"`
	Experience          *int     `json:"experience"`
	StartDate           string   `json:"startDate"`
	JobRoles            []string `json:"jobRoles"`
	Skills              []string `json:"skills"`
	Availability        []string `json:"availability" binding:"omitempty,dive,oneof=Full-Time Part-Time Contract Internship Temporary"`
	JobLocation         []string `json:"jobLocation" binding:"omitempty,dive,oneof=Onsite Remote Hybrid"`
}

// CreateSeekerProfile 创建全新的求职者资料及其四组关联集合。
// users 行若已存在则忽略冲突，不回写角色或邮箱。
func (h *SeekerHandler) CreateSeekerProfile(c *gin.Context) {
	var req saveSeekerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		BadRequest(c, "invalid startDate, expected YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()
	txErr := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := database.User{
			ClerkUserID: req.ClerkID,
			Email:       req.Email,
			Role:        database.RoleJobSeeker,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
			return err
		}

		profile := database.JobSeekerProfile{
			ClerkUserID:            req.ClerkID,
			FullName:               req.FullName,
			Phone:                  req.Phone,
			Email:                  req.Email,
			ProfilePictureURL:      req.ProfilePictureURL,
			Address:                req.Address,
			LocationCity:           req.City,
			LocationState:          req.State,
			ZipCode:                req.Zip,
			LinkedInProfileURL:     req.LinkedInProfileURL,
			PortfolioWebsiteURL:    req.PortfolioWebsiteURL,
			AboutMe:                req.AboutMe,
			ResumeFileURL:          req.ResumeURL,
			WillingToRelocate:      req.WillingToRelocate,
			ExpectedSalaryMin:      req.ExpectedSalary,
			ExpectedSalaryMax:      req.ExpectedSalaryMax,
			TotalYearsOfExperience: req.Experience,
			AvailabilityStartDate:  startDate,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		return insertAssociations(tx, profile.JobSeekerProfileID, req)
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			Conflict(c, "job seeker profile already exists for this user")
			return
		}
		Internal(c, "failed to create job seeker profile")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Job seeker profile created successfully."})
}

// UpdateSeekerProfile 整体覆盖求职者资料：更新全部标量字段后，
// 在同一事务内删除并重建四组关联集合，避免并发读到半清空状态。
func (h *SeekerHandler) UpdateSeekerProfile(c *gin.Context) {
	var req saveSeekerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		BadRequest(c, "invalid startDate, expected YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()

	var existing database.JobSeekerProfile
	err = h.db.WithContext(ctx).
		Where("clerk_user_id = ?", req.ClerkID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "No profile found to update.")
		return
	case err != nil:
		Internal(c, "failed to query job seeker profile")
		return
	}

	oldResumeURL := existing.ResumeFileURL
	seekerID := existing.JobSeekerProfileID

	txErr := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"full_name":                 req.FullName,
			"phone":                     req.Phone,
			"email":                     req.Email,
			"profile_picture_url":       req.ProfilePictureURL,
			"address":                   req.Address,
			"location_city":             req.City,
			"location_state":            req.State,
			"zip_code":                  req.Zip,
			"linked_in_profile_url":     req.LinkedInProfileURL,
			"portfolio_website_url":     req.PortfolioWebsiteURL,
			"about_me":                  req.AboutMe,
			"resume_file_url":           req.ResumeURL,
			"willing_to_relocate":       req.WillingToRelocate,
			"expected_salary_min":       req.ExpectedSalary,
			"expected_salary_max":       req.ExpectedSalaryMax,
			"total_years_of_experience": req.Experience,
			"availability_start_date":   startDate,
		}
		if err := tx.Model(&database.JobSeekerProfile{}).
			Where("job_seeker_profile_id = ?", seekerID).
			Updates(updates).Error; err != nil {
			return err
		}

		if err := clearAssociations(tx, seekerID); err != nil {
			return err
		}
		return insertAssociations(tx, seekerID, req)
	})
	if txErr != nil {
		Internal(c, "failed to update job seeker profile")
		return
	}

	// 旧简历被替换后交给 worker 异步清理；入队失败只记日志，不影响本次更新。
	if oldResumeURL != "" && oldResumeURL != req.ResumeURL {
		h.enqueueStorageCleanup(c, oldResumeURL)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job seeker profile updated successfully."})
}

func clearAssociations(tx *gorm.DB, seekerID string) error {
	for _, model := range []any{
		&database.JobSeekerDesiredJobRole{},
		&database.JobSeekerDesiredJobType{},
		&database.JobSeekerPreferredLocationType{},
		&database.JobSeekerSkill{},
	} {
		if err := tx.Where("job_seeker_profile_id = ?", seekerID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func insertAssociations(tx *gorm.DB, seekerID string, req saveSeekerProfileRequest) error {
	if len(req.JobRoles) > 0 {
		rows := make([]database.JobSeekerDesiredJobRole, 0, len(req.JobRoles))
		for _, roleID := range req.JobRoles {
			rows = append(rows, database.JobSeekerDesiredJobRole{
				JobSeekerProfileID: seekerID,
				DesiredJobRoleID:   roleID,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(req.Availability) > 0 {
		rows := make([]database.JobSeekerDesiredJobType, 0, len(req.Availability))
		for _, jobType := range req.Availability {
			rows = append(rows, database.JobSeekerDesiredJobType{
				JobSeekerProfileID: seekerID,
				JobType:            jobType,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(req.JobLocation) > 0 {
		rows := make([]database.JobSeekerPreferredLocationType, 0, len(req.JobLocation))
		for _, locType := range req.JobLocation {
			rows = append(rows, database.JobSeekerPreferredLocationType{
				JobSeekerProfileID: seekerID,
				JobLocationType:    locType,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	if len(req.Skills) > 0 {
		rows := make([]database.JobSeekerSkill, 0, len(req.Skills))
		for _, skillID := range req.Skills {
			rows = append(rows, database.JobSeekerSkill{
				JobSeekerProfileID: seekerID,
				SkillID:            skillID,
				IsPrimary:          false,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	return nil
}

func (h *SeekerHandler) enqueueStorageCleanup(c *gin.Context, resumeURL string) {
	if h.asynqClient == nil {
		return
	}

	objectKey := objectKeyFromURL(resumeURL)
	if objectKey == "" {
		return
	}

	log := middleware.LoggerFromContext(c)
	task, err := tasks.NewStorageCleanupTask(objectKey, middleware.GetCorrelationID(c))
	if err != nil {
		log.Error("create storage cleanup task failed", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5)); err != nil {
		log.Error("enqueue storage cleanup failed",
			slog.String("object_key", objectKey),
			slog.Any("error", err),
		)
	}
}

// objectKeyFromURL 从文件 URL 中提取本系统的对象键。
// 只认 user-assets/ 前缀，外部链接返回空串。
func objectKeyFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	idx := strings.Index(path, "user-assets/")
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

type seekerProfileResponse struct {
	IsExisting             bool     `json:"isExisting"`
	JobSeekerProfileID     string   `json:"jobSeekerProfileId,omitempty"`
	FullName               string   `json:"fullName,omitempty"`
	Phone                  string   `json:"phone,omitempty"`
	Email                  string   `json:"email,omitempty"`
	ProfilePictureURL      string   `json:"profilePictureUrl,omitempty"`
	Address                string   `json:"address,omitempty"`
	LocationCity           string   `json:"locationCity,omitempty"`
	LocationState          string   `json:"locationState,omitempty"`
	ZipCode                string   `json:"zipCode,omitempty"`
	LinkedInProfileURL     string   `json:"linkedInProfileUrl,omitempty"`
	PortfolioWebsiteURL    string   `json:"portfolioWebsiteUrl,omitempty"`
	AboutMe                string   `json:"aboutMe,omitempty"`
	ResumeFileURL          string   `json:"resumeFileUrl,omitempty"`
	WillingToRelocate      bool     `json:"willingToRelocate,omitempty"`
	ExpectedSalaryMin      *int     `json:"expectedSalaryMin,omitempty"`
	ExpectedSalaryMax      *int     `json:"expectedSalaryMax,omitempty"`
	TotalYearsOfExperience *int     `json:"totalYearsOfExperience,omitempty"`
	AvailabilityStartDate  string   `json:"availabilityStartDate,omitempty"`
	JobRoles               []string `json:"jobRoles"`
	Skills                 []string `json:"skills"`
	DesiredJobTypes        []string `json:"desiredJobTypes"`
	PreferredLocationTypes []string `json:"preferredLocationTypes"`
}

// GetSeekerProfile 返回求职者资料及四组关联集合的 ID/枚举列表。
// 资料不存在时返回 200 + isExisting=false。
func (h *SeekerHandler) GetSeekerProfile(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		BadRequest(c, "`userId` is required")
		return
	}

	ctx := c.Request.Context()
	var profile database.JobSeekerProfile
	err := h.db.WithContext(ctx).
		Where("clerk_user_id = ?", userID).
		First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusOK, seekerProfileResponse{IsExisting: false})
		return
	case err != nil:
		Internal(c, "failed to query job seeker profile")
		return
	}

	seekerID := profile.JobSeekerProfileID

	var roleIDs []string
	if err := h.db.WithContext(ctx).
		Model(&database.JobSeekerDesiredJobRole{}).
		Where("job_seeker_profile_id = ?", seekerID).
		Pluck("desired_job_role_id", &roleIDs).Error; err != nil {
		Internal(c, "failed to query desired roles")
		return
	}

	var skillIDs []string
	if err := h.db.WithContext(ctx).
		Model(&database.JobSeekerSkill{}).
		Where("job_seeker_profile_id = ?", seekerID).
		Pluck("skill_id", &skillIDs).Error; err != nil {
		Internal(c, "failed to query skills")
		return
	}

	var jobTypes []string
	if err := h.db.WithContext(ctx).
		Model(&database.JobSeekerDesiredJobType{}).
		Where("job_seeker_profile_id = ?", seekerID).
		Pluck("job_type", &jobTypes).Error; err != nil {
		Internal(c, "failed to query desired job types")
		return
	}

	var locationTypes []string
	if err := h.db.WithContext(ctx).
		Model(&database.JobSeekerPreferredLocationType{}).
		Where("job_seeker_profile_id = ?", seekerID).
		Pluck("job_location_type", &locationTypes).Error; err != nil {
		Internal(c, "failed to query preferred location types")
		return
	}

	c.JSON(http.StatusOK, seekerProfileResponse{
		IsExisting:             true,
		JobSeekerProfileID:     seekerID,
		FullName:               profile.FullName,
		Phone:                  profile.Phone,
		Email:                  profile.Email,
		ProfilePictureURL:      profile.ProfilePictureURL,
		Address:                profile.Address,
		LocationCity:           profile.LocationCity,
		LocationState:          profile.LocationState,
		ZipCode:                profile.ZipCode,
		LinkedInProfileURL:     profile.LinkedInProfileURL,
		PortfolioWebsiteURL:    profile.PortfolioWebsiteURL,
		AboutMe:                profile.AboutMe,
		ResumeFileURL:          profile.ResumeFileURL,
		WillingToRelocate:      profile.WillingToRelocate,
		ExpectedSalaryMin:      profile.ExpectedSalaryMin,
		ExpectedSalaryMax:      profile.ExpectedSalaryMax,
		TotalYearsOfExperience: profile.TotalYearsOfExperience,
		AvailabilityStartDate:  formatOptionalDate(profile.AvailabilityStartDate),
		JobRoles:               roleIDs,
		Skills:                 skillIDs,
		DesiredJobTypes:        jobTypes,
		PreferredLocationTypes: locationTypes,
	})
}

type seekerListItem struct {
	JobSeekerProfileID     string   `json:"jobSeekerProfileId"`
	FullName               string   `json:"fullName"`
	Email                  string   `json:"email"`
	LocationCity           string   `json:"locationCity"`
	LocationState          string   `json:"locationState"`
	WillingToRelocate      bool     `json:"willingToRelocate"`
	TotalYearsOfExperience *int     `json:"totalYearsOfExperience"`
	Skills                 []string `json:"skills"`
	DesiredRoles           []string `json:"desiredRoles"`
	DesiredJobTypes        []string `json:"desiredJobTypes"`
	PreferredLocationTypes []string `json:"preferredLocationTypes"`
}

// ListSeekers 返回全部求职者及其关联集合（按姓名排序）。
// 每个关联维度各查一次、内存分组，避免逐行查询。
func (h *SeekerHandler) ListSeekers(c *gin.Context) {
	ctx := c.Request.Context()

	var profiles []database.JobSeekerProfile
	if err := h.db.WithContext(ctx).
		Order("full_name ASC").
		Find(&profiles).Error; err != nil {
		Internal(c, "failed to list job seekers")
		return
	}

	if len(profiles) == 0 {
		c.JSON(http.StatusOK, []seekerListItem{})
		return
	}

	seekerIDs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		seekerIDs = append(seekerIDs, p.JobSeekerProfileID)
	}

	skillsBySeeker, err := h.seekerSkillNames(c, seekerIDs)
	if err != nil {
		Internal(c, "failed to query seeker skills")
		return
	}
	rolesBySeeker, err := h.seekerRoleNames(c, seekerIDs)
	if err != nil {
		Internal(c, "failed to query seeker roles")
		return
	}
	typesBySeeker, locTypesBySeeker, err := h.seekerEnumSets(c, seekerIDs)
	if err != nil {
		Internal(c, "failed to query seeker preferences")
		return
	}

	items := make([]seekerListItem, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, seekerListItem{
			JobSeekerProfileID:     p.JobSeekerProfileID,
			FullName:               p.FullName,
			Email:                  p.Email,
			LocationCity:           p.LocationCity,
			LocationState:          p.LocationState,
			WillingToRelocate:      p.WillingToRelocate,
			TotalYearsOfExperience: p.TotalYearsOfExperience,
			Skills:                 orEmpty(skillsBySeeker[p.JobSeekerProfileID]),
			DesiredRoles:           orEmpty(rolesBySeeker[p.JobSeekerProfileID]),
			DesiredJobTypes:        orEmpty(typesBySeeker[p.JobSeekerProfileID]),
			PreferredLocationTypes: orEmpty(locTypesBySeeker[p.JobSeekerProfileID]),
		})
	}

	c.JSON(http.StatusOK, items)
}

type seekerNameRow struct {
	JobSeekerProfileID string
	Name               string
}

func (h *SeekerHandler) seekerSkillNames(c *gin.Context, seekerIDs []string) (map[string][]string, error) {
	var rows []seekerNameRow
	err := h.db.WithContext(c.Request.Context()).
		Table("job_seeker_skills").
		Select("job_seeker_skills.job_seeker_profile_id, skills.skill_name AS name").
		Joins("LEFT JOIN skills ON skills.skill_id = job_seeker_skills.skill_id").
		Where("job_seeker_skills.job_seeker_profile_id IN ?", seekerIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return groupNames(rows), nil
}

func (h *SeekerHandler) seekerRoleNames(c *gin.Context, seekerIDs []string) (map[string][]string, error) {
	var rows []seekerNameRow
	err := h.db.WithContext(c.Request.Context()).
		Table("job_seeker_desired_job_roles").
		Select("job_seeker_desired_job_roles.job_seeker_profile_id, desired_job_roles.role_name AS name").
		Joins("LEFT JOIN desired_job_roles ON desired_job_roles.desired_job_role_id = job_seeker_desired_job_roles.desired_job_role_id").
		Where("job_seeker_desired_job_roles.job_seeker_profile_id IN ?", seekerIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return groupNames(rows), nil
}

func (h *SeekerHandler) seekerEnumSets(c *gin.Context, seekerIDs []string) (map[string][]string, map[string][]string, error) {
	ctx := c.Request.Context()

	var typeRows []database.JobSeekerDesiredJobType
	if err := h.db.WithContext(ctx).
		Where("job_seeker_profile_id IN ?", seekerIDs).
		Find(&typeRows).Error; err != nil {
		return nil, nil, err
	}
	typesBySeeker := make(map[string][]string)
	for _, row := range typeRows {
		typesBySeeker[row.JobSeekerProfileID] = append(typesBySeeker[row.JobSeekerProfileID], row.JobType)
	}

	var locRows []database.JobSeekerPreferredLocationType
	if err := h.db.WithContext(ctx).
		Where("job_seeker_profile_id IN ?", seekerIDs).
		Find(&locRows).Error; err != nil {
		return nil, nil, err
	}
	locTypesBySeeker := make(map[string][]string)
	for _, row := range locRows {
		locTypesBySeeker[row.JobSeekerProfileID] = append(locTypesBySeeker[row.JobSeekerProfileID], row.JobLocationType)
	}

	return typesBySeeker, locTypesBySeeker, nil
}

func groupNames(rows []seekerNameRow) map[string][]string {
	grouped := make(map[string][]string)
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		grouped[row.JobSeekerProfileID] = append(grouped[row.JobSeekerProfileID], row.Name)
	}
	return grouped
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
