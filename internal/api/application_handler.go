package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/database"
)

// ApplicationHandler 负责处理职位投递相关的 API 请求。
type ApplicationHandler struct {
	db *gorm.DB
}

// NewApplicationHandler 构造 ApplicationHandler。
func NewApplicationHandler(db *gorm.DB) *ApplicationHandler {
	return &ApplicationHandler{db: db}
}

type applyRequest struct {
	JobPostingID    string `json:"jobPostingId" binding:"required"`
	JobSeekerID     string `json:"jobSeekerId" binding:"required"`
	CoverLetterText string `json:"coverLetterText"`
	NotesBySeeker   string `json:"notesBySeeker"`
}

// Apply 创建一条投递记录，并把求职者当前的简历 URL 快照进投递行。
// 同一职位重复投递由唯一索引拦截，映射为 409。
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Job Posting ID and Job Seeker Profile ID are required.")
		return
	}

	ctx := c.Request.Context()

	var profile database.JobSeekerProfile
	err := h.db.WithContext(ctx).
		Where("job_seeker_profile_id = ?", req.JobSeekerID).
		First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Job seeker profile not found.")
		return
	case err != nil:
		Internal(c, "failed to query job seeker profile")
		return
	}

	application := database.JobApplication{
		JobPostingID:                 req.JobPostingID,
		JobSeekerProfileID:           req.JobSeekerID,
		ApplicationDate:              time.Now().UTC(),
		Status:                       database.ApplicationStatusSubmitted,
		CoverLetterText:              req.CoverLetterText,
		SeekerResumeURLAtApplication: profile.ResumeFileURL,
		NotesBySeeker:                req.NotesBySeeker,
	}
	if err := h.db.WithContext(ctx).Create(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, "You have already applied to this job.")
			return
		}
		Internal(c, "failed to submit application")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":          "Application submitted successfully.",
		"jobApplicationId": application.JobApplicationID,
	})
}

// Withdraw 撤回投递：按投递 ID 硬删除，职位本身不受影响。
// 投递不存在时同样返回成功，所有权校验交给身份中间件之上的调用方。
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	applicationID := c.Query("applicationId")
	if applicationID == "" {
		BadRequest(c, "`applicationId` query parameter is required.")
		return
	}

	err := h.db.WithContext(c.Request.Context()).
		Where("job_application_id = ?", applicationID).
		Delete(&database.JobApplication{}).Error
	if err != nil {
		Internal(c, "failed to withdraw application")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn successfully."})
}

type applicationListItem struct {
	JobApplicationID   string `json:"jobApplicationId"`
	JobPostingID       string `json:"jobPostingId"`
	JobSeekerProfileID string `json:"jobSeekerProfileId"`
	ApplicationDate    string `json:"applicationDate"`
	Status             string `json:"status"`
	CoverLetterText    string `json:"coverLetterText"`
	ResumeURL          string `json:"resumeUrl"`

	FullName               string   `json:"fullName"`
	Email                  string   `json:"email"`
	Phone                  string   `json:"phone"`
	LocationCity           string   `json:"locationCity"`
	LocationState          string   `json:"locationState"`
	WillingToRelocate      bool     `json:"willingToRelocate"`
	ExpectedSalaryMin      *int     `json:"expectedSalaryMin"`
	ExpectedSalaryMax      *int     `json:"expectedSalaryMax"`
	TotalYearsOfExperience *int     `json:"totalYearsOfExperience"`
	Skills                 []string `json:"skills"`
	DesiredRoles           []string `json:"desiredRoles"`
	DesiredJobTypes        []string `json:"desiredJobTypes"`
	PreferredLocationTypes []string `json:"preferredLocationTypes"`
}

// ListForPosting 返回某职位的全部投递及投递人的资料摘要。
// 四组关联集合各用一条批量查询取回后按求职者归组。
func (h *ApplicationHandler) ListForPosting(c *gin.Context) {
	postingID := c.Query("jobPostingId")
	if postingID == "" {
		BadRequest(c, "`jobPostingId` query parameter is required.")
		return
	}

	ctx := c.Request.Context()

	var applications []database.JobApplication
	if err := h.db.WithContext(ctx).
		Where("job_posting_id = ?", postingID).
		Order("application_date DESC").
		Find(&applications).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}

	if len(applications) == 0 {
		c.JSON(http.StatusOK, []applicationListItem{})
		return
	}

	seekerIDs := make([]string, 0, len(applications))
	for _, app := range applications {
		seekerIDs = append(seekerIDs, app.JobSeekerProfileID)
	}

	var profiles []database.JobSeekerProfile
	if err := h.db.WithContext(ctx).
		Where("job_seeker_profile_id IN ?", seekerIDs).
		Find(&profiles).Error; err != nil {
		Internal(c, "failed to query applicant profiles")
		return
	}
	profilesByID := make(map[string]database.JobSeekerProfile, len(profiles))
	for _, p := range profiles {
		profilesByID[p.JobSeekerProfileID] = p
	}

	seekers := &SeekerHandler{db: h.db}
	skillsBySeeker, err := seekers.seekerSkillNames(c, seekerIDs)
	if err != nil {
		Internal(c, "failed to query applicant skills")
		return
	}
	rolesBySeeker, err := seekers.seekerRoleNames(c, seekerIDs)
	if err != nil {
		Internal(c, "failed to query applicant roles")
		return
	}
	typesBySeeker, locTypesBySeeker, err := seekers.seekerEnumSets(c, seekerIDs)
	if err != nil {
		Internal(c, "failed to query applicant preferences")
		return
	}

	items := make([]applicationListItem, 0, len(applications))
	for _, app := range applications {
		profile := profilesByID[app.JobSeekerProfileID]
		items = append(items, applicationListItem{
			JobApplicationID:       app.JobApplicationID,
			JobPostingID:           app.JobPostingID,
			JobSeekerProfileID:     app.JobSeekerProfileID,
			ApplicationDate:        app.ApplicationDate.Format(time.RFC3339),
			Status:                 app.Status,
			CoverLetterText:        app.CoverLetterText,
			ResumeURL:              app.SeekerResumeURLAtApplication,
			FullName:               profile.FullName,
			Email:                  profile.Email,
			Phone:                  profile.Phone,
			LocationCity:           profile.LocationCity,
			LocationState:          profile.LocationState,
			WillingToRelocate:      profile.WillingToRelocate,
			ExpectedSalaryMin:      profile.ExpectedSalaryMin,
			ExpectedSalaryMax:      profile.ExpectedSalaryMax,
			TotalYearsOfExperience: profile.TotalYearsOfExperience,
			Skills:                 orEmpty(skillsBySeeker[app.JobSeekerProfileID]),
			DesiredRoles:           orEmpty(rolesBySeeker[app.JobSeekerProfileID]),
			DesiredJobTypes:        orEmpty(typesBySeeker[app.JobSeekerProfileID]),
			PreferredLocationTypes: orEmpty(locTypesBySeeker[app.JobSeekerProfileID]),
		})
	}

	c.JSON(http.StatusOK, items)
}

type seekerApplicationItem struct {
	JobApplicationID string `json:"jobApplicationId"`
	JobPostingID     string `json:"jobPostingId"`
	ApplicationDate  string `json:"applicationDate"`
	Status           string `json:"status"`

	JobTitle            string `json:"jobTitle"`
	JobType             string `json:"jobType"`
	JobLocationType     string `json:"jobLocationType"`
	JobLocationCity     string `json:"jobLocationCity"`
	JobLocationState    string `json:"jobLocationState"`
	ApplicationDeadline string `json:"applicationDeadline"`
	PostingStatus       string `json:"postingStatus"`
	CompanyID           string `json:"companyId"`
	CompanyName         string `json:"companyName"`
}

// ListForSeeker 返回某求职者的全部投递及对应职位与公司的摘要。
func (h *ApplicationHandler) ListForSeeker(c *gin.Context) {
	seekerID := c.Query("jobSeekerId")
	if seekerID == "" {
		BadRequest(c, "`jobSeekerId` query parameter is required.")
		return
	}

	ctx := c.Request.Context()

	var applications []database.JobApplication
	if err := h.db.WithContext(ctx).
		Where("job_seeker_profile_id = ?", seekerID).
		Order("application_date DESC").
		Find(&applications).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}

	if len(applications) == 0 {
		c.JSON(http.StatusOK, []seekerApplicationItem{})
		return
	}

	postingIDs := make([]string, 0, len(applications))
	for _, app := range applications {
		postingIDs = append(postingIDs, app.JobPostingID)
	}

	var postings []database.JobPosting
	if err := h.db.WithContext(ctx).
		Where("job_posting_id IN ?", postingIDs).
		Find(&postings).Error; err != nil {
		Internal(c, "failed to query postings")
		return
	}
	postingsByID := make(map[string]database.JobPosting, len(postings))
	companyIDs := make([]string, 0, len(postings))
	for _, p := range postings {
		postingsByID[p.JobPostingID] = p
		companyIDs = append(companyIDs, p.CompanyID)
	}

	var companies []database.CompanyProfile
	if err := h.db.WithContext(ctx).
		Where("company_id IN ?", companyIDs).
		Find(&companies).Error; err != nil {
		Internal(c, "failed to query companies")
		return
	}
	companyNames := make(map[string]string, len(companies))
	for _, company := range companies {
		companyNames[company.CompanyID] = company.CompanyName
	}

	items := make([]seekerApplicationItem, 0, len(applications))
	for _, app := range applications {
		posting := postingsByID[app.JobPostingID]
		items = append(items, seekerApplicationItem{
			JobApplicationID:    app.JobApplicationID,
			JobPostingID:        app.JobPostingID,
			ApplicationDate:     app.ApplicationDate.Format(time.RFC3339),
			Status:              app.Status,
			JobTitle:            posting.JobTitle,
			JobType:             posting.JobType,
			JobLocationType:     posting.JobLocationType,
			JobLocationCity:     posting.JobLocationCity,
			JobLocationState:    posting.JobLocationState,
			ApplicationDeadline: formatDate(posting.ApplicationDeadline),
			PostingStatus:       posting.Status,
			CompanyID:           posting.CompanyID,
			CompanyName:         companyNames[posting.CompanyID],
		})
	}

	c.JSON(http.StatusOK, items)
}
