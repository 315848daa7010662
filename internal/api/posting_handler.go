package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/database"
)

// PostingHandler 负责处理职位发布相关的 API 请求。
type PostingHandler struct {
	db *gorm.DB
}

// NewPostingHandler 构造 PostingHandler。
func NewPostingHandler(db *gorm.DB) *PostingHandler {
	return &PostingHandler{db: db}
}

type postingSkillRequest struct {
	SkillID   string `json:"skillId" binding:"required"`
	SkillType string `json:"skillType" binding:"required,oneof=Required Preferred"`
}

type createPostingRequest struct {
	CompanyID               string                `json:"companyId" binding:"required"`
	PostedByClerkUserID     string                `json:"postedByClerkUserId" binding:"required"`
	JobTitle                string                `json:"jobTitle" binding:"required"`
	CategoryID              string                `json:"categoryId"`
	JobCategory             string                `json:"jobCategory"`
	JobType                 string                `json:"jobType" binding:"required,oneof=Full-Time Part-Time Contract Internship Temporary"`
	JobLocationType         string                `json:"jobLocationType" binding:"required,oneof=Onsite Remote Hybrid"`
	JobLocationAddress      string                `json:"jobLocationAddress"`
	JobLocationCity         string                `json:"jobLocationCity"`
	JobLocationState        string                `json:"jobLocationState"`
	ZipCode                 string                `json:"zipCode"`
	JobRole                 string                `json:"jobRole"`
	ApplicationDeadline     string                `json:"applicationDeadline" binding:"required"`
	JobDescription          string                `json:"jobDescription"`
	KeyResponsibilities     string                `json:"keyResponsibilities"`
	RequiredQualifications  string                `json:"requiredQualifications"`
	ExperienceLevelRequired string                `json:"experienceLevelRequired"`
	SalaryMin               *int                  `json:"salaryMin"`
	SalaryMax               *int                  `json:"salaryMax"`
	HowToApply              string                `json:"howToApply"`
	Vacancies               int                   `json:"vacancies"`
	AgeMin                  *int                  `json:"ageMin"`
	AgeMax                  *int                  `json:"ageMax"`
	Languages               datatypes.JSON        `json:"languages"`
	TimingStart             string                `json:"timingStart"`
	TimingEnd               string                `json:"timingEnd"`
	WorkDays                datatypes.JSON        `json:"workDays"`
	Skills                  []postingSkillRequest `json:"skills" binding:"omitempty,dive"`
}

// CreatePosting 在一个事务内写入职位、技能要求与分类关联。
// 任一步失败则整体回滚，不留半成品职位。
func (h *PostingHandler) CreatePosting(c *gin.Context) {
	var req createPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	deadline, err := parseDate(req.ApplicationDeadline)
	if err != nil {
		BadRequest(c, "invalid applicationDeadline, expected YYYY-MM-DD")
		return
	}

	vacancies := req.Vacancies
	if vacancies <= 0 {
		vacancies = 1
	}

	ctx := c.Request.Context()
	var postingID string

	txErr := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posting := database.JobPosting{
			CompanyID:               req.CompanyID,
			PostedByClerkUserID:     req.PostedByClerkUserID,
			JobTitle:                req.JobTitle,
			JobCategory:             req.JobCategory,
			JobType:                 req.JobType,
			JobLocationType:         req.JobLocationType,
			JobLocationAddress:      req.JobLocationAddress,
			JobLocationCity:         req.JobLocationCity,
			JobLocationState:        req.JobLocationState,
			ZipCode:                 req.ZipCode,
			JobRole:                 req.JobRole,
			ApplicationDeadline:     deadline,
			JobDescription:          req.JobDescription,
			KeyResponsibilities:     req.KeyResponsibilities,
			RequiredQualifications:  req.RequiredQualifications,
			ExperienceLevelRequired: req.ExperienceLevelRequired,
			SalaryMin:               req.SalaryMin,
			SalaryMax:               req.SalaryMax,
			HowToApply:              req.HowToApply,
			Status:                  database.PostingStatusOpen,
			Vacancies:               vacancies,
			AgeMin:                  req.AgeMin,
			AgeMax:                  req.AgeMax,
			Languages:               req.Languages,
			TimingStart:             req.TimingStart,
			TimingEnd:               req.TimingEnd,
			WorkDays:                req.WorkDays,
		}
		if err := tx.Create(&posting).Error; err != nil {
			return err
		}
		postingID = posting.JobPostingID

		if len(req.Skills) > 0 {
			rows := make([]database.JobPostingSkill, 0, len(req.Skills))
			for _, skill := range req.Skills {
				rows = append(rows, database.JobPostingSkill{
					JobPostingID: postingID,
					SkillID:      skill.SkillID,
					SkillType:    skill.SkillType,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if req.CategoryID != "" {
			link := database.JobPostingCategory{
				JobPostingID: postingID,
				CategoryID:   req.CategoryID,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		Internal(c, "failed to create job posting")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Job posting created successfully.",
		"jobPostingId": postingID,
	})
}

// DeletePosting 删除职位，技能、分类与投递行随外键级联删除。
// 目标不存在时同样返回成功。
func (h *PostingHandler) DeletePosting(c *gin.Context) {
	postingID := c.Query("jobPostingId")
	if postingID == "" {
		BadRequest(c, "`jobPostingId` query parameter is required.")
		return
	}

	err := h.db.WithContext(c.Request.Context()).
		Where("job_posting_id = ?", postingID).
		Delete(&database.JobPosting{}).Error
	if err != nil {
		Internal(c, "failed to delete job posting")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job posting deleted successfully."})
}

type companyPostingItem struct {
	JobPostingID        string   `json:"jobPostingId"`
	JobTitle            string   `json:"jobTitle"`
	JobType             string   `json:"jobType"`
	JobLocationType     string   `json:"jobLocationType"`
	JobLocationCity     string   `json:"jobLocationCity"`
	JobLocationState    string   `json:"jobLocationState"`
	Status              string   `json:"status"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	SalaryMin           *int     `json:"salaryMin"`
	SalaryMax           *int     `json:"salaryMax"`
	Categories          []string `json:"categories"`
	Skills              []string `json:"skills"`
	ApplicantCount      int64    `json:"applicantCount"`
}

// ListCompanyPostings 返回某公司的全部职位，附带分类名、技能名与投递人数。
// 分类、技能、计数各用一条批量查询跨整个职位集合取回，再按职位归组。
func (h *PostingHandler) ListCompanyPostings(c *gin.Context) {
	companyID := c.Query("companyId")
	if companyID == "" {
		BadRequest(c, "`companyId` query parameter is required.")
		return
	}

	ctx := c.Request.Context()
	var postings []database.JobPosting
	if err := h.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&postings).Error; err != nil {
		Internal(c, "failed to list job postings")
		return
	}

	if len(postings) == 0 {
		c.JSON(http.StatusOK, []companyPostingItem{})
		return
	}

	postingIDs := make([]string, 0, len(postings))
	for _, p := range postings {
		postingIDs = append(postingIDs, p.JobPostingID)
	}

	skillsByPosting, err := h.postingSkillNames(c, postingIDs)
	if err != nil {
		Internal(c, "failed to query posting skills")
		return
	}

	categoriesByPosting, err := h.postingCategoryNames(c, postingIDs)
	if err != nil {
		Internal(c, "failed to query posting categories")
		return
	}

	countsByPosting, err := h.applicantCounts(c, postingIDs)
	if err != nil {
		Internal(c, "failed to query applicant counts")
		return
	}

	items := make([]companyPostingItem, 0, len(postings))
	for _, p := range postings {
		items = append(items, companyPostingItem{
			JobPostingID:        p.JobPostingID,
			JobTitle:            p.JobTitle,
			JobType:             p.JobType,
			JobLocationType:     p.JobLocationType,
			JobLocationCity:     p.JobLocationCity,
			JobLocationState:    p.JobLocationState,
			Status:              p.Status,
			ApplicationDeadline: formatDate(p.ApplicationDeadline),
			SalaryMin:           p.SalaryMin,
			SalaryMax:           p.SalaryMax,
			Categories:          orEmpty(categoriesByPosting[p.JobPostingID]),
			Skills:              orEmpty(skillsByPosting[p.JobPostingID]),
			ApplicantCount:      countsByPosting[p.JobPostingID],
		})
	}

	c.JSON(http.StatusOK, items)
}

type publicPostingItem struct {
	JobPostingID        string   `json:"jobPostingId"`
	CompanyID           string   `json:"companyId"`
	CompanyName         string   `json:"companyName"`
	JobTitle            string   `json:"jobTitle"`
	JobType             string   `json:"jobType"`
	JobLocationType     string   `json:"jobLocationType"`
	JobLocationCity     string   `json:"jobLocationCity"`
	JobLocationState    string   `json:"jobLocationState"`
	JobDescription      string   `json:"jobDescription"`
	Status              string   `json:"status"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	SalaryMin           *int     `json:"salaryMin"`
	SalaryMax           *int     `json:"salaryMax"`
	Skills              []string `json:"skills"`
}

// ListPostings 面向求职端返回全部职位，附带公司名与技能名。
func (h *PostingHandler) ListPostings(c *gin.Context) {
	ctx := c.Request.Context()

	var postings []database.JobPosting
	if err := h.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&postings).Error; err != nil {
		Internal(c, "failed to list job postings")
		return
	}

	if len(postings) == 0 {
		c.JSON(http.StatusOK, []publicPostingItem{})
		return
	}

	postingIDs := make([]string, 0, len(postings))
	companyIDs := make([]string, 0, len(postings))
	for _, p := range postings {
		postingIDs = append(postingIDs, p.JobPostingID)
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

	skillsByPosting, err := h.postingSkillNames(c, postingIDs)
	if err != nil {
		Internal(c, "failed to query posting skills")
		return
	}

	items := make([]publicPostingItem, 0, len(postings))
	for _, p := range postings {
		items = append(items, publicPostingItem{
			JobPostingID:        p.JobPostingID,
			CompanyID:           p.CompanyID,
			CompanyName:         companyNames[p.CompanyID],
			JobTitle:            p.JobTitle,
			JobType:             p.JobType,
			JobLocationType:     p.JobLocationType,
			JobLocationCity:     p.JobLocationCity,
			JobLocationState:    p.JobLocationState,
			JobDescription:      p.JobDescription,
			Status:              p.Status,
			ApplicationDeadline: formatDate(p.ApplicationDeadline),
			SalaryMin:           p.SalaryMin,
			SalaryMax:           p.SalaryMax,
			Skills:              orEmpty(skillsByPosting[p.JobPostingID]),
		})
	}

	c.JSON(http.StatusOK, items)
}

type postingNameRow struct {
	JobPostingID string
	Name         string
}

func (h *PostingHandler) postingSkillNames(c *gin.Context, postingIDs []string) (map[string][]string, error) {
	var rows []postingNameRow
	err := h.db.WithContext(c.Request.Context()).
		Table("job_posting_skills").
		Select("job_posting_skills.job_posting_id, skills.skill_name AS name").
		Joins("LEFT JOIN skills ON skills.skill_id = job_posting_skills.skill_id").
		Where("job_posting_skills.job_posting_id IN ?", postingIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		grouped[row.JobPostingID] = append(grouped[row.JobPostingID], row.Name)
	}
	return grouped, nil
}

func (h *PostingHandler) postingCategoryNames(c *gin.Context, postingIDs []string) (map[string][]string, error) {
	var rows []postingNameRow
	err := h.db.WithContext(c.Request.Context()).
		Table("job_posting_categories").
		Select("job_posting_categories.job_posting_id, categories.category_name AS name").
		Joins("LEFT JOIN categories ON categories.category_id = job_posting_categories.category_id").
		Where("job_posting_categories.job_posting_id IN ?", postingIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]string)
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		grouped[row.JobPostingID] = append(grouped[row.JobPostingID], row.Name)
	}
	return grouped, nil
}

type applicantCountRow struct {
	JobPostingID string
	Count        int64
}

func (h *PostingHandler) applicantCounts(c *gin.Context, postingIDs []string) (map[string]int64, error) {
	var rows []applicantCountRow
	err := h.db.WithContext(c.Request.Context()).
		Model(&database.JobApplication{}).
		Select("job_posting_id, COUNT(*) AS count").
		Where("job_posting_id IN ?", postingIDs).
		Group("job_posting_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.JobPostingID] = row.Count
	}
	return counts, nil
}
