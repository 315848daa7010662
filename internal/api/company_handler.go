package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobboard/internal/database"
)

// CompanyHandler 负责处理招聘方公司资料相关的 API 请求。
type CompanyHandler struct {
	db *gorm.DB
}

// NewCompanyHandler 构造 CompanyHandler。
func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

type saveCompanyProfileRequest struct {
	ClerkID        string `json:"clerkId" binding:"required"`
	CompanyName    string `json:"companyName" binding:"required"`
	ContactPerson  string `json:"contactPerson"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Website        string `json:"website"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	CompanyLogoURL string `json:"companyLogoUrl"`
	AboutCompany   string `json:"aboutCompany"`
}

type companyProfileResponse struct {
	IsExisting     bool   `json:"isExisting"`
	CompanyID      string `json:"companyId,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	ContactPerson  string `json:"contactPerson,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Website        string `json:"website,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	ZipCode        string `json:"zipCode,omitempty"`
	CompanyLogoURL string `json:"companyLogoUrl,omitempty"`
	AboutCompany   string `json:"aboutCompany,omitempty"`
}

// SaveCompanyProfile 以拥有者为键对公司资料做整体覆盖式 upsert。
// 同一个事务内先确保 users 行存在（冲突忽略），再插入或全字段更新资料行。
func (h *CompanyHandler) SaveCompanyProfile(c *gin.Context) {
	var req saveCompanyProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var companyID string

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := database.User{
			ClerkUserID: req.ClerkID,
			Email:       req.Email,
			Role:        database.RoleJobGiver,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
			return err
		}

		var existing database.CompanyProfile
		err := tx.Where("clerk_user_id = ?", req.ClerkID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile := database.CompanyProfile{
				ClerkUserID:    req.ClerkID,
				CompanyName:    req.CompanyName,
				ContactPerson:  req.ContactPerson,
				Email:          req.Email,
				Phone:          req.Phone,
				Website:        req.Website,
				Address:        req.Address,
				City:           req.City,
				State:          req.State,
				ZipCode:        req.Zip,
				CompanyLogoURL: req.CompanyLogoURL,
				AboutCompany:   req.AboutCompany,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			companyID = profile.CompanyID
			return nil
		case err != nil:
			return err
		}

		updates := map[string]any{
			"company_name":     req.CompanyName,
			"contact_person":   req.ContactPerson,
			"email":            req.Email,
			"phone":            req.Phone,
			"website":          req.Website,
			"address":          req.Address,
			"city":             req.City,
			"state":            req.State,
			"zip_code":         req.Zip,
			"company_logo_url": req.CompanyLogoURL,
			"about_company":    req.AboutCompany,
		}
		if err := tx.Model(&database.CompanyProfile{}).
			Where("company_id = ?", existing.CompanyID).
			Updates(updates).Error; err != nil {
			return err
		}
		companyID = existing.CompanyID
		return nil
	})
	if err != nil {
		Internal(c, "failed to save company profile")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Company profile saved successfully.",
		"companyId": companyID,
	})
}

// GetCompany 按拥有者 ID 查询公司资料。
// 资料不存在时返回 200 + isExisting=false，注册向导据此决定走新建还是编辑。
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	uploaderID := c.Query("uploaderId")
	if uploaderID == "" {
		BadRequest(c, "`uploaderId` query parameter is required.")
		return
	}

	var profile database.CompanyProfile
	err := h.db.WithContext(c.Request.Context()).
		Where("clerk_user_id = ?", uploaderID).
		First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusOK, companyProfileResponse{IsExisting: false})
		return
	case err != nil:
		Internal(c, "failed to query company profile")
		return
	}

	c.JSON(http.StatusOK, companyProfileResponse{
		IsExisting:     true,
		CompanyID:      profile.CompanyID,
		CompanyName:    profile.CompanyName,
		ContactPerson:  profile.ContactPerson,
		Email:          profile.Email,
		Phone:          profile.Phone,
		Website:        profile.Website,
		Address:        profile.Address,
		City:           profile.City,
		State:          profile.State,
		ZipCode:        profile.ZipCode,
		CompanyLogoURL: profile.CompanyLogoURL,
		AboutCompany:   profile.AboutCompany,
	})
}
