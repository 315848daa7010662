package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobboard/internal/storage"
)

// RouteDeps 汇集注册路由所需的全部依赖。
// 测试时可以只提供 DB，把其余依赖留空。
type RouteDeps struct {
	DB            *gorm.DB
	AsynqClient   *asynq.Client
	RedisClient   *redis.Client
	StorageClient *storage.Client
	Logger        *slog.Logger
	Identity      gin.HandlerFunc
	ClamdAddr     string
}

// RegisterRoutes 把全部业务路由挂载到 /api 分组，统一套用身份中间件。
func RegisterRoutes(router *gin.Engine, deps RouteDeps) {
	companies := NewCompanyHandler(deps.DB)
	seekers := NewSeekerHandler(deps.DB, deps.AsynqClient)
	postings := NewPostingHandler(deps.DB)
	applications := NewApplicationHandler(deps.DB)
	catalogs := NewCatalogHandler(deps.DB, deps.RedisClient)

	group := router.Group("/api")
	if deps.Identity != nil {
		group.Use(deps.Identity)
	}

	group.POST("/add-company-profile", companies.SaveCompanyProfile)
	group.GET("/get-company", companies.GetCompany)

	group.POST("/add-jobSeeker", seekers.CreateSeekerProfile)
	group.PUT("/add-jobSeeker", seekers.UpdateSeekerProfile)
	group.GET("/get-seeker-profile", seekers.GetSeekerProfile)
	group.GET("/get-jobSeekers", seekers.ListSeekers)

	group.POST("/add-job-posting", postings.CreatePosting)
	group.DELETE("/delete-job-posting", postings.DeletePosting)
	group.GET("/get-company-job-postings", postings.ListCompanyPostings)
	group.GET("/get-job-postings", postings.ListPostings)

	group.POST("/apply-to-job", applications.Apply)
	group.DELETE("/delete-job-seeker-application", applications.Withdraw)
	group.GET("/get-job-applications", applications.ListForPosting)
	group.GET("/get-jobseeker-applications", applications.ListForSeeker)

	group.GET("/skills", catalogs.ListSkills)
	group.GET("/categories", catalogs.ListCategories)
	group.GET("/desired-job-roles", catalogs.ListDesiredRoles)

	if deps.StorageClient != nil {
		assets := NewAssetHandler(deps.StorageClient, deps.ClamdAddr)
		group.POST("/assets/upload", assets.Upload)
		group.GET("/assets/view", assets.GetAssetURL)
	}
}
