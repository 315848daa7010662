package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogHandler 提供技能、职位分类与期望职位三张只读目录。
// 目录内容由 cmd/admin 预置，读多写少，用 Redis 做短 TTL 缓存。
type CatalogHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewCatalogHandler 构造 CatalogHandler。redisClient 可为 nil（测试时直查数据库）。
func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client) *CatalogHandler {
	return &CatalogHandler{db: db, redis: redisClient}
}

type skillItem struct {
	SkillID   string `json:"skillId"`
	SkillName string `json:"skillName"`
	Category  string `json:"category,omitempty"`
}

// ListSkills 返回全部技能目录。
func (h *CatalogHandler) ListSkills(c *gin.Context) {
	var cached []skillItem
	if h.cacheGet(c, "catalog:skills", &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	var skills []database.Skill
	if err := h.db.WithContext(c.Request.Context()).
		Order("skill_name ASC").
		Find(&skills).Error; err != nil {
		Internal(c, "failed to list skills")
		return
	}

	items := make([]skillItem, 0, len(skills))
	for _, s := range skills {
		items = append(items, skillItem{
			SkillID:   s.SkillID,
			SkillName: s.SkillName,
			Category:  s.Category,
		})
	}

	h.cacheSet(c, "catalog:skills", items)
	c.JSON(http.StatusOK, items)
}

type categoryItem struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// ListCategories 返回全部职位分类目录。
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	var cached []categoryItem
	if h.cacheGet(c, "catalog:categories", &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	var categories []database.Category
	if err := h.db.WithContext(c.Request.Context()).
		Order("category_name ASC").
		Find(&categories).Error; err != nil {
		Internal(c, "failed to list categories")
		return
	}

	items := make([]categoryItem, 0, len(categories))
	for _, cat := range categories {
		items = append(items, categoryItem{
			CategoryID:   cat.CategoryID,
			CategoryName: cat.CategoryName,
		})
	}

	h.cacheSet(c, "catalog:categories", items)
	c.JSON(http.StatusOK, items)
}

type desiredRoleItem struct {
	DesiredJobRoleID string  `json:"desiredJobRoleId"`
	RoleName         string  `json:"roleName"`
	CategoryID       *string `json:"categoryId"`
}

// ListDesiredRoles 返回全部期望职位目录。
func (h *CatalogHandler) ListDesiredRoles(c *gin.Context) {
	var cached []desiredRoleItem
	if h.cacheGet(c, "catalog:desired_roles", &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	var roles []database.DesiredJobRole
	if err := h.db.WithContext(c.Request.Context()).
		Order("role_name ASC").
		Find(&roles).Error; err != nil {
		Internal(c, "failed to list desired job roles")
		return
	}

	items := make([]desiredRoleItem, 0, len(roles))
	for _, role := range roles {
		items = append(items, desiredRoleItem{
			DesiredJobRoleID: role.DesiredJobRoleID,
			RoleName:         role.RoleName,
			CategoryID:       role.CategoryID,
		})
	}

	h.cacheSet(c, "catalog:desired_roles", items)
	c.JSON(http.StatusOK, items)
}

// cacheGet 尝试读缓存。缓存不可用时静默回退到数据库。
func (h *CatalogHandler) cacheGet(c *gin.Context, key string, dest any) bool {
	if h.redis == nil {
		return false
	}

	raw, err := h.redis.Get(c.Request.Context(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			middleware.LoggerFromContext(c).Warn("catalog cache read failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

func (h *CatalogHandler) cacheSet(c *gin.Context, key string, value any) {
	if h.redis == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := h.redis.Set(c.Request.Context(), key, raw, catalogCacheTTL).Err(); err != nil {
		middleware.LoggerFromContext(c).Warn("catalog cache write failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
