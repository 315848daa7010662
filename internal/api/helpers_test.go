package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.NewReplacer("/", "_", "#", "_").Replace(t.Name()) +
		"?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, RouteDeps{DB: db})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func seedSkill(t *testing.T, db *gorm.DB, name string) database.Skill {
	t.Helper()
	skill := database.Skill{SkillName: name}
	if err := db.Create(&skill).Error; err != nil {
		t.Fatalf("seed skill %q: %v", name, err)
	}
	return skill
}

func seedCategory(t *testing.T, db *gorm.DB, name string) database.Category {
	t.Helper()
	category := database.Category{CategoryName: name}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category %q: %v", name, err)
	}
	return category
}

func seedDesiredRole(t *testing.T, db *gorm.DB, name string) database.DesiredJobRole {
	t.Helper()
	role := database.DesiredJobRole{RoleName: name}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("seed desired role %q: %v", name, err)
	}
	return role
}

func seedCompany(t *testing.T, db *gorm.DB, clerkID, name string) database.CompanyProfile {
	t.Helper()
	user := database.User{ClerkUserID: clerkID, Email: clerkID + "@example.com", Role: database.RoleJobGiver}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %q: %v", clerkID, err)
	}
	company := database.CompanyProfile{ClerkUserID: clerkID, CompanyName: name}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("seed company %q: %v", name, err)
	}
	return company
}

func seedSeeker(t *testing.T, db *gorm.DB, clerkID, fullName string) database.JobSeekerProfile {
	t.Helper()
	user := database.User{ClerkUserID: clerkID, Email: clerkID + "@example.com", Role: database.RoleJobSeeker}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %q: %v", clerkID, err)
	}
	profile := database.JobSeekerProfile{ClerkUserID: clerkID, FullName: fullName}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed seeker %q: %v", fullName, err)
	}
	return profile
}

func seedPosting(t *testing.T, db *gorm.DB, company database.CompanyProfile, title string) database.JobPosting {
	t.Helper()
	posting := database.JobPosting{
		CompanyID:           company.CompanyID,
		PostedByClerkUserID: company.ClerkUserID,
		JobTitle:            title,
		JobType:             database.JobTypeFullTime,
		JobLocationType:     database.LocationRemote,
		ApplicationDeadline: mustParseDate(t, "2026-12-31"),
		Status:              database.PostingStatusOpen,
		Vacancies:           1,
	}
	if err := db.Create(&posting).Error; err != nil {
		t.Fatalf("seed posting %q: %v", title, err)
	}
	return posting
}

func mustParseDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := parseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return parsed
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
