package api

import (
	"net/http"
	"testing"

	"jobboard/internal/database"
)

func TestApplyToJob(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	company := seedCompany(t, db, "giver_1", "Acme Corp")
	posting := seedPosting(t, db, company, "Backend Engineer")
	seeker := seedSeeker(t, db, "seeker_1", "Ada Lovelace")
	if err := db.Model(&database.JobSeekerProfile{}).
		Where("job_seeker_profile_id = ?", seeker.JobSeekerProfileID).
		Update("resume_file_url", "https://cdn.example.com/user-assets/seeker_1/resume/r1.pdf").Error; err != nil {
		t.Fatalf("set resume url: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/apply-to-job", map[string]any{
		"jobPostingId": posting.JobPostingID,
		"jobSeekerId":  seeker.JobSeekerProfileID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var application database.JobApplication
	if err := db.Where("job_posting_id = ?", posting.JobPostingID).First(&application).Error; err != nil {
		t.Fatalf("load application: %v", err)
	}
	if application.Status != database.ApplicationStatusSubmitted {
		t.Fatalf("expected Submitted status got %q", application.Status)
	}
	if application.SeekerResumeURLAtApplication == "" {
		t.Fatalf("expected resume url snapshot on application row")
	}
	if application.ApplicationDate.IsZero() {
		t.Fatalf("expected application date to be set")
	}
}

func TestApplyToJob_MissingIDs(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	w := doJSON(t, router, http.MethodPost, "/api/apply-to-job", map[string]any{
		"jobPostingId": "some-posting",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestApplyToJob_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	company := seedCompany(t, db, "giver_1", "Acme Corp")
	posting := seedPosting(t, db, company, "Backend Engineer")
	seeker := seedSeeker(t, db, "seeker_1", "Ada Lovelace")

	payload := map[string]any{
		"jobPostingId": posting.JobPostingID,
		"jobSeekerId":  seeker.JobSeekerProfileID,
	}
	if w := doJSON(t, router, http.MethodPost, "/api/apply-to-job", payload); w.Code != http.StatusCreated {
		t.Fatalf("first apply: expected 201 got %d", w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/api/apply-to-job", payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["code"] != "CONFLICT" {
		t.Fatalf("expected CONFLICT code got %q", resp["code"])
	}

	if got := countRows(t, db, &database.JobApplication{}, "job_posting_id = ?", posting.JobPostingID); got != 1 {
		t.Fatalf("expected exactly 1 application row got %d", got)
	}
}

// 撤回删除投递行但不碰职位；撤回不存在的投递同样成功。
func TestWithdrawApplication(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	company := seedCompany(t, db, "giver_1", "Acme Corp")
	posting := seedPosting(t, db, company, "Backend Engineer")
	seeker := seedSeeker(t, db, "seeker_1", "Ada Lovelace")

	application := database.JobApplication{
		JobPostingID:       posting.JobPostingID,
		JobSeekerProfileID: seeker.JobSeekerProfileID,
		ApplicationDate:    mustParseDate(t, "2026-08-01"),
		Status:             database.ApplicationStatusSubmitted,
	}
	if err := db.Create(&application).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}

	w := doJSON(t, router, http.MethodDelete,
		"/api/delete-job-seeker-application?applicationId="+application.JobApplicationID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	if got := countRows(t, db, &database.JobApplication{}, "job_application_id = ?", application.JobApplicationID); got != 0 {
		t.Fatalf("expected application deleted, %d rows remain", got)
	}
	if got := countRows(t, db, &database.JobPosting{}, "job_posting_id = ?", posting.JobPostingID); got != 1 {
		t.Fatalf("posting should be untouched by withdrawal")
	}

	w = doJSON(t, router, http.MethodDelete,
		"/api/delete-job-seeker-application?applicationId="+application.JobApplicationID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("withdrawing a missing application should succeed, got %d", w.Code)
	}
}

func TestListApplicationsForPosting(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	company := seedCompany(t, db, "giver_1", "Acme Corp")
	posting := seedPosting(t, db, company, "Backend Engineer")
	skill := seedSkill(t, db, "Go")
	role := seedDesiredRole(t, db, "Backend Engineer")

	seeker := seedSeeker(t, db, "seeker_1", "Ada Lovelace")
	for _, row := range []any{
		&database.JobSeekerSkill{JobSeekerProfileID: seeker.JobSeekerProfileID, SkillID: skill.SkillID},
		&database.JobSeekerDesiredJobRole{JobSeekerProfileID: seeker.JobSeekerProfileID, DesiredJobRoleID: role.DesiredJobRoleID},
		&database.JobSeekerDesiredJobType{JobSeekerProfileID: seeker.JobSeekerProfileID, JobType: database.JobTypeFullTime},
		&database.JobApplication{
			JobPostingID:       posting.JobPostingID,
			JobSeekerProfileID: seeker.JobSeekerProfileID,
			ApplicationDate:    mustParseDate(t, "2026-08-01"),
			Status:             database.ApplicationStatusSubmitted,
		},
	} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed row %T: %v", row, err)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/get-job-applications?jobPostingId="+posting.JobPostingID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var items []applicationListItem
	decodeBody(t, w, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 application got %d", len(items))
	}
	item := items[0]
	if item.FullName != "Ada Lovelace" {
		t.Fatalf("expected applicant profile joined in, got %q", item.FullName)
	}
	if len(item.Skills) != 1 || item.Skills[0] != "Go" {
		t.Fatalf("expected skill names, got %v", item.Skills)
	}
	if len(item.DesiredRoles) != 1 || item.DesiredRoles[0] != "Backend Engineer" {
		t.Fatalf("expected role names, got %v", item.DesiredRoles)
	}
	if len(item.DesiredJobTypes) != 1 || item.DesiredJobTypes[0] != database.JobTypeFullTime {
		t.Fatalf("expected job types, got %v", item.DesiredJobTypes)
	}
	if len(item.PreferredLocationTypes) != 0 {
		t.Fatalf("expected empty location types, got %v", item.PreferredLocationTypes)
	}
}

func TestListApplicationsForSeeker(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	company := seedCompany(t, db, "giver_1", "Acme Corp")
	posting := seedPosting(t, db, company, "Backend Engineer")
	seeker := seedSeeker(t, db, "seeker_1", "Ada Lovelace")

	application := database.JobApplication{
		JobPostingID:       posting.JobPostingID,
		JobSeekerProfileID: seeker.JobSeekerProfileID,
		ApplicationDate:    mustParseDate(t, "2026-08-01"),
		Status:             database.ApplicationStatusSubmitted,
	}
	if err := db.Create(&application).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}

	w := doJSON(t, router, http.MethodGet,
		"/api/get-jobseeker-applications?jobSeekerId="+seeker.JobSeekerProfileID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var items []seekerApplicationItem
	decodeBody(t, w, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 application got %d", len(items))
	}
	if items[0].JobTitle != "Backend Engineer" || items[0].CompanyName != "Acme Corp" {
		t.Fatalf("expected posting and company joined in, got %+v", items[0])
	}
}
