package api

import (
	"net/http"
	"testing"

	"jobboard/internal/database"
)

// 覆盖招聘方从建档到撤回投递的完整链路。
func TestGiverLifecycle(t *testing.T) {
	db := newTestDB(t)
	router := newTestRouter(t, db)

	s1 := seedSkill(t, db, "Go")
	s2 := seedSkill(t, db, "SQL")

	w := doJSON(t, router, http.MethodPost, "/api/add-company-profile", map[string]any{
		"clerkId":     "U1",
		"companyName": "Acme",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create company: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var companyResp struct {
		CompanyID string `json:"companyId"`
	}
	decodeBody(t, w, &companyResp)

	w = doJSON(t, router, http.MethodPost, "/api/add-job-posting", map[string]any{
		"companyId":           companyResp.CompanyID,
		"postedByClerkUserId": "U1",
		"jobTitle":            "Engineer",
		"jobType":             "Full-Time",
		"jobLocationType":     "Remote",
		"applicationDeadline": "2025-12-31",
		"skills": []map[string]string{
			{"skillId": s1.SkillID, "skillType": "Required"},
			{"skillId": s2.SkillID, "skillType": "Required"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create posting: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var postingResp struct {
		JobPostingID string `json:"jobPostingId"`
	}
	decodeBody(t, w, &postingResp)

	if got := countRows(t, db, &database.JobPostingSkill{}, "job_posting_id = ?", postingResp.JobPostingID); got != 2 {
		t.Fatalf("expected exactly 2 skill rows got %d", got)
	}

	seeker := seedSeeker(t, db, "K1", "Kay One")

	apply := map[string]any{
		"jobPostingId": postingResp.JobPostingID,
		"jobSeekerId":  seeker.JobSeekerProfileID,
	}
	if w := doJSON(t, router, http.MethodPost, "/api/apply-to-job", apply); w.Code != http.StatusCreated {
		t.Fatalf("apply: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var application database.JobApplication
	if err := db.Where("job_posting_id = ?", postingResp.JobPostingID).First(&application).Error; err != nil {
		t.Fatalf("load application: %v", err)
	}
	if application.Status != database.ApplicationStatusSubmitted {
		t.Fatalf("expected Submitted got %q", application.Status)
	}
	if got := countRows(t, db, &database.JobApplication{}, "job_posting_id = ?", postingResp.JobPostingID); got != 1 {
		t.Fatalf("expected exactly 1 application row got %d", got)
	}

	if w := doJSON(t, router, http.MethodPost, "/api/apply-to-job", apply); w.Code != http.StatusConflict {
		t.Fatalf("second apply: expected 409 got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete,
		"/api/delete-job-seeker-application?applicationId="+application.JobApplicationID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("withdraw: expected 200 got %d", w.Code)
	}

	if got := countRows(t, db, &database.JobApplication{}, "job_posting_id = ?", postingResp.JobPostingID); got != 0 {
		t.Fatalf("expected 0 application rows after withdrawal got %d", got)
	}
	if got := countRows(t, db, &database.JobPosting{}, "job_posting_id = ?", postingResp.JobPostingID); got != 1 {
		t.Fatalf("posting must survive withdrawal")
	}
	if got := countRows(t, db, &database.JobPostingSkill{}, "job_posting_id = ?", postingResp.JobPostingID); got != 2 {
		t.Fatalf("skill rows must survive withdrawal")
	}
}
