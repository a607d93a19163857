package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestAssignmentService() (AssignmentService, *testRepos, *recordingNotifier) {
	repos := newTestRepos()
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedUser("stu-2", "stu2", model.RoleStudent)
	repos.seedCourse("course-math", "MATH101", "tch-1", springSemester())
	repos.enroll("course-math", "stu-1")
	repos.enroll("course-math", "stu-2")

	notifier := &recordingNotifier{}
	grades := NewGradeService(repos.Repository, notifier, testLogger())
	return NewAssignmentService(repos.Repository, grades, notifier, testLogger()), repos, notifier
}

func createAssignment(t *testing.T, svc AssignmentService, dueAt time.Time) *dto.AssignmentResponse {
	t.Helper()
	a, err := svc.Create(context.Background(), "course-math", &dto.CreateAssignmentRequest{
		Title: "第一次作业", DueAt: dueAt.Format(time.RFC3339),
	}, "tch-1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("创建作业应成功: %v", err)
	}
	return a
}

func TestAssignmentService_Create_NotifiesEnrolledStudents(t *testing.T) {
	svc, _, notifier := setupTestAssignmentService()

	a := createAssignment(t, svc, time.Now().Add(72*time.Hour))

	for _, id := range []string{"stu-1", "stu-2"} {
		got := notifier.to(id)
		if len(got) != 1 || got[0].Type != academics.NotifyAssignment {
			t.Errorf("%s 应收到新作业通知，实际: %+v", id, got)
			continue
		}
		if got[0].Payload["assignment_id"] != a.ID {
			t.Errorf("通知应携带 assignment_id，实际: %v", got[0].Payload)
		}
	}
}

func TestAssignmentService_Create_BadDueAt(t *testing.T) {
	svc, _, _ := setupTestAssignmentService()

	_, err := svc.Create(context.Background(), "course-math", &dto.CreateAssignmentRequest{
		Title: "第一次作业", DueAt: "2025-03-01",
	}, "tch-1", model.RoleTeacher)
	if !errors.Is(err, ErrAssignmentDueInvalid) {
		t.Errorf("期望 ErrAssignmentDueInvalid，实际: %v", err)
	}
}

func TestAssignmentService_Submit_AfterDueAllowed(t *testing.T) {
	svc, _, _ := setupTestAssignmentService()
	a := createAssignment(t, svc, time.Now().Add(-24*time.Hour))

	sub, err := svc.Submit(context.Background(), a.ID, &dto.SubmitAssignmentRequest{Content: "迟交的答案"}, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("截止后提交应允许: %v", err)
	}
	if sub.StudentID != "stu-1" || sub.LetterGrade != nil {
		t.Errorf("提交记录不符: %+v", sub)
	}
}

func TestAssignmentService_Submit_NotEnrolled(t *testing.T) {
	svc, repos, _ := setupTestAssignmentService()
	repos.seedUser("stu-9", "stu9", model.RoleStudent)
	a := createAssignment(t, svc, time.Now().Add(time.Hour))

	if _, err := svc.Submit(context.Background(), a.ID, &dto.SubmitAssignmentRequest{Content: "x"}, "stu-9", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("未选课学生期望 ErrNoPermission，实际: %v", err)
	}
}

func TestAssignmentService_GradeSubmission_WritesGradeRecord(t *testing.T) {
	svc, repos, notifier := setupTestAssignmentService()
	ctx := context.Background()
	a := createAssignment(t, svc, time.Now().Add(time.Hour))

	sub, err := svc.Submit(ctx, a.ID, &dto.SubmitAssignmentRequest{Content: "答案"}, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("提交应成功: %v", err)
	}

	graded, err := svc.GradeSubmission(ctx, sub.ID, &dto.GradeSubmissionRequest{LetterGrade: "A-"}, "tch-1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("批改应成功: %v", err)
	}
	if graded.LetterGrade == nil || *graded.LetterGrade != "A-" || graded.GradedAt == "" {
		t.Errorf("批改结果不符: %+v", graded)
	}

	if len(repos.grades.records) != 1 {
		t.Fatalf("应写入 1 条成绩记录，实际=%d", len(repos.grades.records))
	}
	rec := repos.grades.records[0]
	if rec.AssignmentID != a.ID || rec.LetterGrade != "A-" || rec.SemesterID != "sem-2025s" {
		t.Errorf("成绩记录不符: %+v", rec)
	}

	var gradeNotices int
	for _, in := range notifier.to("stu-1") {
		if in.Type == academics.NotifyGrade {
			gradeNotices++
		}
	}
	if gradeNotices != 1 {
		t.Errorf("应发送 1 条成绩通知，实际=%d", gradeNotices)
	}

	if _, err := svc.Submit(ctx, a.ID, &dto.SubmitAssignmentRequest{Content: "改一下"}, "stu-1", model.RoleStudent); !errors.Is(err, ErrSubmissionGraded) {
		t.Errorf("批改后再次提交期望 ErrSubmissionGraded，实际: %v", err)
	}
}

func TestAssignmentService_GradeSubmission_InvalidLetter(t *testing.T) {
	svc, repos, _ := setupTestAssignmentService()
	ctx := context.Background()
	a := createAssignment(t, svc, time.Now().Add(time.Hour))
	sub, _ := svc.Submit(ctx, a.ID, &dto.SubmitAssignmentRequest{Content: "答案"}, "stu-1", model.RoleStudent)

	if _, err := svc.GradeSubmission(ctx, sub.ID, &dto.GradeSubmissionRequest{LetterGrade: "Z"}, "tch-1", model.RoleTeacher); !errors.Is(err, ErrGradeLetterInvalid) {
		t.Errorf("期望 ErrGradeLetterInvalid，实际: %v", err)
	}
	if len(repos.grades.records) != 0 {
		t.Error("非法等级不应写入成绩")
	}
	if stored, _ := repos.submissions.GetByID(ctx, sub.ID); stored.LetterGrade != nil {
		t.Error("非法等级不应标记提交为已批改")
	}
}

func TestAssignmentService_GradeSubmission_NotFound(t *testing.T) {
	svc, _, _ := setupTestAssignmentService()

	if _, err := svc.GradeSubmission(context.Background(), "sub-missing", &dto.GradeSubmissionRequest{LetterGrade: "A"}, "tch-1", model.RoleTeacher); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("期望 ErrSubmissionNotFound，实际: %v", err)
	}
}
