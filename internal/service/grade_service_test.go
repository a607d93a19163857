package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestGradeService() (GradeService, *testRepos, *recordingNotifier) {
	repos := newTestRepos()
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	repos.seedUser("tch-2", "tch2", model.RoleTeacher)
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedCourse("course-math", "MATH101", "tch-1", springSemester())
	repos.seedCourse("course-phy", "PHY101", "tch-1", springSemester())
	repos.enroll("course-math", "stu-1")
	repos.enroll("course-phy", "stu-1")

	notifier := &recordingNotifier{}
	return NewGradeService(repos.Repository, notifier, testLogger()), repos, notifier
}

func submit(t *testing.T, svc GradeService, courseID, assignmentID, letter string) *dto.GradeRecordResponse {
	t.Helper()
	resp, err := svc.SubmitGrade(context.Background(), &dto.SubmitGradeRequest{
		StudentID: "stu-1", CourseID: courseID, AssignmentID: assignmentID, LetterGrade: letter,
	}, "tch-1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("SubmitGrade(%s, %s) 应成功: %v", courseID, letter, err)
	}
	return resp
}

func TestGradeService_SubmitGrade_DefaultsSemesterAndNotifies(t *testing.T) {
	svc, _, notifier := setupTestGradeService()

	resp := submit(t, svc, "course-math", "hw-1", "A-")
	if resp.SemesterID != "sem-2025s" {
		t.Errorf("未指定学期时应取课程学期，实际=%s", resp.SemesterID)
	}
	if resp.Point != 3.7 {
		t.Errorf("A- 绩点应为 3.7，实际=%v", resp.Point)
	}

	got := notifier.to("stu-1")
	if len(got) != 1 || got[0].Type != academics.NotifyGrade {
		t.Errorf("应通知学生一次成绩发布，实际: %+v", got)
	}
}

func TestGradeService_SubmitGrade_OverwritesSameKey(t *testing.T) {
	svc, repos, _ := setupTestGradeService()

	first := submit(t, svc, "course-math", "hw-1", "C")
	second := submit(t, svc, "course-math", "hw-1", "B+")

	if first.ID != second.ID {
		t.Errorf("同一键应覆盖原记录，期望 ID=%s，实际=%s", first.ID, second.ID)
	}
	if len(repos.grades.records) != 1 || repos.grades.records[0].LetterGrade != "B+" {
		t.Errorf("覆盖后应只剩一条 B+，实际: %d 条", len(repos.grades.records))
	}
}

func TestGradeService_SubmitGrade_Rejections(t *testing.T) {
	svc, repos, _ := setupTestGradeService()
	ctx := context.Background()
	repos.seedUser("stu-9", "stu9", model.RoleStudent)

	tests := []struct {
		name       string
		req        dto.SubmitGradeRequest
		callerID   string
		callerRole string
		want       error
	}{
		{
			name:       "非法等级",
			req:        dto.SubmitGradeRequest{StudentID: "stu-1", CourseID: "course-math", LetterGrade: "E"},
			callerID:   "tch-1",
			callerRole: model.RoleTeacher,
			want:       ErrGradeLetterInvalid,
		},
		{
			name:       "未选课学生",
			req:        dto.SubmitGradeRequest{StudentID: "stu-9", CourseID: "course-math", LetterGrade: "A"},
			callerID:   "tch-1",
			callerRole: model.RoleTeacher,
			want:       ErrGradeStudentNotEnrolled,
		},
		{
			name:       "非任课教师",
			req:        dto.SubmitGradeRequest{StudentID: "stu-1", CourseID: "course-math", LetterGrade: "A"},
			callerID:   "tch-2",
			callerRole: model.RoleTeacher,
			want:       ErrNoPermission,
		},
		{
			name:       "学生自评",
			req:        dto.SubmitGradeRequest{StudentID: "stu-1", CourseID: "course-math", LetterGrade: "A+"},
			callerID:   "stu-1",
			callerRole: model.RoleStudent,
			want:       ErrNoPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := svc.SubmitGrade(ctx, &req, tt.callerID, tt.callerRole); !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestGradeService_StudentReport(t *testing.T) {
	svc, _, _ := setupTestGradeService()

	submit(t, svc, "course-math", "hw-1", "A")
	submit(t, svc, "course-math", "hw-2", "B")
	submit(t, svc, "course-phy", "", "A")

	report, err := svc.StudentReport(context.Background(), "stu-1", &dto.GradeListRequest{}, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("StudentReport 应成功: %v", err)
	}
	if len(report.Courses) != 2 {
		t.Fatalf("期望 2 门课程，实际=%d", len(report.Courses))
	}

	math101 := report.Courses[0]
	if math101.CourseCode != "MATH101" {
		t.Fatalf("课程应按代码排序，实际首项=%s", math101.CourseCode)
	}
	if math101.Mean != 3.5 || math101.Average != "B+" {
		t.Errorf("MATH101 期望均值 3.5 / B+，实际 %v / %s", math101.Mean, math101.Average)
	}
	if len(math101.RawPoints) != 2 {
		t.Errorf("MATH101 应保留 2 个原始绩点，实际=%v", math101.RawPoints)
	}

	// 总 GPA 取全部原始绩点平均，而非课程均值的平均
	if report.OverallGPA == nil {
		t.Fatal("有成绩时 OverallGPA 不应为空")
	}
	if want := 11.0 / 3.0; math.Abs(*report.OverallGPA-want) > 1e-9 {
		t.Errorf("总 GPA 期望 %.4f，实际 %.4f", want, *report.OverallGPA)
	}
	if report.OverallLetter != "B+" {
		t.Errorf("总等级期望 B+，实际=%s", report.OverallLetter)
	}
}

func TestGradeService_StudentReport_Empty(t *testing.T) {
	svc, _, _ := setupTestGradeService()

	report, err := svc.StudentReport(context.Background(), "stu-1", &dto.GradeListRequest{}, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("StudentReport 应成功: %v", err)
	}
	if report.OverallGPA != nil || len(report.Courses) != 0 {
		t.Errorf("无成绩时应返回空成绩单，实际: %+v", report)
	}
}

func TestGradeService_StudentReport_OtherStudentForbidden(t *testing.T) {
	svc, repos, _ := setupTestGradeService()
	repos.seedUser("stu-2", "stu2", model.RoleStudent)

	if _, err := svc.StudentReport(context.Background(), "stu-1", &dto.GradeListRequest{}, "stu-2", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}
}

func TestGradeService_ConvertScale(t *testing.T) {
	svc, _, _ := setupTestGradeService()

	byLetter, err := svc.ConvertScale(&dto.ConvertScaleRequest{Letter: "B-"})
	if err != nil || byLetter.Point != 2.7 || !byLetter.Known {
		t.Errorf("B- 应换算为 2.7，实际: %+v, err=%v", byLetter, err)
	}

	unknown, _ := svc.ConvertScale(&dto.ConvertScaleRequest{Letter: "E"})
	if unknown.Point != 0 || unknown.Known {
		t.Errorf("未知等级应为 0 且 Known=false，实际: %+v", unknown)
	}

	p := 3.69
	byPoint, _ := svc.ConvertScale(&dto.ConvertScaleRequest{Point: &p})
	if byPoint.Letter != "B+" {
		t.Errorf("3.69 应为 B+（不四舍五入），实际=%s", byPoint.Letter)
	}

	if _, err := svc.ConvertScale(&dto.ConvertScaleRequest{}); !errors.Is(err, ErrScaleInputMissing) {
		t.Errorf("空请求期望 ErrScaleInputMissing，实际: %v", err)
	}
}

func TestGradeService_Scale(t *testing.T) {
	svc, _, _ := setupTestGradeService()

	steps := svc.Scale()
	if len(steps) != 11 || steps[0].Letter != "A+" || steps[len(steps)-1].Letter != "F" {
		t.Errorf("等级表应为 A+ 到 F 共 11 档，实际: %+v", steps)
	}
}
