package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedUser("stu-2", "stu2", model.RoleStudent)
	repos.seedCourse("course-math", "MATH101", "tch-1", springSemester())
	repos.enroll("course-math", "stu-1")
	repos.enroll("course-math", "stu-2")
	return NewExportService(repos.Repository, testLogger()), repos
}

func openXLSX(t *testing.T, buf *bytes.Buffer, err error) *excelize.File {
	t.Helper()
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func assertCell(t *testing.T, f *excelize.File, sheet, axis, want string) {
	t.Helper()
	got, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("读取 %s 失败: %v", axis, err)
	}
	if got != want {
		t.Errorf("%s 期望 %q，实际 %q", axis, want, got)
	}
}

func TestExportService_GradeReport(t *testing.T) {
	svc, repos := setupTestExportService()
	ctx := context.Background()
	grades := NewGradeService(repos.Repository, &recordingNotifier{}, testLogger())
	for _, g := range []struct{ assignment, letter string }{{"hw-1", "A"}, {"hw-2", "B"}} {
		if _, err := grades.SubmitGrade(ctx, &dto.SubmitGradeRequest{
			StudentID: "stu-1", CourseID: "course-math", AssignmentID: g.assignment, LetterGrade: g.letter,
		}, "tch-1", model.RoleTeacher); err != nil {
			t.Fatalf("录入成绩失败: %v", err)
		}
	}

	buf, filename, err := svc.GradeReport(ctx, "stu-1", "stu-1", model.RoleStudent)
	f := openXLSX(t, buf, err)

	if filename != "成绩单_stu1.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	sheet := "成绩单"
	assertCell(t, f, sheet, "A2", "课程代码")
	assertCell(t, f, sheet, "A3", "MATH101")
	assertCell(t, f, sheet, "C3", "4.0, 3.0")
	assertCell(t, f, sheet, "D3", "3.5")
	assertCell(t, f, sheet, "E3", "B+")
	assertCell(t, f, sheet, "A4", "总 GPA")
	assertCell(t, f, sheet, "D4", "3.5")
}

func TestExportService_GradeReport_Errors(t *testing.T) {
	svc, _ := setupTestExportService()
	ctx := context.Background()

	if _, _, err := svc.GradeReport(ctx, "stu-1", "stu-1", model.RoleStudent); !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("无成绩期望 ErrExportNoRecords，实际: %v", err)
	}
	if _, _, err := svc.GradeReport(ctx, "stu-1", "stu-2", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("查看他人期望 ErrNoPermission，实际: %v", err)
	}
	if _, _, err := svc.GradeReport(ctx, "stu-404", "admin-1", model.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("学生不存在期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestExportService_AttendanceSheet(t *testing.T) {
	svc, repos := setupTestExportService()
	ctx := context.Background()
	_ = repos.attendance.Upsert(ctx, []model.AttendanceRecord{
		{StudentID: "stu-1", CourseID: "course-math", Date: attendanceDate("2025-03-03"), Status: model.AttendancePresent},
		{StudentID: "stu-1", CourseID: "course-math", Date: attendanceDate("2025-03-04"), Status: model.AttendanceAbsent},
		{StudentID: "stu-2", CourseID: "course-math", Date: attendanceDate("2025-03-03"), Status: model.AttendancePresent},
	})

	buf, filename, err := svc.AttendanceSheet(ctx, "course-math", "tch-1", model.RoleTeacher)
	f := openXLSX(t, buf, err)

	if filename != "出勤表_MATH101.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	sheet := "出勤表"
	assertCell(t, f, sheet, "B2", "2025-03-03")
	assertCell(t, f, sheet, "C2", "2025-03-04")
	assertCell(t, f, sheet, "D2", "出勤率(%)")

	assertCell(t, f, sheet, "A3", "stu-1")
	assertCell(t, f, sheet, "B3", model.AttendancePresent)
	assertCell(t, f, sheet, "C3", model.AttendanceAbsent)
	assertCell(t, f, sheet, "D3", "50")

	assertCell(t, f, sheet, "A4", "stu-2")
	assertCell(t, f, sheet, "C4", "-")
	assertCell(t, f, sheet, "D4", "100")
}

func TestExportService_AttendanceSheet_Errors(t *testing.T) {
	svc, _ := setupTestExportService()
	ctx := context.Background()

	if _, _, err := svc.AttendanceSheet(ctx, "course-math", "tch-1", model.RoleTeacher); !errors.Is(err, ErrExportNoRecords) {
		t.Errorf("无记录期望 ErrExportNoRecords，实际: %v", err)
	}
	if _, _, err := svc.AttendanceSheet(ctx, "course-math", "stu-1", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生导出期望 ErrNoPermission，实际: %v", err)
	}
}
