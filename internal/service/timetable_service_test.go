package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

const mathICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//CN\r\n" +
	"BEGIN:VEVENT\r\nUID:math-1\r\nDTSTAMP:20250101T000000Z\r\nSUMMARY:高等数学\r\n" +
	"DTSTART;TZID=Asia/Shanghai:20250224T081000\r\nDTEND;TZID=Asia/Shanghai:20250224T094500\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=16\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

func setupTestTimetableService(t *testing.T) (TimetableService, *testRepos) {
	repos := newTestRepos()
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedUser("stu-9", "stu9", model.RoleStudent)
	repos.seedCourse("course-math", "MATH101", "tch-1", springSemester())
	repos.enroll("course-math", "stu-1")
	return NewTimetableService(repos.Repository, shanghai(t), testLogger()), repos
}

func TestTimetableService_CreateEntry(t *testing.T) {
	svc, _ := setupTestTimetableService(t)
	ctx := context.Background()

	entry, err := svc.CreateEntry(ctx, "course-math", &dto.CreateTimetableEntryRequest{
		DayOfWeek: 2, StartTime: "10:00", EndTime: "11:35", Room: "B203", Weeks: []int{3, 1, 3, 2},
	}, "tch-1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("CreateEntry 应成功: %v", err)
	}
	if entry.Source != model.TimetableSourceManual || entry.CourseCode != "MATH101" {
		t.Errorf("条目不符: %+v", entry)
	}
	if len(entry.Weeks) != 3 || entry.Weeks[0] != 1 || entry.Weeks[2] != 3 {
		t.Errorf("周次应去重排序，实际 %v", entry.Weeks)
	}
}

func TestTimetableService_CreateEntry_Validation(t *testing.T) {
	svc, _ := setupTestTimetableService(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		req        dto.CreateTimetableEntryRequest
		callerID   string
		callerRole string
		want       error
	}{
		{
			name:       "下课早于上课",
			req:        dto.CreateTimetableEntryRequest{DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"},
			callerID:   "tch-1",
			callerRole: model.RoleTeacher,
			want:       ErrTimetableTimeRange,
		},
		{
			name:       "时间格式错误",
			req:        dto.CreateTimetableEntryRequest{DayOfWeek: 1, StartTime: "1000", EndTime: "11:00"},
			callerID:   "tch-1",
			callerRole: model.RoleTeacher,
			want:       ErrTimetableTimeRange,
		},
		{
			name:       "周次超出学期",
			req:        dto.CreateTimetableEntryRequest{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Weeks: []int{1, 20}},
			callerID:   "tch-1",
			callerRole: model.RoleTeacher,
			want:       ErrTimetableWeekOutOfRange,
		},
		{
			name:       "学生无权添加",
			req:        dto.CreateTimetableEntryRequest{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
			callerID:   "stu-1",
			callerRole: model.RoleStudent,
			want:       ErrNoPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := svc.CreateEntry(ctx, "course-math", &req, tt.callerID, tt.callerRole); !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestTimetableService_ImportICS_ReplacesOnlyImported(t *testing.T) {
	svc, repos := setupTestTimetableService(t)
	ctx := context.Background()

	if _, err := svc.CreateEntry(ctx, "course-math", &dto.CreateTimetableEntryRequest{
		DayOfWeek: 4, StartTime: "14:00", EndTime: "15:35",
	}, "tch-1", model.RoleTeacher); err != nil {
		t.Fatalf("CreateEntry 应成功: %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := svc.ImportICS(ctx, "course-math", strings.NewReader(mathICS), "tch-1", model.RoleTeacher)
		if err != nil {
			t.Fatalf("第 %d 次导入应成功: %v", i+1, err)
		}
		if resp.ImportedCount != 1 || resp.Events[0].Name != "高等数学" || len(resp.Events[0].Weeks) != 16 {
			t.Errorf("导入结果不符: %+v", resp)
		}
	}

	var manual, imported int
	for _, e := range repos.timetable.entries {
		switch e.Source {
		case model.TimetableSourceManual:
			manual++
		case model.TimetableSourceICS:
			imported++
		}
	}
	if manual != 1 || imported != 1 {
		t.Errorf("重复导入应只替换 ics 条目，实际 manual=%d ics=%d", manual, imported)
	}
}

func TestTimetableService_ImportICS_Errors(t *testing.T) {
	svc, _ := setupTestTimetableService(t)
	ctx := context.Background()

	if _, err := svc.ImportICS(ctx, "course-math", strings.NewReader("garbage"), "tch-1", model.RoleTeacher); !errors.Is(err, ErrTimetableICSParseFailed) {
		t.Errorf("期望 ErrTimetableICSParseFailed，实际: %v", err)
	}

	empty := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//CN\r\nEND:VCALENDAR\r\n"
	if _, err := svc.ImportICS(ctx, "course-math", strings.NewReader(empty), "tch-1", model.RoleTeacher); !errors.Is(err, ErrTimetableICSEmpty) {
		t.Errorf("期望 ErrTimetableICSEmpty，实际: %v", err)
	}
}

func TestTimetableService_ImportICSFromURL(t *testing.T) {
	svc, repos := setupTestTimetableService(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/math.ics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(mathICS))
	}))
	defer srv.Close()

	if _, err := svc.ImportICSFromURL(ctx, "course-math", srv.URL+"/math.ics", "tch-1", model.RoleTeacher); err != nil {
		t.Fatalf("URL 导入应成功: %v", err)
	}
	if len(repos.timetable.entries) != 1 {
		t.Errorf("期望 1 条导入条目，实际=%d", len(repos.timetable.entries))
	}

	if _, err := svc.ImportICSFromURL(ctx, "course-math", srv.URL+"/missing.ics", "tch-1", model.RoleTeacher); !errors.Is(err, ErrTimetableICSFetchFailed) {
		t.Errorf("404 期望 ErrTimetableICSFetchFailed，实际: %v", err)
	}
	if _, err := svc.ImportICSFromURL(ctx, "course-math", srv.URL+"/math.ics", "stu-1", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生导入期望 ErrNoPermission，实际: %v", err)
	}
}

func TestTimetableService_ListByCourse_MembersOnly(t *testing.T) {
	svc, _ := setupTestTimetableService(t)
	ctx := context.Background()
	_, _ = svc.ImportICS(ctx, "course-math", strings.NewReader(mathICS), "tch-1", model.RoleTeacher)

	list, err := svc.ListByCourse(ctx, "course-math", "stu-1", model.RoleStudent)
	if err != nil || len(list) != 1 {
		t.Fatalf("选课学生应能查看课表，实际 %d 条 err=%v", len(list), err)
	}
	if _, err := svc.ListByCourse(ctx, "course-math", "stu-9", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("未选课学生期望 ErrNoPermission，实际: %v", err)
	}
}

func TestTimetableService_DeleteEntry(t *testing.T) {
	svc, repos := setupTestTimetableService(t)
	ctx := context.Background()

	entry, _ := svc.CreateEntry(ctx, "course-math", &dto.CreateTimetableEntryRequest{
		DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00",
	}, "tch-1", model.RoleTeacher)

	if err := svc.DeleteEntry(ctx, entry.ID, "stu-1", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生删除期望 ErrNoPermission，实际: %v", err)
	}
	if err := svc.DeleteEntry(ctx, entry.ID, "tch-1", model.RoleTeacher); err != nil {
		t.Fatalf("任课教师删除应成功: %v", err)
	}
	if len(repos.timetable.entries) != 0 {
		t.Error("删除后不应再有条目")
	}
	if err := svc.DeleteEntry(ctx, entry.ID, "tch-1", model.RoleTeacher); !errors.Is(err, ErrTimetableEntryNotFound) {
		t.Errorf("期望 ErrTimetableEntryNotFound，实际: %v", err)
	}
}

func TestTimetableService_MyTimetableAndExport(t *testing.T) {
	svc, _ := setupTestTimetableService(t)
	ctx := context.Background()
	_, _ = svc.ImportICS(ctx, "course-math", strings.NewReader(mathICS), "tch-1", model.RoleTeacher)

	mine, err := svc.MyTimetable(ctx, "stu-1", model.RoleStudent)
	if err != nil || len(mine) != 1 || mine[0].CourseName != "课程MATH101" {
		t.Fatalf("学生课表不符: %+v err=%v", mine, err)
	}

	out, err := svc.ExportICS(ctx, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("ExportICS 应成功: %v", err)
	}
	for _, want := range []string{"BEGIN:VEVENT", "SUMMARY:课程MATH101", "FREQ=WEEKLY;COUNT=16"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("导出内容应包含 %q", want)
		}
	}

	none, err := svc.MyTimetable(ctx, "stu-9", model.RoleStudent)
	if err != nil || len(none) != 0 {
		t.Errorf("未选课学生课表应为空，实际 %d 条", len(none))
	}
}
