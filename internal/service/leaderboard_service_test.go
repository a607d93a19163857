package service

import (
	"context"
	"errors"
	"testing"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestLeaderboardService() (LeaderboardService, *testRepos, *recordingNotifier) {
	repos := newTestRepos()
	dept := "dept-cs"
	for _, id := range []string{"stu-1", "stu-2", "stu-3", "stu-4"} {
		u := repos.seedUser(id, id, model.RoleStudent)
		u.DepartmentID = &dept
	}
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)

	notifier := &recordingNotifier{}
	settings := NewSystemConfigService(repos.Repository, testAcademicsDefaults, testLogger())
	return NewLeaderboardService(repos.Repository, settings, notifier, testLogger()), repos, notifier
}

func TestLeaderboardService_Publish_AssignsCredits(t *testing.T) {
	svc, repos, notifier := setupTestLeaderboardService()
	repos.users.users["stu-2"].PerformanceCredits = 15

	board, err := svc.Publish(context.Background(), &dto.PublishLeaderboardRequest{
		Month: 3, Year: 2025, DepartmentID: "dept-cs", StudentIDs: []string{"stu-3", "stu-1", "stu-2"},
	}, "admin-1")
	if err != nil {
		t.Fatalf("发布应成功: %v", err)
	}
	if board.Period != "2025-03" || len(board.Entries) != 3 {
		t.Fatalf("排行榜不符: %+v", board)
	}

	want := map[string]struct{ position, credits, balance int }{
		"stu-3": {1, 100, 100},
		"stu-1": {2, 80, 80},
		"stu-2": {3, 60, 75},
	}
	for _, e := range board.Entries {
		w := want[e.StudentID]
		if e.Position != w.position || e.Credits != w.credits {
			t.Errorf("%s 期望第 %d 名 %d 分，实际第 %d 名 %d 分", e.StudentID, w.position, w.credits, e.Position, e.Credits)
		}
		if got := repos.users.users[e.StudentID].PerformanceCredits; got != w.balance {
			t.Errorf("%s 积分余额期望 %d，实际 %d", e.StudentID, w.balance, got)
		}
	}

	// 上榜者收到 success，未上榜的同院系学生收到 info
	if got := notifier.to("stu-3"); len(got) != 1 || got[0].Severity != academics.SeveritySuccess {
		t.Errorf("上榜学生应收到 success 通知，实际: %+v", got)
	}
	if got := notifier.to("stu-4"); len(got) != 1 || got[0].Severity != academics.SeverityInfo {
		t.Errorf("未上榜学生应收到 info 通知，实际: %+v", got)
	}
	if len(notifier.intents) != 4 {
		t.Errorf("期望共 4 条通知，实际=%d", len(notifier.intents))
	}
}

func TestLeaderboardService_Publish_DuplicatePeriodLeavesCreditsUnchanged(t *testing.T) {
	svc, repos, notifier := setupTestLeaderboardService()
	ctx := context.Background()
	req := &dto.PublishLeaderboardRequest{Month: 4, Year: 2025, StudentIDs: []string{"stu-1"}}

	if _, err := svc.Publish(ctx, req, "admin-1"); err != nil {
		t.Fatalf("首次发布应成功: %v", err)
	}
	sent := len(notifier.intents)

	_, err := svc.Publish(ctx, &dto.PublishLeaderboardRequest{Month: 4, Year: 2025, StudentIDs: []string{"stu-2", "stu-1"}}, "admin-1")
	if !errors.Is(err, ErrLeaderboardExists) {
		t.Fatalf("重复周期期望 ErrLeaderboardExists，实际: %v", err)
	}
	if got := repos.users.users["stu-1"].PerformanceCredits; got != 100 {
		t.Errorf("重复发布不应再次加分，stu-1 积分=%d", got)
	}
	if got := repos.users.users["stu-2"].PerformanceCredits; got != 0 {
		t.Errorf("重复发布不应加分，stu-2 积分=%d", got)
	}
	if len(notifier.intents) != sent {
		t.Error("重复发布不应发送通知")
	}
}

func TestLeaderboardService_Publish_Validation(t *testing.T) {
	svc, repos, _ := setupTestLeaderboardService()
	ctx := context.Background()
	for _, id := range []string{"stu-5", "stu-6"} {
		repos.seedUser(id, id, model.RoleStudent)
	}

	tests := []struct {
		name string
		req  dto.PublishLeaderboardRequest
		want error
	}{
		{
			name: "超过上限",
			req:  dto.PublishLeaderboardRequest{Month: 5, Year: 2025, StudentIDs: []string{"stu-1", "stu-2", "stu-3", "stu-4", "stu-5", "stu-6"}},
			want: ErrLeaderboardTooMany,
		},
		{
			name: "学生重复",
			req:  dto.PublishLeaderboardRequest{Month: 5, Year: 2025, StudentIDs: []string{"stu-1", "stu-1"}},
			want: ErrLeaderboardDuplicate,
		},
		{
			name: "非学生",
			req:  dto.PublishLeaderboardRequest{Month: 5, Year: 2025, StudentIDs: []string{"stu-1", "tch-1"}},
			want: ErrLeaderboardStudentAbsent,
		},
		{
			name: "学生不存在",
			req:  dto.PublishLeaderboardRequest{Month: 5, Year: 2025, StudentIDs: []string{"stu-404"}},
			want: ErrLeaderboardStudentAbsent,
		},
		{
			name: "院系不存在",
			req:  dto.PublishLeaderboardRequest{Month: 5, Year: 2025, DepartmentID: "dept-x", StudentIDs: []string{"stu-1"}},
			want: ErrDepartmentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := svc.Publish(ctx, &req, "admin-1"); !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}

	if len(repos.leaderboards.boards) != 0 {
		t.Error("校验失败不应写入排行榜")
	}
}

func TestLeaderboardService_Publish_SizeFollowsSettings(t *testing.T) {
	svc, repos, _ := setupTestLeaderboardService()
	ctx := context.Background()
	repos.seedUser("stu-5", "stu-5", model.RoleStudent)
	repos.seedUser("stu-6", "stu-6", model.RoleStudent)

	repos.systemConfig.cfg = &model.SystemConfig{LeaderboardSize: 6, AttendanceWarningThreshold: 75}

	_, err := svc.Publish(ctx, &dto.PublishLeaderboardRequest{
		Month: 6, Year: 2025, StudentIDs: []string{"stu-1", "stu-2", "stu-3", "stu-4", "stu-5", "stu-6"},
	}, "admin-1")
	if err != nil {
		t.Fatalf("上限调整为 6 后应允许 6 人上榜: %v", err)
	}
	// 第 6 名 0 分，不产生增量
	if got := repos.users.users["stu-6"].PerformanceCredits; got != 0 {
		t.Errorf("第 6 名积分应为 0，实际=%d", got)
	}
}

func TestLeaderboardService_GetAndList(t *testing.T) {
	svc, _, _ := setupTestLeaderboardService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, 1, 2025); !errors.Is(err, ErrLeaderboardNotFound) {
		t.Errorf("期望 ErrLeaderboardNotFound，实际: %v", err)
	}

	for _, month := range []int{1, 2} {
		if _, err := svc.Publish(ctx, &dto.PublishLeaderboardRequest{Month: month, Year: 2025, StudentIDs: []string{"stu-1", "stu-2"}}, "admin-1"); err != nil {
			t.Fatalf("发布 %d 月应成功: %v", month, err)
		}
	}

	board, err := svc.Get(ctx, 2, 2025)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if len(board.Entries) != 2 || board.Entries[0].StudentID != "stu-1" {
		t.Errorf("条目应按名次排序，实际: %+v", board.Entries)
	}

	list, total, err := svc.List(ctx, &dto.PaginationRequest{Page: 1, PageSize: 10})
	if err != nil || total != 2 {
		t.Fatalf("List 期望 2 条，实际 total=%d err=%v", total, err)
	}
	if list[0].Period != "2025-02" {
		t.Errorf("应按周期倒序，首项=%s", list[0].Period)
	}
}
