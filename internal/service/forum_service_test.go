package service

import (
	"context"
	"errors"
	"testing"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestForumService() (ForumService, *testRepos, *recordingNotifier) {
	repos := newTestRepos()
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedUser("stu-2", "stu2", model.RoleStudent)
	repos.seedUser("stu-9", "stu9", model.RoleStudent)
	repos.seedCourse("course-math", "MATH101", "tch-1", springSemester())
	repos.enroll("course-math", "stu-1")
	repos.enroll("course-math", "stu-2")

	notifier := &recordingNotifier{}
	return NewForumService(repos.Repository, notifier, testLogger()), repos, notifier
}

func TestForumService_ReplyNotifiesAuthor(t *testing.T) {
	svc, _, notifier := setupTestForumService()
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, "course-math", &dto.CreatePostRequest{Title: "第三章习题", Content: "第 5 题怎么做？"}, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("发帖应成功: %v", err)
	}

	if _, err := svc.Reply(ctx, post.ID, &dto.ReplyRequest{Content: "用换元法"}, "tch-1", model.RoleTeacher); err != nil {
		t.Fatalf("回帖应成功: %v", err)
	}
	got := notifier.to("stu-1")
	if len(got) != 1 || got[0].Type != academics.NotifyForum {
		t.Fatalf("楼主应收到 1 条回复通知，实际: %+v", got)
	}
	if got[0].Payload["post_id"] != post.ID {
		t.Errorf("通知应携带 post_id，实际: %v", got[0].Payload)
	}

	// 自己回复自己不通知
	if _, err := svc.Reply(ctx, post.ID, &dto.ReplyRequest{Content: "明白了"}, "stu-1", model.RoleStudent); err != nil {
		t.Fatalf("回帖应成功: %v", err)
	}
	if len(notifier.to("stu-1")) != 1 {
		t.Error("自己回复不应产生通知")
	}

	detail, err := svc.GetPost(ctx, post.ID, "stu-2", model.RoleStudent)
	if err != nil {
		t.Fatalf("GetPost 应成功: %v", err)
	}
	if len(detail.Replies) != 2 {
		t.Errorf("期望 2 条回复，实际=%d", len(detail.Replies))
	}
}

func TestForumService_NonMemberForbidden(t *testing.T) {
	svc, _, _ := setupTestForumService()
	ctx := context.Background()

	if _, err := svc.CreatePost(ctx, "course-math", &dto.CreatePostRequest{Title: "旁听", Content: "可以吗"}, "stu-9", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("未选课学生发帖期望 ErrNoPermission，实际: %v", err)
	}
	if _, _, err := svc.ListPosts(ctx, "course-math", &dto.PaginationRequest{}, "stu-9", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("未选课学生浏览期望 ErrNoPermission，实际: %v", err)
	}
}

func TestForumService_DeletePost(t *testing.T) {
	svc, _, _ := setupTestForumService()
	ctx := context.Background()

	post, _ := svc.CreatePost(ctx, "course-math", &dto.CreatePostRequest{Title: "闲聊", Content: "周末去图书馆吗"}, "stu-1", model.RoleStudent)

	if err := svc.DeletePost(ctx, post.ID, "stu-2", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("非作者删除期望 ErrNoPermission，实际: %v", err)
	}
	if err := svc.DeletePost(ctx, post.ID, "admin-1", model.RoleAdmin); err != nil {
		t.Fatalf("管理员删除应成功: %v", err)
	}
	if _, err := svc.GetPost(ctx, post.ID, "stu-1", model.RoleStudent); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("删除后期望 ErrPostNotFound，实际: %v", err)
	}
}
