package service

import (
	"context"
	"errors"
	"testing"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func sampleIntents() []academics.NotificationIntent {
	return []academics.NotificationIntent{
		{Recipient: "stu-1", Type: academics.NotifyGrade, Title: "成绩已发布", Message: "A", Severity: academics.SeverityInfo,
			Payload: map[string]interface{}{"course_id": "course-math"}},
		{Recipient: "stu-2", Type: academics.NotifyLeaderboard, Title: "排行榜", Message: "继续加油", Severity: academics.SeverityInfo},
	}
}

func TestNotifier_DispatchPersistsAndPushes(t *testing.T) {
	repos := newTestRepos()
	pusher := &recordingPusher{}
	n := NewNotifier(repos.Repository, pusher, testLogger())

	n.Dispatch(context.Background(), sampleIntents())

	if len(repos.notifications.items) != 2 {
		t.Fatalf("应落库 2 条通知，实际=%d", len(repos.notifications.items))
	}
	first := repos.notifications.items[0]
	if first.UserID != "stu-1" || first.Severity != string(academics.SeverityInfo) || first.Payload["course_id"] != "course-math" {
		t.Errorf("通知字段不符: %+v", first)
	}
	if repos.notifications.items[1].Payload != nil {
		t.Error("无 payload 时不应写入空对象")
	}

	if len(pusher.events) != 2 {
		t.Fatalf("应推送 2 次，实际=%d", len(pusher.events))
	}
	if pusher.events[0].userID != "stu-1" || pusher.events[0].event != EventNotification {
		t.Errorf("推送目标不符: %+v", pusher.events[0])
	}
}

func TestNotifier_FailuresDoNotPanic(t *testing.T) {
	repos := newTestRepos()
	pusher := &recordingPusher{err: errors.New("offline")}
	n := NewNotifier(repos.Repository, pusher, testLogger())

	// 推送失败：已落库，继续处理后续通知
	n.Dispatch(context.Background(), sampleIntents())
	if len(repos.notifications.items) != 2 {
		t.Errorf("推送失败不应影响落库，实际=%d", len(repos.notifications.items))
	}

	// 落库失败：跳过推送
	repos.notifications.err = errors.New("db down")
	pusher.events = nil
	n.Dispatch(context.Background(), sampleIntents())
	if len(pusher.events) != 0 {
		t.Errorf("落库失败不应推送，实际推送 %d 次", len(pusher.events))
	}
}

func TestNotifier_NilPusher(t *testing.T) {
	repos := newTestRepos()
	n := NewNotifier(repos.Repository, nil, testLogger())

	n.Dispatch(context.Background(), sampleIntents())
	if len(repos.notifications.items) != 2 {
		t.Errorf("无推送通道时仍应落库，实际=%d", len(repos.notifications.items))
	}
}

func TestNotificationService_ReadFlow(t *testing.T) {
	repos := newTestRepos()
	NewNotifier(repos.Repository, nil, testLogger()).Dispatch(context.Background(), append(sampleIntents(), sampleIntents()[0]))
	svc := NewNotificationService(repos.Repository, testLogger())
	ctx := context.Background()

	count, _ := svc.UnreadCount(ctx, "stu-1")
	if count.Unread != 2 {
		t.Fatalf("stu-1 未读应为 2，实际=%d", count.Unread)
	}

	list, total, err := svc.List(ctx, "stu-1", &dto.NotificationListRequest{UnreadOnly: true})
	if err != nil || total != 2 {
		t.Fatalf("List 期望 2 条，实际 total=%d err=%v", total, err)
	}

	if err := svc.MarkRead(ctx, "stu-1", list[0].ID); err != nil {
		t.Fatalf("MarkRead 应成功: %v", err)
	}
	// 他人的通知视为不存在
	if err := svc.MarkRead(ctx, "stu-2", list[1].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("期望 ErrNotificationNotFound，实际: %v", err)
	}

	marked, _ := svc.MarkAllRead(ctx, "stu-1")
	if marked.Updated != 1 {
		t.Errorf("全部已读应更新 1 条，实际=%d", marked.Updated)
	}
	if count, _ := svc.UnreadCount(ctx, "stu-1"); count.Unread != 0 {
		t.Errorf("全部已读后未读应为 0，实际=%d", count.Unread)
	}
}

func TestChatService_SendAndRead(t *testing.T) {
	repos := newTestRepos()
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	pusher := &recordingPusher{}
	svc := NewChatService(repos.Repository, pusher, testLogger())
	ctx := context.Background()

	msg, err := svc.Send(ctx, "stu-1", &dto.SendChatRequest{RecipientID: "tch-1", Content: "老师，作业截止能延期吗？"})
	if err != nil {
		t.Fatalf("Send 应成功: %v", err)
	}
	if len(pusher.events) != 1 || pusher.events[0].userID != "tch-1" || pusher.events[0].event != EventChat {
		t.Errorf("应实时推送给接收人，实际: %+v", pusher.events)
	}

	if _, err := svc.Send(ctx, "tch-1", &dto.SendChatRequest{RecipientID: "stu-1", Content: "可以，周五前交"}); err != nil {
		t.Fatalf("回复应成功: %v", err)
	}

	conv, total, err := svc.Conversation(ctx, "tch-1", "stu-1", &dto.PaginationRequest{})
	if err != nil || total != 2 || conv[0].ID != msg.ID {
		t.Fatalf("会话应包含双方 2 条消息，实际 total=%d err=%v", total, err)
	}

	marked, err := svc.MarkRead(ctx, "tch-1", "stu-1")
	if err != nil || marked.Updated != 1 {
		t.Errorf("教师标记已读应更新 1 条，实际: %+v err=%v", marked, err)
	}
}

func TestChatService_SendRejections(t *testing.T) {
	repos := newTestRepos()
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	svc := NewChatService(repos.Repository, nil, testLogger())
	ctx := context.Background()

	if _, err := svc.Send(ctx, "stu-1", &dto.SendChatRequest{RecipientID: "stu-1", Content: "hi"}); !errors.Is(err, ErrChatSelf) {
		t.Errorf("期望 ErrChatSelf，实际: %v", err)
	}
	if _, err := svc.Send(ctx, "stu-1", &dto.SendChatRequest{RecipientID: "ghost", Content: "hi"}); !errors.Is(err, ErrChatRecipientMissing) {
		t.Errorf("期望 ErrChatRecipientMissing，实际: %v", err)
	}
}
