package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

var (
	ErrPostNotFound = errors.New("帖子不存在")
)

// ForumService 课程论坛业务接口
type ForumService interface {
	CreatePost(ctx context.Context, courseID string, req *dto.CreatePostRequest, callerID, callerRole string) (*dto.PostResponse, error)
	ListPosts(ctx context.Context, courseID string, page *dto.PaginationRequest, callerID, callerRole string) ([]dto.PostResponse, int64, error)
	GetPost(ctx context.Context, postID string, callerID, callerRole string) (*dto.PostDetailResponse, error)
	// Reply 回帖并通知楼主（自己回复自己不通知）
	Reply(ctx context.Context, postID string, req *dto.ReplyRequest, callerID, callerRole string) (*dto.ReplyResponse, error)
	// DeletePost 作者或管理员可删除，回复一并删除
	DeletePost(ctx context.Context, postID string, callerID, callerRole string) error
}

type forumService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewForumService 创建 ForumService 实例
func NewForumService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) ForumService {
	return &forumService{repo: repo, notifier: notifier, logger: logger}
}

func (s *forumService) CreatePost(ctx context.Context, courseID string, req *dto.CreatePostRequest, callerID, callerRole string) (*dto.PostResponse, error) {
	if _, err := authorizeCourseMember(ctx, s.repo, courseID, callerID, callerRole); err != nil {
		return nil, err
	}

	post := &model.ForumPost{
		CourseID: courseID,
		AuthorID: callerID,
		Title:    req.Title,
		Content:  req.Content,
	}
	post.CreatedBy = &callerID

	if err := s.repo.Forum.CreatePost(ctx, post); err != nil {
		s.logger.Error("发帖失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return toPostResponse(post), nil
}

func (s *forumService) ListPosts(ctx context.Context, courseID string, page *dto.PaginationRequest, callerID, callerRole string) ([]dto.PostResponse, int64, error) {
	if _, err := authorizeCourseMember(ctx, s.repo, courseID, callerID, callerRole); err != nil {
		return nil, 0, err
	}

	posts, total, err := s.repo.Forum.ListPosts(ctx, courseID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询帖子列表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		result = append(result, *toPostResponse(&posts[i]))
	}
	return result, total, nil
}

func (s *forumService) GetPost(ctx context.Context, postID string, callerID, callerRole string) (*dto.PostDetailResponse, error) {
	post, err := s.load(ctx, postID, true)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeCourseMember(ctx, s.repo, post.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}

	detail := &dto.PostDetailResponse{
		PostResponse: *toPostResponse(post),
		Replies:      make([]dto.ReplyResponse, 0, len(post.Replies)),
	}
	for i := range post.Replies {
		detail.Replies = append(detail.Replies, *toReplyResponse(&post.Replies[i]))
	}
	return detail, nil
}

func (s *forumService) Reply(ctx context.Context, postID string, req *dto.ReplyRequest, callerID, callerRole string) (*dto.ReplyResponse, error) {
	post, err := s.load(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeCourseMember(ctx, s.repo, post.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}

	reply := &model.ForumReply{
		PostID:   postID,
		AuthorID: callerID,
		Content:  req.Content,
	}
	reply.CreatedBy = &callerID

	if err := s.repo.Forum.CreateReply(ctx, reply); err != nil {
		s.logger.Error("回帖失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	if post.AuthorID != callerID {
		s.notifier.Dispatch(ctx, []academics.NotificationIntent{{
			Recipient: post.AuthorID,
			Type:      academics.NotifyForum,
			Title:     "帖子有新回复",
			Message:   fmt.Sprintf("你的帖子《%s》收到了新回复", post.Title),
			Severity:  academics.SeverityInfo,
			Payload:   map[string]interface{}{"course_id": post.CourseID, "post_id": postID, "reply_id": reply.ReplyID},
		}})
	}

	return toReplyResponse(reply), nil
}

func (s *forumService) DeletePost(ctx context.Context, postID string, callerID, callerRole string) error {
	post, err := s.load(ctx, postID, false)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID && callerRole != model.RoleAdmin {
		return ErrNoPermission
	}

	if err := s.repo.Forum.DeletePost(ctx, postID, callerID); err != nil {
		s.logger.Error("删除帖子失败", zap.String("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

func (s *forumService) load(ctx context.Context, postID string, withReplies bool) (*model.ForumPost, error) {
	post, err := s.repo.Forum.GetPost(ctx, postID, withReplies)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("查询帖子失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func toPostResponse(p *model.ForumPost) *dto.PostResponse {
	return &dto.PostResponse{
		ID:         p.PostID,
		CourseID:   p.CourseID,
		AuthorID:   p.AuthorID,
		AuthorName: userName(p.Author),
		Title:      p.Title,
		Content:    p.Content,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

func toReplyResponse(r *model.ForumReply) *dto.ReplyResponse {
	return &dto.ReplyResponse{
		ID:         r.ReplyID,
		PostID:     r.PostID,
		AuthorID:   r.AuthorID,
		AuthorName: userName(r.Author),
		Content:    r.Content,
		CreatedAt:  formatTime(r.CreatedAt),
	}
}
