package repository

import (
	"context"

	"gorm.io/gorm"

	"school-portal/backend/internal/model"
)

// ForumRepository 课程论坛数据访问接口
type ForumRepository interface {
	CreatePost(ctx context.Context, post *model.ForumPost) error
	GetPost(ctx context.Context, postID string, withReplies bool) (*model.ForumPost, error)
	ListPosts(ctx context.Context, courseID string, offset, limit int) ([]model.ForumPost, int64, error)
	DeletePost(ctx context.Context, postID string, deletedBy string) error
	CreateReply(ctx context.Context, reply *model.ForumReply) error
}

type forumRepo struct {
	db *gorm.DB
}

// NewForumRepo 创建 ForumRepository 实例
func NewForumRepo(db *gorm.DB) ForumRepository {
	return &forumRepo{db: db}
}

func (r *forumRepo) CreatePost(ctx context.Context, post *model.ForumPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *forumRepo) GetPost(ctx context.Context, postID string, withReplies bool) (*model.ForumPost, error) {
	var post model.ForumPost
	db := r.db.WithContext(ctx).Preload("Author")
	if withReplies {
		db = db.Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).Preload("Replies.Author")
	}
	if err := db.Where("post_id = ?", postID).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *forumRepo) ListPosts(ctx context.Context, courseID string, offset, limit int) ([]model.ForumPost, int64, error) {
	var posts []model.ForumPost
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ForumPost{}).Where("course_id = ?", courseID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Author").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// DeletePost 软删除帖子及其回复
func (r *forumRepo) DeletePost(ctx context.Context, postID string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}
		if err := tx.Model(&model.ForumReply{}).Where("post_id = ?", postID).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Model(&model.ForumPost{}).Where("post_id = ?", postID).Updates(fields).Error
	})
}

func (r *forumRepo) CreateReply(ctx context.Context, reply *model.ForumReply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}
