package repository

import (
	"context"

	"gorm.io/gorm"

	"school-portal/backend/internal/model"
)

// ── 请假申请 ──

// LeaveRepository 请假数据访问接口
type LeaveRepository interface {
	Create(ctx context.Context, leave *model.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*model.LeaveRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.LeaveRequest, error)
	ListPending(ctx context.Context) ([]model.LeaveRequest, error)
	// Review 仅当状态仍为 pending 时写入审批结果；返回是否更新成功
	Review(ctx context.Context, leave *model.LeaveRequest) (bool, error)
}

type leaveRepo struct {
	db *gorm.DB
}

// NewLeaveRepo 创建 LeaveRepository 实例
func NewLeaveRepo(db *gorm.DB) LeaveRepository {
	return &leaveRepo{db: db}
}

func (r *leaveRepo) Create(ctx context.Context, leave *model.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(leave).Error
}

func (r *leaveRepo) GetByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	var leave model.LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("leave_id = ?", id).
		First(&leave).Error
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

func (r *leaveRepo) ListByStudent(ctx context.Context, studentID string) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *leaveRepo) ListPending(ctx context.Context) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("status = ?", model.LeavePending).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *leaveRepo) Review(ctx context.Context, leave *model.LeaveRequest) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.LeaveRequest{}).
		Where("leave_id = ? AND status = ?", leave.LeaveID, model.LeavePending).
		Updates(map[string]interface{}{
			"status":      leave.Status,
			"reviewed_by": leave.ReviewedBy,
			"review_note": leave.ReviewNote,
			"reviewed_at": leave.ReviewedAt,
			"updated_by":  leave.ReviewedBy,
		})
	return result.RowsAffected > 0, result.Error
}

// ── 投诉 ──

// ComplaintRepository 投诉数据访问接口
type ComplaintRepository interface {
	Create(ctx context.Context, c *model.Complaint) error
	GetByID(ctx context.Context, id string) (*model.Complaint, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Complaint, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.Complaint, int64, error)
	// Resolve 仅当状态仍为 open 时写入处理结果；返回是否更新成功
	Resolve(ctx context.Context, c *model.Complaint) (bool, error)
}

type complaintRepo struct {
	db *gorm.DB
}

// NewComplaintRepo 创建 ComplaintRepository 实例
func NewComplaintRepo(db *gorm.DB) ComplaintRepository {
	return &complaintRepo{db: db}
}

func (r *complaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *complaintRepo) GetByID(ctx context.Context, id string) (*model.Complaint, error) {
	var c model.Complaint
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *complaintRepo) ListByAuthor(ctx context.Context, authorID string) ([]model.Complaint, error) {
	var list []model.Complaint
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *complaintRepo) List(ctx context.Context, status string, offset, limit int) ([]model.Complaint, int64, error) {
	var list []model.Complaint
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Complaint{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *complaintRepo) Resolve(ctx context.Context, c *model.Complaint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Complaint{}).
		Where("complaint_id = ? AND status = ?", c.ComplaintID, model.ComplaintOpen).
		Updates(map[string]interface{}{
			"status":      model.ComplaintResolved,
			"response":    c.Response,
			"resolved_by": c.ResolvedBy,
			"resolved_at": c.ResolvedAt,
			"updated_by":  c.ResolvedBy,
		})
	return result.RowsAffected > 0, result.Error
}
