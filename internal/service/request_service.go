package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// ── 请假/投诉模块业务错误 ──

var (
	ErrLeaveNotFound          = errors.New("请假申请不存在")
	ErrLeaveDateRange         = errors.New("请假结束日期不能早于开始日期")
	ErrLeaveAlreadyReviewed   = errors.New("请假申请已审批")
	ErrComplaintNotFound      = errors.New("投诉不存在")
	ErrComplaintAlreadyClosed = errors.New("投诉已处理")
)

// ════════════════════════════════════════════════════════════
// 请假
// ════════════════════════════════════════════════════════════

// LeaveService 请假业务接口
type LeaveService interface {
	Create(ctx context.Context, req *dto.CreateLeaveRequest, callerID, callerRole string) (*dto.LeaveResponse, error)
	ListMine(ctx context.Context, callerID string) ([]dto.LeaveResponse, error)
	ListPending(ctx context.Context) ([]dto.LeaveResponse, error)
	// Review 仅能审批一次，结果通知申请人
	Review(ctx context.Context, id string, req *dto.ReviewLeaveRequest, callerID string) (*dto.LeaveResponse, error)
}

type leaveService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, notifier: notifier, logger: logger}
}

func (s *leaveService) Create(ctx context.Context, req *dto.CreateLeaveRequest, callerID, callerRole string) (*dto.LeaveResponse, error) {
	if callerRole != model.RoleStudent {
		return nil, ErrNoPermission
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrLeaveDateRange
	}

	leave := &model.LeaveRequest{
		StudentID: callerID,
		Reason:    req.Reason,
		StartDate: start,
		EndDate:   end,
		Status:    model.LeavePending,
	}
	leave.CreatedBy = &callerID

	if err := s.repo.Leave.Create(ctx, leave); err != nil {
		s.logger.Error("创建请假申请失败", zap.String("student_id", callerID), zap.Error(err))
		return nil, err
	}
	return toLeaveResponse(leave), nil
}

func (s *leaveService) ListMine(ctx context.Context, callerID string) ([]dto.LeaveResponse, error) {
	list, err := s.repo.Leave.ListByStudent(ctx, callerID)
	if err != nil {
		s.logger.Error("查询请假记录失败", zap.String("student_id", callerID), zap.Error(err))
		return nil, err
	}
	return toLeaveResponses(list), nil
}

func (s *leaveService) ListPending(ctx context.Context) ([]dto.LeaveResponse, error) {
	list, err := s.repo.Leave.ListPending(ctx)
	if err != nil {
		s.logger.Error("查询待审批请假失败", zap.Error(err))
		return nil, err
	}
	return toLeaveResponses(list), nil
}

func (s *leaveService) Review(ctx context.Context, id string, req *dto.ReviewLeaveRequest, callerID string) (*dto.LeaveResponse, error) {
	leave, err := s.repo.Leave.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}
	if leave.Status != model.LeavePending {
		return nil, ErrLeaveAlreadyReviewed
	}

	now := time.Now()
	leave.Status = req.Status
	leave.ReviewNote = req.Note
	leave.ReviewedBy = &callerID
	leave.ReviewedAt = &now
	leave.UpdatedBy = &callerID

	ok, err := s.repo.Leave.Review(ctx, leave)
	if err != nil {
		s.logger.Error("审批请假失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		// 并发审批：另一请求已先写入
		return nil, ErrLeaveAlreadyReviewed
	}

	severity, verdict := academics.SeveritySuccess, "已批准"
	if req.Status == model.LeaveRejected {
		severity, verdict = academics.SeverityWarning, "未获批准"
	}
	s.notifier.Dispatch(ctx, []academics.NotificationIntent{{
		Recipient: leave.StudentID,
		Type:      academics.NotifyLeave,
		Title:     "请假审批结果",
		Message: fmt.Sprintf("你 %s 至 %s 的请假申请%s",
			leave.StartDate.Format(dateLayout), leave.EndDate.Format(dateLayout), verdict),
		Severity: severity,
		Payload:  map[string]interface{}{"leave_id": leave.LeaveID, "status": leave.Status},
	}})

	return toLeaveResponse(leave), nil
}

func toLeaveResponse(l *model.LeaveRequest) *dto.LeaveResponse {
	return &dto.LeaveResponse{
		ID:          l.LeaveID,
		StudentID:   l.StudentID,
		StudentName: userName(l.Student),
		Reason:      l.Reason,
		StartDate:   l.StartDate.Format(dateLayout),
		EndDate:     l.EndDate.Format(dateLayout),
		Status:      l.Status,
		ReviewNote:  l.ReviewNote,
		ReviewedAt:  formatTimePtr(l.ReviewedAt),
		CreatedAt:   formatTime(l.CreatedAt),
	}
}

func toLeaveResponses(list []model.LeaveRequest) []dto.LeaveResponse {
	result := make([]dto.LeaveResponse, 0, len(list))
	for i := range list {
		result = append(result, *toLeaveResponse(&list[i]))
	}
	return result
}

// ════════════════════════════════════════════════════════════
// 投诉
// ════════════════════════════════════════════════════════════

// ComplaintService 投诉业务接口
type ComplaintService interface {
	Create(ctx context.Context, req *dto.CreateComplaintRequest, callerID string) (*dto.ComplaintResponse, error)
	ListMine(ctx context.Context, callerID string) ([]dto.ComplaintResponse, error)
	List(ctx context.Context, req *dto.ComplaintListRequest) ([]dto.ComplaintResponse, int64, error)
	// Resolve 仅能处理一次，结果通知投诉人
	Resolve(ctx context.Context, id string, req *dto.ResolveComplaintRequest, callerID string) (*dto.ComplaintResponse, error)
}

type complaintService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewComplaintService 创建 ComplaintService 实例
func NewComplaintService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) ComplaintService {
	return &complaintService{repo: repo, notifier: notifier, logger: logger}
}

func (s *complaintService) Create(ctx context.Context, req *dto.CreateComplaintRequest, callerID string) (*dto.ComplaintResponse, error) {
	c := &model.Complaint{
		AuthorID: callerID,
		Subject:  req.Subject,
		Content:  req.Content,
		Status:   model.ComplaintOpen,
	}
	c.CreatedBy = &callerID

	if err := s.repo.Complaint.Create(ctx, c); err != nil {
		s.logger.Error("创建投诉失败", zap.String("author_id", callerID), zap.Error(err))
		return nil, err
	}
	return toComplaintResponse(c), nil
}

func (s *complaintService) ListMine(ctx context.Context, callerID string) ([]dto.ComplaintResponse, error) {
	list, err := s.repo.Complaint.ListByAuthor(ctx, callerID)
	if err != nil {
		s.logger.Error("查询投诉失败", zap.String("author_id", callerID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ComplaintResponse, 0, len(list))
	for i := range list {
		result = append(result, *toComplaintResponse(&list[i]))
	}
	return result, nil
}

func (s *complaintService) List(ctx context.Context, req *dto.ComplaintListRequest) ([]dto.ComplaintResponse, int64, error) {
	list, total, err := s.repo.Complaint.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询投诉列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ComplaintResponse, 0, len(list))
	for i := range list {
		result = append(result, *toComplaintResponse(&list[i]))
	}
	return result, total, nil
}

func (s *complaintService) Resolve(ctx context.Context, id string, req *dto.ResolveComplaintRequest, callerID string) (*dto.ComplaintResponse, error) {
	c, err := s.repo.Complaint.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if c.Status != model.ComplaintOpen {
		return nil, ErrComplaintAlreadyClosed
	}

	now := time.Now()
	c.Status = model.ComplaintResolved
	c.Response = req.Response
	c.ResolvedBy = &callerID
	c.ResolvedAt = &now
	c.UpdatedBy = &callerID

	ok, err := s.repo.Complaint.Resolve(ctx, c)
	if err != nil {
		s.logger.Error("处理投诉失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrComplaintAlreadyClosed
	}

	s.notifier.Dispatch(ctx, []academics.NotificationIntent{{
		Recipient: c.AuthorID,
		Type:      academics.NotifyComplaint,
		Title:     "投诉已处理",
		Message:   fmt.Sprintf("你提交的《%s》已处理", c.Subject),
		Severity:  academics.SeveritySuccess,
		Payload:   map[string]interface{}{"complaint_id": c.ComplaintID},
	}})

	return toComplaintResponse(c), nil
}

func toComplaintResponse(c *model.Complaint) *dto.ComplaintResponse {
	return &dto.ComplaintResponse{
		ID:         c.ComplaintID,
		AuthorID:   c.AuthorID,
		Subject:    c.Subject,
		Content:    c.Content,
		Status:     c.Status,
		Response:   c.Response,
		ResolvedAt: formatTimePtr(c.ResolvedAt),
		CreatedAt:  formatTime(c.CreatedAt),
	}
}
