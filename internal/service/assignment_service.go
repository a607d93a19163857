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

// ── 作业模块业务错误 ──

var (
	ErrAssignmentNotFound   = errors.New("作业不存在")
	ErrAssignmentDueInvalid = errors.New("截止时间格式错误，应为 RFC3339")
	ErrSubmissionNotFound   = errors.New("作业提交不存在")
	ErrSubmissionGraded     = errors.New("作业已批改，不能再次提交")
)

// AssignmentService 作业业务接口
type AssignmentService interface {
	// Create 布置作业并通知全部选课学生
	Create(ctx context.Context, courseID string, req *dto.CreateAssignmentRequest, callerID, callerRole string) (*dto.AssignmentResponse, error)
	GetByID(ctx context.Context, id string, callerID, callerRole string) (*dto.AssignmentResponse, error)
	ListByCourse(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.AssignmentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAssignmentRequest, callerID, callerRole string) (*dto.AssignmentResponse, error)
	Delete(ctx context.Context, id string, callerID, callerRole string) error

	// Submit 选课学生提交作业；批改前可重复提交覆盖
	Submit(ctx context.Context, assignmentID string, req *dto.SubmitAssignmentRequest, callerID, callerRole string) (*dto.SubmissionResponse, error)
	ListSubmissions(ctx context.Context, assignmentID string, callerID, callerRole string) ([]dto.SubmissionResponse, error)
	// GradeSubmission 批改作业，同时写入一条带 assignment_id 的成绩记录
	GradeSubmission(ctx context.Context, submissionID string, req *dto.GradeSubmissionRequest, callerID, callerRole string) (*dto.SubmissionResponse, error)
}

type assignmentService struct {
	repo     *repository.Repository
	grades   GradeService
	notifier Notifier
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, grades GradeService, notifier Notifier, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, grades: grades, notifier: notifier, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *assignmentService) Create(ctx context.Context, courseID string, req *dto.CreateAssignmentRequest, callerID, callerRole string) (*dto.AssignmentResponse, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	dueAt, err := time.Parse(dateTimeLayout, req.DueAt)
	if err != nil {
		return nil, ErrAssignmentDueInvalid
	}

	a := &model.Assignment{
		CourseID:      courseID,
		Title:         req.Title,
		Description:   req.Description,
		DueAt:         dueAt,
		AttachmentURL: req.AttachmentURL,
	}
	a.CreatedBy = &callerID
	a.UpdatedBy = &callerID

	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		s.logger.Error("创建作业失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	studentIDs, err := s.repo.Enrollment.ListActiveStudentIDs(ctx, courseID)
	if err != nil {
		s.logger.Warn("查询选课学生失败，跳过作业通知", zap.String("course_id", courseID), zap.Error(err))
	}
	intents := make([]academics.NotificationIntent, 0, len(studentIDs))
	for _, id := range studentIDs {
		intents = append(intents, academics.NotificationIntent{
			Recipient: id,
			Type:      academics.NotifyAssignment,
			Title:     "新作业",
			Message:   fmt.Sprintf("课程 %s 布置了新作业《%s》，截止 %s", course.Name, a.Title, dueAt.Format("2006-01-02 15:04")),
			Severity:  academics.SeverityInfo,
			Payload:   map[string]interface{}{"course_id": courseID, "assignment_id": a.AssignmentID},
		})
	}
	s.notifier.Dispatch(ctx, intents)

	return toAssignmentResponse(a), nil
}

// ────────────────────── GetByID / ListByCourse ──────────────────────

func (s *assignmentService) GetByID(ctx context.Context, id string, callerID, callerRole string) (*dto.AssignmentResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeCourseMember(ctx, s.repo, a.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}
	return toAssignmentResponse(a), nil
}

func (s *assignmentService) ListByCourse(ctx context.Context, courseID string, callerID, callerRole string) ([]dto.AssignmentResponse, error) {
	if _, err := authorizeCourseMember(ctx, s.repo, courseID, callerID, callerRole); err != nil {
		return nil, err
	}

	list, err := s.repo.Assignment.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程作业失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAssignmentResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *assignmentService) Update(ctx context.Context, id string, req *dto.UpdateAssignmentRequest, callerID, callerRole string) (*dto.AssignmentResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeCourseStaff(ctx, s.repo, a.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}

	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.DueAt != nil {
		dueAt, err := time.Parse(dateTimeLayout, *req.DueAt)
		if err != nil {
			return nil, ErrAssignmentDueInvalid
		}
		a.DueAt = dueAt
	}
	if req.AttachmentURL != nil {
		a.AttachmentURL = *req.AttachmentURL
	}
	a.UpdatedBy = &callerID

	if err := s.repo.Assignment.Update(ctx, a); err != nil {
		s.logger.Error("更新作业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAssignmentResponse(a), nil
}

// ────────────────────── Delete ──────────────────────

func (s *assignmentService) Delete(ctx context.Context, id string, callerID, callerRole string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := authorizeCourseStaff(ctx, s.repo, a.CourseID, callerID, callerRole); err != nil {
		return err
	}
	if err := s.repo.Assignment.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除作业失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Submit ──────────────────────

func (s *assignmentService) Submit(ctx context.Context, assignmentID string, req *dto.SubmitAssignmentRequest, callerID, callerRole string) (*dto.SubmissionResponse, error) {
	if callerRole != model.RoleStudent {
		return nil, ErrNoPermission
	}
	a, err := s.load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeCourseMember(ctx, s.repo, a.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}

	existing, err := s.repo.Submission.Get(ctx, assignmentID, callerID)
	if err == nil && existing.LetterGrade != nil {
		return nil, ErrSubmissionGraded
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub := &model.Submission{
		AssignmentID:  assignmentID,
		StudentID:     callerID,
		Content:       req.Content,
		AttachmentURL: req.AttachmentURL,
		SubmittedAt:   time.Now(),
	}
	sub.CreatedBy = &callerID
	sub.UpdatedBy = &callerID

	if err := s.repo.Submission.Upsert(ctx, sub); err != nil {
		s.logger.Error("提交作业失败",
			zap.String("assignment_id", assignmentID), zap.String("student_id", callerID), zap.Error(err))
		return nil, err
	}
	return toSubmissionResponse(sub), nil
}

// ────────────────────── ListSubmissions ──────────────────────

func (s *assignmentService) ListSubmissions(ctx context.Context, assignmentID string, callerID, callerRole string) ([]dto.SubmissionResponse, error) {
	a, err := s.load(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeCourseStaff(ctx, s.repo, a.CourseID, callerID, callerRole); err != nil {
		return nil, err
	}

	list, err := s.repo.Submission.ListByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("查询作业提交失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubmissionResponse, 0, len(list))
	for i := range list {
		result = append(result, *toSubmissionResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── GradeSubmission ──────────────────────

func (s *assignmentService) GradeSubmission(ctx context.Context, submissionID string, req *dto.GradeSubmissionRequest, callerID, callerRole string) (*dto.SubmissionResponse, error) {
	sub, err := s.repo.Submission.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	a, err := s.load(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}

	// 成绩写入走成绩模块：权限、等级校验与通知一并完成
	if _, err := s.grades.SubmitGrade(ctx, &dto.SubmitGradeRequest{
		StudentID:    sub.StudentID,
		CourseID:     a.CourseID,
		AssignmentID: a.AssignmentID,
		LetterGrade:  req.LetterGrade,
		Remark:       req.Remark,
	}, callerID, callerRole); err != nil {
		return nil, err
	}

	now := time.Now()
	letter := req.LetterGrade
	sub.LetterGrade = &letter
	sub.GradedAt = &now
	sub.UpdatedBy = &callerID

	if err := s.repo.Submission.SetGrade(ctx, sub); err != nil {
		s.logger.Error("写入批改结果失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}
	return toSubmissionResponse(sub), nil
}

// ── 内部辅助方法 ──

func (s *assignmentService) load(ctx context.Context, id string) (*model.Assignment, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询作业失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func toAssignmentResponse(a *model.Assignment) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		ID:            a.AssignmentID,
		CourseID:      a.CourseID,
		Title:         a.Title,
		Description:   a.Description,
		DueAt:         formatTime(a.DueAt),
		AttachmentURL: a.AttachmentURL,
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

func toSubmissionResponse(sub *model.Submission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		ID:            sub.SubmissionID,
		AssignmentID:  sub.AssignmentID,
		StudentID:     sub.StudentID,
		StudentName:   userName(sub.Student),
		Content:       sub.Content,
		AttachmentURL: sub.AttachmentURL,
		SubmittedAt:   formatTime(sub.SubmittedAt),
		LetterGrade:   sub.LetterGrade,
		GradedAt:      formatTimePtr(sub.GradedAt),
	}
}
