package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/response"
)

// CourseHandler 课程与选课 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 课程列表
// GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	courses, total, err := h.courseSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, courses, total, req.GetPage(), req.GetPageSize())
}

// MyCourses 学生已选课程 / 教师任教课程
// GET /api/v1/courses/my
func (h *CourseHandler) MyCourses(c *gin.Context) {
	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	courses, err := h.courseSvc.MyCourses(c.Request.Context(), callerID, callerRole)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": courses})
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	course, err := h.courseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// CreateCourse 创建课程
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, course)
}

// UpdateCourse 更新课程（管理员或任课教师）
// PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Update(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// DeleteCourse 删除课程
// DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, nil)
}

// Enroll 选课（学生本人或管理员代选）
// POST /api/v1/courses/:id/enrollments
func (h *CourseHandler) Enroll(c *gin.Context) {
	id, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	enrollment, err := h.courseSvc.Enroll(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// Drop 退课
// DELETE /api/v1/courses/:id/enrollments/:studentId
func (h *CourseHandler) Drop(c *gin.Context) {
	id, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}
	studentID, ok := mustParam(c, "studentId", "学生ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Drop(c.Request.Context(), id, studentID, callerID, callerRole); err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, nil)
}

// Roster 课程名单
// GET /api/v1/courses/:id/roster
func (h *CourseHandler) Roster(c *gin.Context) {
	id, ok := mustParam(c, "id", "课程ID")
	if !ok {
		return
	}

	callerID, callerRole, ok := MustGetCaller(c)
	if !ok {
		return
	}

	roster, err := h.courseSvc.Roster(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": roster})
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 15002, "课程代码已存在")
	case errors.Is(err, service.ErrCourseTeacherInvalid):
		response.BadRequest(c, 15003, "任课教师不存在或不是教师")
	case errors.Is(err, service.ErrStudentInvalid):
		response.BadRequest(c, 15004, "学生不存在或不是学生")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 15005, "学生已选该课程")
	case errors.Is(err, service.ErrNotEnrolled):
		response.BadRequest(c, 15006, "学生未选该课程")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 15007, "院系不存在")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 15008, "学期不存在")
	default:
		response.InternalError(c)
	}
}
