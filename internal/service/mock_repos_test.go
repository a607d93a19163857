package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"school-portal/backend/config"
	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
)

// ── 测试夹具 ──

// testRepos 全部内存 Repository，Transaction 在未绑定数据库时直接执行
type testRepos struct {
	*repository.Repository
	users         *mockUserRepo
	departments   *mockDeptRepo
	semesters     *mockSemesterRepo
	courses       *mockCourseRepo
	enrollments   *mockEnrollmentRepo
	attendance    *mockAttendanceRepo
	grades        *mockGradeRepo
	assignments   *mockAssignmentRepo
	submissions   *mockSubmissionRepo
	forum         *mockForumRepo
	leaves        *mockLeaveRepo
	complaints    *mockComplaintRepo
	timetable     *mockTimetableRepo
	leaderboards  *mockLeaderboardRepo
	notifications *mockNotificationRepo
	chat          *mockChatRepo
	systemConfig  *mockSystemConfigRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		users:         newMockUserRepo(),
		departments:   newMockDeptRepo(),
		semesters:     newMockSemesterRepo(),
		courses:       newMockCourseRepo(),
		enrollments:   newMockEnrollmentRepo(),
		attendance:    newMockAttendanceRepo(),
		grades:        newMockGradeRepo(),
		assignments:   newMockAssignmentRepo(),
		submissions:   newMockSubmissionRepo(),
		forum:         newMockForumRepo(),
		leaves:        newMockLeaveRepo(),
		complaints:    newMockComplaintRepo(),
		timetable:     newMockTimetableRepo(),
		leaderboards:  newMockLeaderboardRepo(),
		notifications: newMockNotificationRepo(),
		chat:          newMockChatRepo(),
		systemConfig:  newMockSystemConfigRepo(),
	}
	r.courses.users = r.users
	r.departments.users = r.users
	r.timetable.courses = r.courses
	r.grades.courses = r.courses.courses
	r.enrollments.courses = r.courses
	r.enrollments.users = r.users
	r.Repository = &repository.Repository{
		User:         r.users,
		Department:   r.departments,
		Semester:     r.semesters,
		Course:       r.courses,
		Enrollment:   r.enrollments,
		Attendance:   r.attendance,
		Grade:        r.grades,
		Assignment:   r.assignments,
		Submission:   r.submissions,
		Forum:        r.forum,
		Leave:        r.leaves,
		Complaint:    r.complaints,
		Timetable:    r.timetable,
		Leaderboard:  r.leaderboards,
		Notification: r.notifications,
		Chat:         r.chat,
		SystemConfig: r.systemConfig,
	}
	return r
}

var testAcademicsDefaults = config.AcademicsConfig{
	LeaderboardSize:            5,
	AttendanceWarningThreshold: 75,
	Timezone:                   "Asia/Shanghai",
}

// recordingNotifier 记录 Dispatch 的通知意图
type recordingNotifier struct {
	intents []academics.NotificationIntent
}

func (n *recordingNotifier) Dispatch(_ context.Context, intents []academics.NotificationIntent) {
	n.intents = append(n.intents, intents...)
}

func (n *recordingNotifier) to(recipient string) []academics.NotificationIntent {
	var out []academics.NotificationIntent
	for _, in := range n.intents {
		if in.Recipient == recipient {
			out = append(out, in)
		}
	}
	return out
}

// recordingPusher 记录推送事件
type recordingPusher struct {
	events []pushedEvent
	err    error
}

type pushedEvent struct {
	userID string
	event  string
	data   interface{}
}

func (p *recordingPusher) Push(_ context.Context, userID, event string, data interface{}) error {
	p.events = append(p.events, pushedEvent{userID: userID, event: event, data: data})
	return p.err
}

func testLogger() *zap.Logger { return zap.NewNop() }

// seedUser 写入一个用户并返回
func (r *testRepos) seedUser(id, username, role string) *model.User {
	u := &model.User{UserID: id, Name: "用户" + username, Username: username, Email: username + "@school.test", Role: role}
	u.Version = 1
	r.users.users[id] = u
	return u
}

// seedCourse 写入课程及其学期
func (r *testRepos) seedCourse(id, code, teacherID string, sem *model.Semester) *model.Course {
	if _, ok := r.semesters.semesters[sem.SemesterID]; !ok {
		r.semesters.semesters[sem.SemesterID] = sem
	}
	c := &model.Course{CourseID: id, Code: code, Name: "课程" + code, Units: 3, TeacherID: teacherID, SemesterID: sem.SemesterID}
	c.Version = 1
	r.courses.courses[id] = c
	return c
}

func (r *testRepos) enroll(courseID, studentID string) {
	_ = r.enrollments.Create(context.Background(), &model.Enrollment{
		CourseID: courseID, StudentID: studentID, Status: model.EnrollmentActive,
	})
}

func springSemester() *model.Semester {
	s := &model.Semester{
		SemesterID: "sem-2025s",
		Name:       "2024-2025 第二学期",
		StartDate:  time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
	s.Version = 1
	return s
}

var mockSeq int

func nextID(prefix string) string {
	mockSeq++
	return fmt.Sprintf("%s-%04d", prefix, mockSeq)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = nextID("user")
	}
	user.Version = 1
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != filter.DepartmentID) {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Name, filter.Keyword) && !strings.Contains(u.Username, filter.Keyword) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockUserRepo) ListStudentIDsByDepartment(_ context.Context, departmentID string) ([]string, error) {
	var ids []string
	for _, u := range m.users {
		if u.Role == model.RoleStudent && u.DepartmentID != nil && *u.DepartmentID == departmentID {
			ids = append(ids, u.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockUserRepo) IncrementCredits(_ context.Context, userID string, delta int) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PerformanceCredits += delta
	return nil
}

func paginate[T any](all []T, offset, limit int) []T {
	if limit < 0 {
		return all
	}
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts map[string]*model.Department
	users *mockUserRepo
}

func newMockDeptRepo() *mockDeptRepo {
	m := &mockDeptRepo{depts: make(map[string]*model.Department)}
	d := &model.Department{DepartmentID: "dept-cs", Code: "CS", Name: "计算机学院", IsActive: true}
	d.Version = 1
	m.depts[d.DepartmentID] = d
	return m
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = nextID("dept")
	}
	dept.Version = 1
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByCode(_ context.Context, code string) (*model.Department, error) {
	for _, d := range m.depts {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context, includeInactive bool) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.depts {
		if !includeInactive && !d.IsActive {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.depts, id)
	return nil
}

func (m *mockDeptRepo) CountMembers(_ context.Context, departmentID string) (int64, error) {
	return int64(len(m.members(departmentID))), nil
}

func (m *mockDeptRepo) ListMembers(_ context.Context, departmentID string) ([]model.User, error) {
	return m.members(departmentID), nil
}

func (m *mockDeptRepo) members(departmentID string) []model.User {
	if m.users == nil {
		return nil
	}
	var out []model.User
	for _, u := range m.users.users {
		if u.DepartmentID != nil && *u.DepartmentID == departmentID {
			out = append(out, *u)
		}
	}
	return out
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.Name
	}
	semester.Version = 1
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	m.semesters[semester.SemesterID] = semester
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.semesters, id)
	return nil
}

func (m *mockSemesterRepo) ClearActive(_ context.Context) error {
	for _, s := range m.semesters {
		s.IsActive = false
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	users   *mockUserRepo
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = nextID("course")
	}
	course.Version = 1
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	var result []model.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) List(_ context.Context, filter repository.CourseFilter, offset, limit int) ([]model.Course, int64, error) {
	var all []model.Course
	for _, c := range m.courses {
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.DepartmentID != "" && c.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.SemesterID != "" && c.SemesterID != filter.SemesterID {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.courses, id)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	rows    map[string]*model.Enrollment // key: course|student
	courses *mockCourseRepo
	users   *mockUserRepo
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{rows: make(map[string]*model.Enrollment)}
}

func enrollmentKey(courseID, studentID string) string { return courseID + "|" + studentID }

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	key := enrollmentKey(e.CourseID, e.StudentID)
	if _, ok := m.rows[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if e.EnrollmentID == "" {
		e.EnrollmentID = nextID("enr")
	}
	m.rows[key] = e
	return nil
}

func (m *mockEnrollmentRepo) Get(_ context.Context, courseID, studentID string) (*model.Enrollment, error) {
	if e, ok := m.rows[enrollmentKey(courseID, studentID)]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) UpdateStatus(_ context.Context, enrollmentID, status, _ string) error {
	for _, e := range m.rows {
		if e.EnrollmentID == enrollmentID {
			e.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) active(match func(e *model.Enrollment) bool) []model.Enrollment {
	var out []model.Enrollment
	for _, e := range m.rows {
		if e.Status != model.EnrollmentActive || !match(e) {
			continue
		}
		row := *e
		if m.courses != nil {
			row.Course = m.courses.courses[e.CourseID]
		}
		if m.users != nil {
			row.Student = m.users.users[e.StudentID]
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out
}

func (m *mockEnrollmentRepo) ListActiveByCourse(_ context.Context, courseID string) ([]model.Enrollment, error) {
	return m.active(func(e *model.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (m *mockEnrollmentRepo) ListActiveStudentIDs(_ context.Context, courseID string) ([]string, error) {
	var ids []string
	for _, e := range m.active(func(e *model.Enrollment) bool { return e.CourseID == courseID }) {
		ids = append(ids, e.StudentID)
	}
	return ids, nil
}

func (m *mockEnrollmentRepo) ListActiveByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	return m.active(func(e *model.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (m *mockEnrollmentRepo) IsActive(_ context.Context, courseID, studentID string) (bool, error) {
	e, ok := m.rows[enrollmentKey(courseID, studentID)]
	return ok && e.Status == model.EnrollmentActive, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]model.AttendanceRecord // key: student|course|date
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]model.AttendanceRecord)}
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, records []model.AttendanceRecord) error {
	for _, r := range records {
		key := r.StudentID + "|" + r.CourseID + "|" + time.Time(r.Date).Format(dateLayout)
		if old, ok := m.records[key]; ok {
			r.AttendanceID = old.AttendanceID
		} else {
			r.AttendanceID = nextID("att")
		}
		m.records[key] = r
	}
	return nil
}

func (m *mockAttendanceRepo) filter(match func(r model.AttendanceRecord) bool) []model.AttendanceRecord {
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := time.Time(out[i].Date), time.Time(out[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

func (m *mockAttendanceRepo) ListByCourse(_ context.Context, courseID string, date *time.Time) ([]model.AttendanceRecord, error) {
	return m.filter(func(r model.AttendanceRecord) bool {
		if r.CourseID != courseID {
			return false
		}
		return date == nil || time.Time(r.Date).Format(dateLayout) == date.Format(dateLayout)
	}), nil
}

func (m *mockAttendanceRepo) ListByStudent(_ context.Context, studentID string) ([]model.AttendanceRecord, error) {
	return m.filter(func(r model.AttendanceRecord) bool { return r.StudentID == studentID }), nil
}

func (m *mockAttendanceRepo) ListByStudentAndCourse(_ context.Context, studentID, courseID string) ([]model.AttendanceRecord, error) {
	return m.filter(func(r model.AttendanceRecord) bool {
		return r.StudentID == studentID && r.CourseID == courseID
	}), nil
}

func attendanceDate(s string) datatypes.Date {
	t, _ := time.Parse(dateLayout, s)
	return datatypes.Date(t)
}

// ── Mock GradeRepository ──

type mockGradeRepo struct {
	records []*model.GradeRecord
	courses map[string]*model.Course
}

func newMockGradeRepo() *mockGradeRepo {
	return &mockGradeRepo{courses: make(map[string]*model.Course)}
}

func (m *mockGradeRepo) Upsert(_ context.Context, record *model.GradeRecord) error {
	for _, r := range m.records {
		if r.StudentID == record.StudentID && r.CourseID == record.CourseID &&
			r.SemesterID == record.SemesterID && r.AssignmentID == record.AssignmentID {
			r.LetterGrade = record.LetterGrade
			r.Remark = record.Remark
			r.GradedBy = record.GradedBy
			record.GradeID = r.GradeID
			return nil
		}
	}
	if record.GradeID == "" {
		record.GradeID = nextID("grade")
	}
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockGradeRepo) ListByStudent(_ context.Context, studentID, semesterID string) ([]model.GradeRecord, error) {
	var out []model.GradeRecord
	for _, r := range m.records {
		if r.StudentID != studentID || (semesterID != "" && r.SemesterID != semesterID) {
			continue
		}
		row := *r
		row.Course = m.courses[r.CourseID]
		out = append(out, row)
	}
	return out, nil
}

func (m *mockGradeRepo) ListByCourse(_ context.Context, courseID string) ([]model.GradeRecord, error) {
	var out []model.GradeRecord
	for _, r := range m.records {
		if r.CourseID == courseID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ── Mock AssignmentRepository / SubmissionRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.Assignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	if a.AssignmentID == "" {
		a.AssignmentID = nextID("asg")
	}
	m.assignments[a.AssignmentID] = a
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.Assignment, error) {
	var out []model.Assignment
	for _, a := range m.assignments {
		if a.CourseID == courseID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, a *model.Assignment) error {
	m.assignments[a.AssignmentID] = a
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.assignments, id)
	return nil
}

type mockSubmissionRepo struct {
	subs map[string]*model.Submission // key: assignment|student
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{subs: make(map[string]*model.Submission)}
}

func (m *mockSubmissionRepo) Upsert(_ context.Context, s *model.Submission) error {
	key := s.AssignmentID + "|" + s.StudentID
	if old, ok := m.subs[key]; ok {
		s.SubmissionID = old.SubmissionID
	} else if s.SubmissionID == "" {
		s.SubmissionID = nextID("sub")
	}
	m.subs[key] = s
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	for _, s := range m.subs {
		if s.SubmissionID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) Get(_ context.Context, assignmentID, studentID string) (*model.Submission, error) {
	if s, ok := m.subs[assignmentID+"|"+studentID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) ListByAssignment(_ context.Context, assignmentID string) ([]model.Submission, error) {
	var out []model.Submission
	for _, s := range m.subs {
		if s.AssignmentID == assignmentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) SetGrade(_ context.Context, s *model.Submission) error {
	m.subs[s.AssignmentID+"|"+s.StudentID] = s
	return nil
}

// ── Mock ForumRepository ──

type mockForumRepo struct {
	posts   map[string]*model.ForumPost
	replies []model.ForumReply
}

func newMockForumRepo() *mockForumRepo {
	return &mockForumRepo{posts: make(map[string]*model.ForumPost)}
}

func (m *mockForumRepo) CreatePost(_ context.Context, post *model.ForumPost) error {
	if post.PostID == "" {
		post.PostID = nextID("post")
	}
	m.posts[post.PostID] = post
	return nil
}

func (m *mockForumRepo) GetPost(_ context.Context, postID string, withReplies bool) (*model.ForumPost, error) {
	p, ok := m.posts[postID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	if withReplies {
		for _, r := range m.replies {
			if r.PostID == postID {
				cp.Replies = append(cp.Replies, r)
			}
		}
	}
	return &cp, nil
}

func (m *mockForumRepo) ListPosts(_ context.Context, courseID string, offset, limit int) ([]model.ForumPost, int64, error) {
	var all []model.ForumPost
	for _, p := range m.posts {
		if p.CourseID == courseID {
			all = append(all, *p)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockForumRepo) DeletePost(_ context.Context, postID string, _ string) error {
	delete(m.posts, postID)
	return nil
}

func (m *mockForumRepo) CreateReply(_ context.Context, reply *model.ForumReply) error {
	if reply.ReplyID == "" {
		reply.ReplyID = nextID("reply")
	}
	m.replies = append(m.replies, *reply)
	return nil
}

// ── Mock LeaveRepository / ComplaintRepository ──

type mockLeaveRepo struct {
	leaves map[string]*model.LeaveRequest
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*model.LeaveRequest)}
}

func (m *mockLeaveRepo) Create(_ context.Context, leave *model.LeaveRequest) error {
	if leave.LeaveID == "" {
		leave.LeaveID = nextID("leave")
	}
	cp := *leave
	m.leaves[leave.LeaveID] = &cp
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.LeaveRequest, error) {
	if l, ok := m.leaves[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) ListByStudent(_ context.Context, studentID string) ([]model.LeaveRequest, error) {
	var out []model.LeaveRequest
	for _, l := range m.leaves {
		if l.StudentID == studentID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLeaveRepo) ListPending(_ context.Context) ([]model.LeaveRequest, error) {
	var out []model.LeaveRequest
	for _, l := range m.leaves {
		if l.Status == model.LeavePending {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLeaveRepo) Review(_ context.Context, leave *model.LeaveRequest) (bool, error) {
	stored, ok := m.leaves[leave.LeaveID]
	if !ok || stored.Status != model.LeavePending {
		return false, nil
	}
	cp := *leave
	m.leaves[leave.LeaveID] = &cp
	return true, nil
}

type mockComplaintRepo struct {
	complaints map[string]*model.Complaint
}

func newMockComplaintRepo() *mockComplaintRepo {
	return &mockComplaintRepo{complaints: make(map[string]*model.Complaint)}
}

func (m *mockComplaintRepo) Create(_ context.Context, c *model.Complaint) error {
	if c.ComplaintID == "" {
		c.ComplaintID = nextID("cmp")
	}
	cp := *c
	m.complaints[c.ComplaintID] = &cp
	return nil
}

func (m *mockComplaintRepo) GetByID(_ context.Context, id string) (*model.Complaint, error) {
	if c, ok := m.complaints[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockComplaintRepo) ListByAuthor(_ context.Context, authorID string) ([]model.Complaint, error) {
	var out []model.Complaint
	for _, c := range m.complaints {
		if c.AuthorID == authorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockComplaintRepo) List(_ context.Context, status string, offset, limit int) ([]model.Complaint, int64, error) {
	var all []model.Complaint
	for _, c := range m.complaints {
		if status == "" || c.Status == status {
			all = append(all, *c)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockComplaintRepo) Resolve(_ context.Context, c *model.Complaint) (bool, error) {
	stored, ok := m.complaints[c.ComplaintID]
	if !ok || stored.Status != model.ComplaintOpen {
		return false, nil
	}
	cp := *c
	m.complaints[c.ComplaintID] = &cp
	return true, nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	entries []model.TimetableEntry
	courses *mockCourseRepo
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{}
}

func (m *mockTimetableRepo) Create(_ context.Context, entry *model.TimetableEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = nextID("tt")
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.TimetableEntry, error) {
	for i := range m.entries {
		if m.entries[i].EntryID == id {
			cp := m.entries[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) Delete(_ context.Context, id string) error {
	out := m.entries[:0]
	for _, e := range m.entries {
		if e.EntryID != id {
			out = append(out, e)
		}
	}
	m.entries = out
	return nil
}

func (m *mockTimetableRepo) ListByCourse(_ context.Context, courseID string) ([]model.TimetableEntry, error) {
	return m.ListByCourses(context.Background(), []string{courseID})
}

func (m *mockTimetableRepo) ListByCourses(_ context.Context, courseIDs []string) ([]model.TimetableEntry, error) {
	want := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	var out []model.TimetableEntry
	for _, e := range m.entries {
		if !want[e.CourseID] {
			continue
		}
		if m.courses != nil {
			e.Course = m.courses.courses[e.CourseID]
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *mockTimetableRepo) ReplaceImported(_ context.Context, courseID string, entries []model.TimetableEntry) error {
	out := m.entries[:0]
	for _, e := range m.entries {
		if e.CourseID == courseID && e.Source == model.TimetableSourceICS {
			continue
		}
		out = append(out, e)
	}
	m.entries = out
	for _, e := range entries {
		if e.EntryID == "" {
			e.EntryID = nextID("tt")
		}
		m.entries = append(m.entries, e)
	}
	return nil
}

// ── Mock LeaderboardRepository ──

type mockLeaderboardRepo struct {
	boards  map[string]*model.Leaderboard // key: year-month
	entries []model.LeaderboardEntry
}

func newMockLeaderboardRepo() *mockLeaderboardRepo {
	return &mockLeaderboardRepo{boards: make(map[string]*model.Leaderboard)}
}

func periodKey(month, year int) string { return fmt.Sprintf("%04d-%02d", year, month) }

func (m *mockLeaderboardRepo) CreateIfAbsent(_ context.Context, board *model.Leaderboard) (bool, error) {
	key := periodKey(board.Month, board.Year)
	if _, ok := m.boards[key]; ok {
		return false, nil
	}
	if board.LeaderboardID == "" {
		board.LeaderboardID = nextID("lb")
	}
	cp := *board
	m.boards[key] = &cp
	return true, nil
}

func (m *mockLeaderboardRepo) CreateEntries(_ context.Context, entries []model.LeaderboardEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockLeaderboardRepo) GetByPeriod(_ context.Context, month, year int) (*model.Leaderboard, error) {
	b, ok := m.boards[periodKey(month, year)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	cp.Entries = nil
	for _, e := range m.entries {
		if e.LeaderboardID == b.LeaderboardID {
			cp.Entries = append(cp.Entries, e)
		}
	}
	sort.Slice(cp.Entries, func(i, j int) bool { return cp.Entries[i].Position < cp.Entries[j].Position })
	return &cp, nil
}

func (m *mockLeaderboardRepo) List(_ context.Context, offset, limit int) ([]model.Leaderboard, int64, error) {
	var all []model.Leaderboard
	for _, b := range m.boards {
		all = append(all, *b)
	}
	sort.Slice(all, func(i, j int) bool {
		return periodKey(all[i].Month, all[i].Year) > periodKey(all[j].Month, all[j].Year)
	})
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []*model.Notification
	err   error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.err != nil {
		return m.err
	}
	if n.NotificationID == "" {
		n.NotificationID = nextID("ntf")
	}
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) List(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			all = append(all, *n)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) (int64, error) {
	for _, n := range m.items {
		if n.NotificationID == notificationID && n.UserID == userID {
			n.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

// ── Mock ChatRepository ──

type mockChatRepo struct {
	messages []*model.ChatMessage
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{}
}

func (m *mockChatRepo) Create(_ context.Context, msg *model.ChatMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = nextID("msg")
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockChatRepo) Conversation(_ context.Context, userA, userB string, offset, limit int) ([]model.ChatMessage, int64, error) {
	var all []model.ChatMessage
	for _, msg := range m.messages {
		if (msg.SenderID == userA && msg.RecipientID == userB) || (msg.SenderID == userB && msg.RecipientID == userA) {
			all = append(all, *msg)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockChatRepo) MarkRead(_ context.Context, senderID, recipientID string) (int64, error) {
	now := time.Now()
	var count int64
	for _, msg := range m.messages {
		if msg.SenderID == senderID && msg.RecipientID == recipientID && msg.ReadAt == nil {
			msg.ReadAt = &now
			count++
		}
	}
	return count, nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	cfg *model.SystemConfig
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{}
}

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	if m.cfg == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.cfg
	return &cp, nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	cp := *cfg
	m.cfg = &cp
	return nil
}
