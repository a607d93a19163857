package service

import (
	"context"
	"errors"
	"testing"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestCourseService() (CourseService, *testRepos) {
	repos := newTestRepos()
	repos.seedUser("tch-1", "tch1", model.RoleTeacher)
	repos.seedUser("stu-1", "stu1", model.RoleStudent)
	repos.seedUser("stu-2", "stu2", model.RoleStudent)
	repos.seedCourse("course-math", "MATH101", "tch-1", springSemester())
	return NewCourseService(repos.Repository, testLogger()), repos
}

func TestCourseService_Create_TeacherMustBeTeacher(t *testing.T) {
	svc, _ := setupTestCourseService()

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Code: "PHY101", Name: "大学物理", DepartmentID: "dept-cs", TeacherID: "stu-1", SemesterID: "sem-2025s",
	}, "admin-1")
	if !errors.Is(err, ErrCourseTeacherInvalid) {
		t.Errorf("期望 ErrCourseTeacherInvalid，实际: %v", err)
	}
}

func TestCourseService_Create_CodeExists(t *testing.T) {
	svc, _ := setupTestCourseService()

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Code: "MATH101", Name: "高等数学", DepartmentID: "dept-cs", TeacherID: "tch-1", SemesterID: "sem-2025s",
	}, "admin-1")
	if !errors.Is(err, ErrCourseCodeExists) {
		t.Errorf("期望 ErrCourseCodeExists，实际: %v", err)
	}
}

func TestCourseService_Enroll_SelfAndDuplicate(t *testing.T) {
	svc, _ := setupTestCourseService()
	ctx := context.Background()

	result, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{}, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("学生自选课应成功: %v", err)
	}
	if result.StudentID != "stu-1" || result.Status != model.EnrollmentActive {
		t.Errorf("选课记录不符: %+v", result)
	}

	if _, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{}, "stu-1", model.RoleStudent); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Errorf("重复选课期望 ErrAlreadyEnrolled，实际: %v", err)
	}
}

func TestCourseService_Enroll_Permissions(t *testing.T) {
	svc, _ := setupTestCourseService()
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{StudentID: "stu-2"}, "stu-1", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生为他人选课期望 ErrNoPermission，实际: %v", err)
	}
	if _, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{StudentID: "stu-2"}, "tch-1", model.RoleTeacher); !errors.Is(err, ErrNoPermission) {
		t.Errorf("教师选课期望 ErrNoPermission，实际: %v", err)
	}
	if _, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{StudentID: "tch-1"}, "admin-1", model.RoleAdmin); !errors.Is(err, ErrStudentInvalid) {
		t.Errorf("为教师选课期望 ErrStudentInvalid，实际: %v", err)
	}
}

func TestCourseService_DropThenReEnroll_ReactivatesRow(t *testing.T) {
	svc, repos := setupTestCourseService()
	ctx := context.Background()

	first, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{StudentID: "stu-1"}, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("管理员选课应成功: %v", err)
	}
	if err := svc.Drop(ctx, "course-math", "stu-1", "stu-1", model.RoleStudent); err != nil {
		t.Fatalf("退课应成功: %v", err)
	}
	if ok, _ := repos.enrollments.IsActive(ctx, "course-math", "stu-1"); ok {
		t.Fatal("退课后不应为 active")
	}

	again, err := svc.Enroll(ctx, "course-math", &dto.EnrollRequest{}, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("重新选课应成功: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("应复用原选课记录，期望 ID=%s，实际=%s", first.ID, again.ID)
	}
	if len(repos.enrollments.rows) != 1 {
		t.Errorf("不应产生新记录，实际记录数=%d", len(repos.enrollments.rows))
	}
}

func TestCourseService_Drop_NotEnrolled(t *testing.T) {
	svc, _ := setupTestCourseService()

	if err := svc.Drop(context.Background(), "course-math", "stu-1", "admin-1", model.RoleAdmin); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("期望 ErrNotEnrolled，实际: %v", err)
	}
}

func TestCourseService_Roster_StaffOnly(t *testing.T) {
	svc, repos := setupTestCourseService()
	ctx := context.Background()
	repos.enroll("course-math", "stu-1")
	repos.enroll("course-math", "stu-2")

	roster, err := svc.Roster(ctx, "course-math", "tch-1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("任课教师查看花名册应成功: %v", err)
	}
	if len(roster) != 2 {
		t.Errorf("期望 2 名学生，实际=%d", len(roster))
	}

	if _, err := svc.Roster(ctx, "course-math", "stu-1", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生查看花名册期望 ErrNoPermission，实际: %v", err)
	}
}

func TestCourseService_MyCourses(t *testing.T) {
	svc, repos := setupTestCourseService()
	ctx := context.Background()
	repos.seedCourse("course-phy", "PHY101", "tch-1", springSemester())
	repos.enroll("course-math", "stu-1")

	studentCourses, err := svc.MyCourses(ctx, "stu-1", model.RoleStudent)
	if err != nil {
		t.Fatalf("MyCourses 应成功: %v", err)
	}
	if len(studentCourses) != 1 || studentCourses[0].Code != "MATH101" {
		t.Errorf("学生应只看到已选课程，实际: %+v", studentCourses)
	}

	teacherCourses, _ := svc.MyCourses(ctx, "tch-1", model.RoleTeacher)
	if len(teacherCourses) != 2 {
		t.Errorf("教师应看到全部任教课程，期望 2，实际=%d", len(teacherCourses))
	}
}
