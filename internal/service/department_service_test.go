package service

import (
	"context"
	"errors"
	"testing"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
)

func setupTestDepartmentService() (DepartmentService, *testRepos) {
	repos := newTestRepos()
	return NewDepartmentService(repos.Repository, testLogger()), repos
}

func TestDepartmentService_Create_Success(t *testing.T) {
	svc, _ := setupTestDepartmentService()

	result, err := svc.Create(context.Background(), &dto.CreateDepartmentRequest{
		Code: "MATH", Name: "数学学院", Description: "数学与统计",
	}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Code != "MATH" || result.Name != "数学学院" {
		t.Errorf("返回院系不符: %+v", result)
	}
	if !result.IsActive {
		t.Error("期望默认 IsActive=true")
	}
}

func TestDepartmentService_Create_CodeExists(t *testing.T) {
	svc, _ := setupTestDepartmentService()

	_, err := svc.Create(context.Background(), &dto.CreateDepartmentRequest{Code: "CS", Name: "重复学院"}, "admin-001")
	if !errors.Is(err, ErrDepartmentCodeExists) {
		t.Errorf("期望 ErrDepartmentCodeExists，实际: %v", err)
	}
}

func TestDepartmentService_GetByID_MemberCount(t *testing.T) {
	svc, repos := setupTestDepartmentService()
	dept := "dept-cs"
	repos.seedUser("s1", "s1", model.RoleStudent).DepartmentID = &dept
	repos.seedUser("s2", "s2", model.RoleStudent).DepartmentID = &dept

	result, err := svc.GetByID(context.Background(), "dept-cs")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if result.MemberCount != 2 {
		t.Errorf("期望 MemberCount=2，实际=%d", result.MemberCount)
	}
}

func TestDepartmentService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestDepartmentService()

	if _, err := svc.GetByID(context.Background(), "nope"); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("期望 ErrDepartmentNotFound，实际: %v", err)
	}
}

func TestDepartmentService_Update(t *testing.T) {
	svc, _ := setupTestDepartmentService()
	name := "计算机科学与技术学院"
	inactive := false

	result, err := svc.Update(context.Background(), "dept-cs", &dto.UpdateDepartmentRequest{Name: &name, IsActive: &inactive}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != name || result.IsActive {
		t.Errorf("更新结果不符: %+v", result)
	}
}

func TestDepartmentService_List_ExcludesInactive(t *testing.T) {
	svc, repos := setupTestDepartmentService()
	repos.departments.depts["dept-old"] = &model.Department{DepartmentID: "dept-old", Code: "OLD", Name: "旧学院"}

	active, err := svc.List(context.Background(), &dto.DepartmentListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("默认只返回启用院系，期望 1，实际=%d", len(active))
	}

	all, _ := svc.List(context.Background(), &dto.DepartmentListRequest{IncludeInactive: true})
	if len(all) != 2 {
		t.Errorf("包含停用院系时期望 2，实际=%d", len(all))
	}
}

func TestDepartmentService_Delete_HasMembers(t *testing.T) {
	svc, repos := setupTestDepartmentService()
	dept := "dept-cs"
	repos.seedUser("s1", "s1", model.RoleStudent).DepartmentID = &dept

	if err := svc.Delete(context.Background(), "dept-cs", "admin-001"); !errors.Is(err, ErrDepartmentHasMembers) {
		t.Errorf("期望 ErrDepartmentHasMembers，实际: %v", err)
	}

	delete(repos.users.users, "s1")
	if err := svc.Delete(context.Background(), "dept-cs", "admin-001"); err != nil {
		t.Errorf("无成员时删除应成功: %v", err)
	}
}
