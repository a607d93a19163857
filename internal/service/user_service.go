package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"school-portal/backend/internal/dto"
	"school-portal/backend/internal/model"
	"school-portal/backend/internal/repository"
	pkgerrors "school-portal/backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrUserSelfRoleChange = errors.New("不能修改自己的角色")
	ErrUserSelfDelete     = errors.New("不能删除自己")
	ErrDepartmentNotFound = errors.New("院系不存在")
)

// UserService 用户业务接口
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID, callerRole string) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	// GetCredits 绩效积分余额：本人或管理员可查
	GetCredits(ctx context.Context, id string, callerID, callerRole string) (*dto.CreditsResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row            int
	Name           string
	Username       string
	Email          string
	Role           string
	DepartmentCode string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var deptID *string
	if req.DepartmentID != "" {
		if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
			return nil, err
		}
		deptID = &req.DepartmentID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		DepartmentID: deptID,
	}
	user.CreatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsDuplicateKey(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	// 重新加载以获取院系关联
	return s.GetByID(ctx, user.UserID)
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Keyword:      req.Keyword,
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID, callerRole string) (*dto.UserResponse, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 非管理员只能修改自己的姓名和邮箱
	if callerRole != model.RoleAdmin {
		if callerID != id || req.Role != nil || req.DepartmentID != nil {
			return nil, ErrNoPermission
		}
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil && *req.Role != user.Role {
		if id == callerID {
			return nil, ErrUserSelfRoleChange
		}
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		if err := s.ensureDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = req.DepartmentID
	}

	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}
	if _, err := s.loadUser(ctx, id); err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 生成 8 位随机密码（保证包含字母和数字）
	tempPassword, err := generateTempPassword(8)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── GetCredits ──────────────────────

func (s *userService) GetCredits(ctx context.Context, id string, callerID, callerRole string) (*dto.CreditsResponse, error) {
	if callerRole != model.RoleAdmin && callerID != id {
		return nil, ErrNoPermission
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CreditsResponse{
		UserID:             user.UserID,
		Name:               user.Name,
		PerformanceCredits: user.PerformanceCredits,
	}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（姓名/用户名/邮箱/角色）")
)

// ParseImportFile 解析导入 Excel 文件，院系列可选
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseHeaderIndex(excelRows[0])
	if col["name"] < 0 || col["username"] < 0 || col["email"] < 0 || col["role"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		idx := col[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		item := ImportUserRow{
			Row:            i + 1,
			Name:           cell(excelRows[i], "name"),
			Username:       cell(excelRows[i], "username"),
			Email:          cell(excelRows[i], "email"),
			Role:           strings.ToLower(cell(excelRows[i], "role")),
			DepartmentCode: cell(excelRows[i], "department"),
		}
		if item.Name == "" && item.Username == "" && item.Email == "" && item.Role == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 表头列名 → 列索引，支持中英文与任意列序
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"name": -1, "username": -1, "email": -1, "role": -1, "department": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "姓名", "name":
			idx["name"] = i
		case "用户名", "username":
			idx["username"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "角色", "role":
			idx["role"] = i
		case "院系", "院系代码", "department":
			idx["department"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	deptByCode, err := s.buildDepartmentMap(ctx)
	if err != nil {
		s.logger.Error("加载院系列表失败", zap.Error(err))
		return nil, err
	}

	// 第一阶段：逐行校验，不写库
	type validatedRow struct {
		user     *model.User
		row      int
		password string
	}
	var valid []validatedRow
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row.Name == "" || row.Username == "" || row.Email == "" || row.Role == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if row.Role != model.RoleAdmin && row.Role != model.RoleTeacher && row.Role != model.RoleStudent {
			fail(row.Row, fmt.Sprintf("角色无效: %s", row.Role))
			continue
		}
		if seen[row.Username] {
			fail(row.Row, fmt.Sprintf("文件内用户名重复: %s", row.Username))
			continue
		}
		if _, err := s.repo.User.GetByUsername(ctx, row.Username); err == nil {
			fail(row.Row, fmt.Sprintf("用户名已存在: %s", row.Username))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		var deptID *string
		if row.DepartmentCode != "" {
			dept, ok := deptByCode[row.DepartmentCode]
			if !ok {
				fail(row.Row, fmt.Sprintf("院系不存在: %s", row.DepartmentCode))
				continue
			}
			deptID = &dept.DepartmentID
		}

		password, err := generateTempPassword(8)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		user := &model.User{
			Name:               row.Name,
			Username:           row.Username,
			Email:              row.Email,
			PasswordHash:       string(hash),
			Role:               row.Role,
			DepartmentID:       deptID,
			MustChangePassword: true,
		}
		user.CreatedBy = &callerID

		seen[row.Username] = true
		valid = append(valid, validatedRow{user: user, row: row.Row, password: password})
	}

	if len(valid) == 0 {
		return resp, nil
	}

	// 第二阶段：事务内批量写入，任一失败整体回滚
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for _, v := range valid {
			if err := txRepo.User.Create(ctx, v.user); err != nil {
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", v.row, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入用户失败，事务回滚", zap.Error(err))
		return nil, err
	}

	for _, v := range valid {
		resp.Success++
		resp.Accounts = append(resp.Accounts, dto.ImportedAccount{
			Row:          v.row,
			Username:     v.user.Username,
			TempPassword: v.password,
		})
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *userService) loadUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) ensureDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return err
	}
	return nil
}

// buildDepartmentMap 院系代码 → 院系实体
func (s *userService) buildDepartmentMap(ctx context.Context) (map[string]*model.Department, error) {
	departments, err := s.repo.Department.List(ctx, false)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Department, len(departments))
	for i := range departments {
		m[departments[i].Code] = &departments[i]
	}
	return m, nil
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
