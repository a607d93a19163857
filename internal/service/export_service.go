package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-portal/backend/internal/academics"
	"school-portal/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("暂无可导出的记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// GradeReport 学生成绩单：课程、原始绩点、平均等级，末行为总 GPA
	GradeReport(ctx context.Context, studentID string, callerID, callerRole string) (*bytes.Buffer, string, error)
	// AttendanceSheet 课程出勤表：学生 × 日期矩阵，末列为出勤率
	AttendanceSheet(ctx context.Context, courseID string, callerID, callerRole string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// GradeReport
// ═══════════════════════════════════════════════════════════
//
// | 课程代码 | 课程名称 | 各次绩点 | 平均绩点 | 平均等级 |
// 最后一行：总 GPA 与对应等级

func (s *exportService) GradeReport(ctx context.Context, studentID string, callerID, callerRole string) (*bytes.Buffer, string, error) {
	if !canViewStudent(callerID, callerRole, studentID) {
		return nil, "", ErrNoPermission
	}

	student, err := s.repo.User.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	records, err := s.repo.Grade.ListByStudent(ctx, studentID, "")
	if err != nil {
		s.logger.Error("查询学生成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}
	report := buildGradeReport(student, records)

	f := excelize.NewFile()
	defer f.Close()

	sheet := "成绩单"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "C", "C", 28)
	f.SetColWidth(sheet, "D", "E", 12)

	headerStyle, _ := f.NewStyle(headerCellStyle())

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s) 成绩单", report.StudentName, student.Username))
	f.MergeCell(sheet, "A1", "E1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	for i, h := range []string{"课程代码", "课程名称", "各次绩点", "平均绩点", "平均等级"} {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", "E2", headerStyle)

	row := 3
	for _, c := range report.Courses {
		f.SetCellValue(sheet, cell("A", row), c.CourseCode)
		f.SetCellValue(sheet, cell("B", row), c.CourseName)
		f.SetCellValue(sheet, cell("C", row), joinPoints(c.RawPoints))
		f.SetCellValue(sheet, cell("D", row), roundTo(c.Mean, 2))
		f.SetCellValue(sheet, cell("E", row), c.Average)
		row++
	}

	f.SetCellValue(sheet, cell("A", row), "总 GPA")
	f.MergeCell(sheet, cell("A", row), cell("C", row))
	if report.OverallGPA != nil {
		f.SetCellValue(sheet, cell("D", row), roundTo(*report.OverallGPA, 2))
		f.SetCellValue(sheet, cell("E", row), report.OverallLetter)
	}
	f.SetCellStyle(sheet, cell("A", row), cell("E", row), headerStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("成绩单_%s.xlsx", student.Username), nil
}

// ═══════════════════════════════════════════════════════════
// AttendanceSheet
// ═══════════════════════════════════════════════════════════
//
// | 学生 | 2026-03-02 | 2026-03-09 | … | 出勤率 |
// 单元格为出勤状态，无记录为 "-"；出勤率按该学生实际有记录的日期计算

func (s *exportService) AttendanceSheet(ctx context.Context, courseID string, callerID, callerRole string) (*bytes.Buffer, string, error) {
	course, err := authorizeCourseStaff(ctx, s.repo, courseID, callerID, callerRole)
	if err != nil {
		return nil, "", err
	}

	records, err := s.repo.Attendance.ListByCourse(ctx, courseID, nil)
	if err != nil {
		s.logger.Error("查询课程出勤失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	type studentRow struct {
		id, name string
		status   map[string]string
		inputs   []academics.AttendanceRecord
	}
	rows := make(map[string]*studentRow)
	dateSet := make(map[string]bool)

	for _, r := range records {
		day := time.Time(r.Date).Format(dateLayout)
		dateSet[day] = true

		sr, ok := rows[r.StudentID]
		if !ok {
			sr = &studentRow{id: r.StudentID, name: userName(r.Student), status: make(map[string]string)}
			if sr.name == "" {
				sr.name = r.StudentID
			}
			rows[r.StudentID] = sr
		}
		sr.status[day] = r.Status
		sr.inputs = append(sr.inputs, academics.AttendanceRecord{
			StudentID: r.StudentID,
			Course:    r.CourseID,
			Date:      time.Time(r.Date),
			Status:    r.Status,
		})
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	students := make([]*studentRow, 0, len(rows))
	for _, sr := range rows {
		students = append(students, sr)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].name != students[j].name {
			return students[i].name < students[j].name
		}
		return students[i].id < students[j].id
	})

	f := excelize.NewFile()
	defer f.Close()

	sheet := "出勤表"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol := colName(len(dates) + 1)
	f.SetColWidth(sheet, "A", "A", 16)
	f.SetColWidth(sheet, colName(1), lastCol, 12)

	headerStyle, _ := f.NewStyle(headerCellStyle())
	absentStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s %s 出勤表", course.Code, course.Name))
	f.MergeCell(sheet, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	f.SetCellValue(sheet, "A2", "学生")
	for i, d := range dates {
		f.SetCellValue(sheet, cell(colName(i+1), 2), d)
	}
	f.SetCellValue(sheet, cell(lastCol, 2), "出勤率(%)")
	f.SetCellStyle(sheet, "A2", cell(lastCol, 2), headerStyle)

	row := 3
	for _, sr := range students {
		f.SetCellValue(sheet, cell("A", row), sr.name)
		for i, d := range dates {
			c := cell(colName(i+1), row)
			status, ok := sr.status[d]
			if !ok {
				f.SetCellValue(sheet, c, "-")
				continue
			}
			f.SetCellValue(sheet, c, status)
			if status != academics.StatusPresent {
				f.SetCellStyle(sheet, c, c, absentStyle)
			}
		}
		ca := academics.AttendancePercentages(sr.inputs)[courseID]
		f.SetCellValue(sheet, cell(lastCol, row), roundTo(ca.Percentage, 1))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("出勤表_%s.xlsx", course.Code), nil
}

// ── 辅助函数 ──

func headerCellStyle() *excelize.Style {
	return &excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}
}

// colName 0 → A
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func joinPoints(points []float64) string {
	var b bytes.Buffer
	for i, p := range points {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%.1f", p)
	}
	return b.String()
}

func roundTo(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}
