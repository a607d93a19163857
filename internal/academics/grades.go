package academics

// GradeRecord 成绩记录（聚合输入）
type GradeRecord struct {
	StudentID    string
	Course       string
	Semester     string
	AssignmentID string
	LetterGrade  string
}

// CourseGrade 单门课程的成绩聚合结果
type CourseGrade struct {
	RawPoints []float64 `json:"raw_points"` // 保持输入顺序
	Mean      float64   `json:"mean"`
	Average   string    `json:"average"` // 均值换算回的字母成绩
}

// AggregateGrades 按课程聚合成绩
//
// 同一课程下不同学期、不同作业的成绩合并计算均值，不按学期拆分。
// 课程键只在至少有一条成绩时出现，因此不存在空分组。
func AggregateGrades(records []GradeRecord) map[string]CourseGrade {
	result := make(map[string]CourseGrade)
	for _, r := range records {
		cg := result[r.Course]
		cg.RawPoints = append(cg.RawPoints, LetterToPoint(r.LetterGrade))
		result[r.Course] = cg
	}

	for course, cg := range result {
		cg.Mean = mean(cg.RawPoints)
		cg.Average = PointToLetter(cg.Mean)
		result[course] = cg
	}
	return result
}

// OverallGPA 全部成绩点的算术平均；无成绩时返回 0 与 false
func OverallGPA(records []GradeRecord) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	points := make([]float64, 0, len(records))
	for _, r := range records {
		points = append(points, LetterToPoint(r.LetterGrade))
	}
	return mean(points), true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
