package academics

import "time"

// StatusPresent 唯一计入"出勤"的状态值
const StatusPresent = "present"

// AttendanceRecord 出勤记录（统计输入）
type AttendanceRecord struct {
	StudentID string
	Course    string
	Date      time.Time
	Status    string
}

// CourseAttendance 单门课程出勤统计
type CourseAttendance struct {
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AttendancePercentages 按课程统计出勤率
//
// percentage = present / total * 100，保留完整浮点精度，取整交给展示层。
// 状态严格等于 "present" 才计入出勤，其它任何值（含非法值）只计入总数。
func AttendancePercentages(records []AttendanceRecord) map[string]CourseAttendance {
	result := make(map[string]CourseAttendance)
	for _, r := range records {
		ca := result[r.Course]
		ca.Total++
		if r.Status == StatusPresent {
			ca.Present++
		}
		result[r.Course] = ca
	}

	for course, ca := range result {
		ca.Percentage = float64(ca.Present) / float64(ca.Total) * 100
		result[course] = ca
	}
	return result
}
