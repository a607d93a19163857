package academics

import "fmt"

const (
	topCredits  = 100
	creditsStep = 20
)

// Period 排行榜周期（月 + 年）
type Period struct {
	Month int
	Year  int
}

// String 例如 2026-03
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// RankedStudent 已排好序的上榜学生
type RankedStudent struct {
	StudentID string
	Name      string
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Credits   int    `json:"credits"`
}

// CreditIncrement 积分增量（调用方以原子自增方式写入）
type CreditIncrement struct {
	StudentID string
	Delta     int
}

// AssignCredits 按输入顺序分配名次与积分
//
// position = index + 1，credits = 100 - index*20，线性且无下限：
// 100, 80, 60, 40, 20, 0, -20 …；输入顺序即平局裁决。
func AssignCredits(students []RankedStudent) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(students))
	for i, s := range students {
		entries = append(entries, LeaderboardEntry{
			StudentID: s.StudentID,
			Name:      s.Name,
			Position:  i + 1,
			Credits:   topCredits - i*creditsStep,
		})
	}
	return entries
}

// PublicationPlan 一次排行榜发布需要执行的全部副作用
type PublicationPlan struct {
	Entries       []LeaderboardEntry
	Increments    []CreditIncrement
	Notifications []NotificationIntent
}

// PlanPublication 计算排行榜发布计划
//
// 调用前必须已对周期键完成"不存在则插入"，同一周期只能执行一次。
// 积分余额只增不减：credits ≤ 0 的名次不产生增量，条目仍保留原值。
// departmentPeers 中未上榜的成员各收到一条 info 通知。
func PlanPublication(period Period, ranked []RankedStudent, departmentPeers []string) PublicationPlan {
	entries := AssignCredits(ranked)
	plan := PublicationPlan{Entries: entries}

	listed := make(map[string]bool, len(entries))
	for _, e := range entries {
		listed[e.StudentID] = true
		if e.Credits > 0 {
			plan.Increments = append(plan.Increments, CreditIncrement{StudentID: e.StudentID, Delta: e.Credits})
		}
		plan.Notifications = append(plan.Notifications, NotificationIntent{
			Recipient: e.StudentID,
			Type:      NotifyLeaderboard,
			Title:     fmt.Sprintf("%s 月度排行榜", period),
			Message:   fmt.Sprintf("恭喜！你在 %s 月度排行榜中排名第 %d，获得 %d 积分", period, e.Position, e.Credits),
			Severity:  SeveritySuccess,
			Payload: map[string]interface{}{
				"period":   period.String(),
				"position": e.Position,
				"credits":  e.Credits,
			},
		})
	}

	seen := make(map[string]bool, len(departmentPeers))
	for _, peer := range departmentPeers {
		if listed[peer] || seen[peer] {
			continue
		}
		seen[peer] = true
		plan.Notifications = append(plan.Notifications, NotificationIntent{
			Recipient: peer,
			Type:      NotifyLeaderboard,
			Title:     fmt.Sprintf("%s 月度排行榜", period),
			Message:   fmt.Sprintf("%s 月度排行榜已发布，继续加油！", period),
			Severity:  SeverityInfo,
			Payload:   map[string]interface{}{"period": period.String()},
		})
	}

	return plan
}

// AttendanceWarning 出勤率低于阈值时生成 warning 通知
func AttendanceWarning(studentID, courseName string, ca CourseAttendance, threshold float64) (NotificationIntent, bool) {
	if ca.Total == 0 || ca.Percentage >= threshold {
		return NotificationIntent{}, false
	}
	return NotificationIntent{
		Recipient: studentID,
		Type:      NotifyAttendance,
		Title:     "出勤预警",
		Message:   fmt.Sprintf("课程 %s 出勤率为 %.1f%%，低于 %.0f%% 的要求", courseName, ca.Percentage, threshold),
		Severity:  SeverityWarning,
	}, true
}
