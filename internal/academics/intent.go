package academics

// Severity 通知级别
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// 通知类型（与 notifications.type 列取值一致）
const (
	NotifyLeaderboard = "leaderboard"
	NotifyAttendance  = "attendance"
	NotifyGrade       = "grade"
	NotifyAssignment  = "assignment"
	NotifyForum       = "forum"
	NotifyLeave       = "leave"
	NotifyComplaint   = "complaint"
)

// NotificationIntent 通知意图
// 引擎只描述"通知谁、说什么、什么级别"，投递由调用方执行。
type NotificationIntent struct {
	Recipient string
	Type      string
	Title     string
	Message   string
	Severity  Severity
	Payload   map[string]interface{} // 附加数据，原样写入通知 payload
}
