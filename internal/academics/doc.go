// Package academics 学业指标计算引擎
//
// 纯函数集合：字母成绩 ↔ 绩点换算、按课程聚合成绩、按课程统计出勤率、
// 月度排行榜积分分配。不持有任何存储或推送句柄，输入为调用方已查询好的
// 内存切片，输出为普通 map / slice，由 Service 层负责持久化与通知投递。
package academics
