// Package realtime 维护按用户分组的 WebSocket 连接，并把通知、私聊等事件
// 推送到目标用户的全部连接。配置 Broker 后事件经 Redis 频道广播，
// 由持有该用户连接的实例完成投递。
package realtime
