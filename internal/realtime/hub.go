package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"school-portal/backend/config"
)

// Channel 跨实例广播使用的 Redis 频道
const Channel = "school:realtime"

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultSendBuffer   = 16
	maxReadSize         = 512
	resubscribeDelay    = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 跨域由 HTTP 层 CORS 中间件与反向代理控制
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message 下发给客户端的 JSON 信封
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// envelope 频道内传输的消息，携带目标用户
type envelope struct {
	UserID  string          `json:"user_id"`
	Message json.RawMessage `json:"message"`
}

// Broker 跨实例发布/订阅，*redis.Client 满足该接口
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handle func(payload []byte)) error
}

// Options 连接参数
type Options struct {
	WriteTimeout time.Duration
	PongWait     time.Duration
	SendBuffer   int
}

// OptionsFromConfig 由配置生成连接参数，缺省值兜底
func OptionsFromConfig(cfg *config.RealtimeConfig) Options {
	opts := Options{}
	if cfg != nil {
		opts = Options{WriteTimeout: cfg.WriteTimeout, PongWait: cfg.PongWait, SendBuffer: cfg.SendBuffer}
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return opts
}

// pingPeriod 必须小于 PongWait
func (o Options) pingPeriod() time.Duration {
	return (o.PongWait * 9) / 10
}

// Hub 按用户 ID 划分房间，同一用户可有多条连接
type Hub struct {
	opts   Options
	broker Broker
	logger *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// client 单条 WebSocket 连接
type client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// NewHub 创建 Hub；broker 为 nil 时仅在进程内投递
func NewHub(opts Options, broker Broker, logger *zap.Logger) *Hub {
	return &Hub{
		opts:   opts,
		broker: broker,
		logger: logger,
		rooms:  make(map[string]map[*client]struct{}),
	}
}

// Run 在配置 Broker 时订阅广播频道并投递到本地连接；阻塞直到 ctx 取消，退出时关闭全部连接
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	if h.broker == nil {
		<-ctx.Done()
		return
	}

	for {
		err := h.broker.Subscribe(ctx, Channel, h.handleBroadcast)
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("实时频道订阅中断，稍后重试", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

// Push 向用户房间推送事件。Broker 发布失败时退化为本地投递
func (h *Hub) Push(ctx context.Context, userID, event string, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("序列化实时事件失败: %w", err)
	}

	if h.broker == nil {
		h.deliver(userID, payload)
		return nil
	}

	raw, err := json.Marshal(envelope{UserID: userID, Message: payload})
	if err != nil {
		return fmt.Errorf("序列化广播信封失败: %w", err)
	}
	if err := h.broker.Publish(ctx, Channel, raw); err != nil {
		h.logger.Warn("实时事件广播失败，改为本地投递",
			zap.String("user_id", userID), zap.String("event", event), zap.Error(err))
		h.deliver(userID, payload)
	}
	return nil
}

// ServeWS 升级连接并加入 userID 的房间，阻塞直到连接关闭
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader 已写入错误响应
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.opts.SendBuffer),
	}
	h.register(c)
	defer h.unregister(c)

	go h.writePump(c)
	h.readPump(c)
}

// Online 返回用户当前连接数
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// ── internal ──

func (h *Hub) handleBroadcast(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("丢弃无法解析的广播消息", zap.Error(err))
		return
	}
	h.deliver(env.UserID, env.Message)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("实时连接建立", zap.String("user_id", c.userID), zap.String("conn_id", c.id))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.userID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.userID)
		}
	}
	h.mu.Unlock()
}

// deliver 非阻塞写入各连接的发送缓冲，缓冲已满的慢连接被断开
// 写入期间持有读锁，unregister/closeAll 需要写锁才能关闭 send
func (h *Hub) deliver(userID string, payload []byte) {
	var slow []*client

	h.mu.RLock()
	for c := range h.rooms[userID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("实时连接发送缓冲已满，断开", zap.String("user_id", userID), zap.String("conn_id", c.id))
		h.unregister(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, userID)
	}
}

// writePump 把发送缓冲写到连接，并定期发送 ping
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只处理控制帧（pong / close），用于探测断线
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxReadSize)
	c.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
