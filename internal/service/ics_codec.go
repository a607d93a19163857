package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"school-portal/backend/internal/model"
)

// ── ICS 编解码 ──────────────────────────────────────────────
//
// 解码：VEVENT → 课表条目。DTSTART/DTEND(或 DURATION) 决定星期与时间，
// RRULE/EXDATE 展开为学期周次，同一课程的多个单次事件按
// (名称, 星期, 起止时间, 教室) 合并周次。
// 编码：课表条目 → 每条一个 VEVENT，首周为 DTSTART，
// RRULE 覆盖首周到末周，中间缺的周用 EXDATE 排除。
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	icsProductID    = "-//school-portal//timetable//CN"

	icsUTCLayout   = "20060102T150405Z"
	icsLocalLayout = "20060102T150405"
	icsDateLayout  = "20060102"
	clockLayout    = "15:04"
)

// semesterWindow 学期起止日期，周次以 start 所在日为第 1 周第 1 天
type semesterWindow struct {
	start time.Time
	end   time.Time
}

func (w semesterWindow) totalWeeks() int {
	days := civilDays(w.start, w.end)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

// weekOf 日期所在周次（1-based）；早于学期开始返回 0
func (w semesterWindow) weekOf(t time.Time) int {
	days := civilDays(w.start, t)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

// dateOf 第 week 周星期 dayOfWeek 对应的日期
func (w semesterWindow) dateOf(week, dayOfWeek int) time.Time {
	weekStart := w.start.AddDate(0, 0, (week-1)*7)
	offset := (dayOfWeek - isoWeekday(weekStart.Weekday()) + 7) % 7
	return weekStart.AddDate(0, 0, offset)
}

// icsEvent 解码中间结构
type icsEvent struct {
	Name      string
	DayOfWeek int // 1=周一 … 7=周日
	StartTime string
	EndTime   string
	Room      string
	Weeks     []int
}

// fetchICS 从 URL 获取 ICS 内容，webcal:// 按 https 处理
func fetchICS(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	ctx, cancel := context.WithTimeout(ctx, icsFetchTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}

	return &limitedBody{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		body:   resp.Body,
		cancel: cancel,
	}, nil
}

type limitedBody struct {
	io.Reader
	body   io.Closer
	cancel context.CancelFunc
}

func (b *limitedBody) Close() error {
	defer b.cancel()
	return b.body.Close()
}

// decodeICS 解析 ICS 内容为课程的课表条目（source=ics）
func decodeICS(r io.Reader, courseID string, window semesterWindow, loc *time.Location) ([]model.TimetableEntry, []icsEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	var events []icsEvent
	for _, vevent := range cal.Events() {
		if evt, ok := decodeVEvent(vevent, window, loc); ok {
			events = append(events, evt)
		}
	}
	events = mergeICSEvents(events)

	entries := make([]model.TimetableEntry, 0, len(events))
	for i := range events {
		sort.Ints(events[i].Weeks)
		entries = append(entries, model.TimetableEntry{
			CourseID:  courseID,
			DayOfWeek: events[i].DayOfWeek,
			StartTime: events[i].StartTime,
			EndTime:   events[i].EndTime,
			Room:      events[i].Room,
			Weeks:     model.IntArray(events[i].Weeks),
			Source:    model.TimetableSourceICS,
		})
	}
	return entries, events, nil
}

func decodeVEvent(evt *ics.VEvent, window semesterWindow, loc *time.Location) (icsEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return icsEvent{}, false
	}

	dtStart, err := icsTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return icsEvent{}, false
	}
	dtEnd, err := icsTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		prop := evt.GetProperty(ics.ComponentPropertyDuration)
		if prop == nil {
			return icsEvent{}, false
		}
		d, err := parseICSDuration(prop.Value)
		if err != nil || d <= 0 {
			return icsEvent{}, false
		}
		dtEnd = dtStart.Add(d)
	}

	weeks := expandWeeks(evt, dtStart, window, loc)
	if len(weeks) == 0 {
		return icsEvent{}, false
	}

	room := ""
	if prop := evt.GetProperty(ics.ComponentPropertyLocation); prop != nil {
		room = strings.TrimSpace(prop.Value)
	}

	return icsEvent{
		Name:      strings.TrimSpace(summary.Value),
		DayOfWeek: isoWeekday(dtStart.Weekday()),
		StartTime: dtStart.Format(clockLayout),
		EndTime:   dtEnd.Format(clockLayout),
		Room:      room,
		Weeks:     weeks,
	}, true
}

// expandWeeks 按 RRULE/EXDATE 展开周次；无 RRULE 或非 WEEKLY 规则只取首次发生的周
func expandWeeks(evt *ics.VEvent, dtStart time.Time, window semesterWindow, loc *time.Location) []int {
	total := window.totalWeeks()
	inRange := func(wk int) bool { return wk >= 1 && wk <= total }

	prop := evt.GetProperty(ics.ComponentPropertyRrule)
	rule := recurrence{}
	if prop != nil {
		rule = parseRecurrence(prop.Value)
	}
	if rule.freq != "WEEKLY" {
		if wk := window.weekOf(dtStart); inRange(wk) {
			return []int{wk}
		}
		return nil
	}

	excluded := exdates(evt, loc)
	seen := make(map[int]bool)
	var weeks []int

	occurrence := dtStart
	for n := 0; ; n++ {
		if rule.count > 0 && n >= rule.count {
			break
		}
		if !rule.until.IsZero() && occurrence.After(rule.until) {
			break
		}
		wk := window.weekOf(occurrence)
		if wk > total {
			break
		}
		if inRange(wk) && !excluded[occurrence.Format(icsDateLayout)] && !seen[wk] {
			seen[wk] = true
			weeks = append(weeks, wk)
		}
		occurrence = occurrence.AddDate(0, 0, 7*rule.interval)
	}
	return weeks
}

// recurrence RRULE 中用到的字段
type recurrence struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRecurrence 解析 RRULE 值，如 FREQ=WEEKLY;COUNT=16;INTERVAL=2
func parseRecurrence(value string) recurrence {
	r := recurrence{interval: 1}
	for _, part := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(k) {
		case "FREQ":
			r.freq = strings.ToUpper(v)
		case "INTERVAL":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				r.interval = n
			}
		case "COUNT":
			if n, err := strconv.Atoi(v); err == nil {
				r.count = n
			}
		case "UNTIL":
			if t, err := time.Parse(icsUTCLayout, v); err == nil {
				r.until = t
			} else if t, err := time.Parse(icsDateLayout, v); err == nil {
				// 仅日期的 UNTIL 包含当天
				r.until = t.Add(24*time.Hour - time.Second)
			}
		}
	}
	return r
}

// exdates 事件全部 EXDATE 的本地日期集合（可能多行、单行逗号分隔）
func exdates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	out := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken != string(ics.ComponentPropertyExdate) {
			continue
		}
		for _, v := range strings.Split(prop.Value, ",") {
			if t, err := parseICSValue(strings.TrimSpace(v), "", loc); err == nil {
				out[t.Format(icsDateLayout)] = true
			}
		}
	}
	return out
}

// mergeICSEvents 合并同一课程时段的周次，保持首次出现的顺序
func mergeICSEvents(events []icsEvent) []icsEvent {
	type key struct {
		name, start, end, room string
		day                    int
	}
	index := make(map[key]int)
	var out []icsEvent

	for _, e := range events {
		k := key{name: e.Name, start: e.StartTime, end: e.EndTime, room: e.Room, day: e.DayOfWeek}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, e)
			continue
		}
		have := make(map[int]bool, len(out[i].Weeks))
		for _, w := range out[i].Weeks {
			have[w] = true
		}
		for _, w := range e.Weeks {
			if !have[w] {
				out[i].Weeks = append(out[i].Weeks, w)
			}
		}
	}
	return out
}

// ── 编码 ──

// icsSlot 待导出的课表条目及其课程名
type icsSlot struct {
	entry  model.TimetableEntry
	title  string
	window semesterWindow
}

// encodeICS 渲染 text/calendar 内容
func encodeICS(calName string, slots []icsSlot, loc *time.Location, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(calName)

	for _, slot := range slots {
		weeks := []int(slot.entry.Weeks)
		if len(weeks) == 0 {
			for w := 1; w <= slot.window.totalWeeks(); w++ {
				weeks = append(weeks, w)
			}
		}
		if len(weeks) == 0 {
			continue
		}
		sort.Ints(weeks)

		start, end, err := slotTimes(slot, weeks[0], loc)
		if err != nil {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@school-portal", slot.entry.EntryID))
		event.SetDtStampTime(now)
		event.SetSummary(slot.title)
		if slot.entry.Room != "" {
			event.SetLocation(slot.entry.Room)
		}
		event.SetStartAt(start)
		event.SetEndAt(end)

		first, last := weeks[0], weeks[len(weeks)-1]
		if last == first {
			continue
		}
		event.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", last-first+1))

		have := make(map[int]bool, len(weeks))
		for _, w := range weeks {
			have[w] = true
		}
		for w := first + 1; w < last; w++ {
			if have[w] {
				continue
			}
			skip := start.AddDate(0, 0, (w-first)*7)
			event.AddProperty(ics.ComponentPropertyExdate, skip.UTC().Format(icsUTCLayout))
		}
	}
	return cal.Serialize()
}

// slotTimes 条目在第 week 周的起止时刻
func slotTimes(slot icsSlot, week int, loc *time.Location) (time.Time, time.Time, error) {
	day := slot.window.dateOf(week, slot.entry.DayOfWeek)
	start, err := clockOn(day, slot.entry.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := clockOn(day, slot.entry.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ── 辅助函数 ──

// isoWeekday time.Weekday (0=周日) → ISO 8601 (1=周一 … 7=周日)
func isoWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// civilDays 两个日期之间相差的自然日，只看年月日
func civilDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// clockOn 指定日期上的 HH:MM 时刻
func clockOn(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(clockLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// icsTime 读取事件的日期时间属性并换算到 loc
func icsTime(evt *ics.VEvent, name ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(name)
	if prop == nil {
		return time.Time{}, fmt.Errorf("缺少属性 %s", name)
	}
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}
	return parseICSValue(prop.Value, tzid, loc)
}

// parseICSValue 支持 UTC、带 TZID 的本地时间、浮动时间与纯日期
func parseICSValue(val, tzid string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(icsUTCLayout, val); err == nil {
		return t.In(loc), nil
	}

	src := loc
	if tzid != "" {
		if tz, err := time.LoadLocation(tzid); err == nil {
			src = tz
		}
	}
	for _, layout := range []string{icsLocalLayout, icsDateLayout} {
		if t, err := time.ParseInLocation(layout, val, src); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// parseICSDuration 解析 RFC 5545 DURATION，如 PT1H30M、P1DT2H、P1W
func parseICSDuration(val string) (time.Duration, error) {
	s := strings.ToUpper(strings.TrimSpace(val))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("无效的 DURATION: %s", val)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			inTime = true
			continue
		}
		if num == "" {
			return 0, fmt.Errorf("无效的 DURATION: %s", val)
		}
		n, _ := strconv.Atoi(num)
		num = ""
		switch {
		case r == 'W' && !inTime:
			total += time.Duration(n) * 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			total += time.Duration(n) * 24 * time.Hour
		case r == 'H' && inTime:
			total += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			total += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			total += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("无效的 DURATION: %s", val)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("无效的 DURATION: %s", val)
	}
	return sign * total, nil
}
