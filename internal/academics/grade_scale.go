package academics

// ── 成绩等级表 ──
//
// 11 档封闭字母表，按绩点从高到低排列；PointToLetter 依赖此顺序。

// GradeStep 单个等级档位
type GradeStep struct {
	Letter string
	Point  float64
}

var gradeScale = []GradeStep{
	{Letter: "A+", Point: 4.3},
	{Letter: "A", Point: 4.0},
	{Letter: "A-", Point: 3.7},
	{Letter: "B+", Point: 3.3},
	{Letter: "B", Point: 3.0},
	{Letter: "B-", Point: 2.7},
	{Letter: "C+", Point: 2.3},
	{Letter: "C", Point: 2.0},
	{Letter: "C-", Point: 1.7},
	{Letter: "D", Point: 1.0},
	{Letter: "F", Point: 0.0},
}

var letterPoints = func() map[string]float64 {
	m := make(map[string]float64, len(gradeScale))
	for _, s := range gradeScale {
		m[s.Letter] = s.Point
	}
	return m
}()

// Scale 返回等级表副本（从高到低）
func Scale() []GradeStep {
	out := make([]GradeStep, len(gradeScale))
	copy(out, gradeScale)
	return out
}

// IsValidLetter 判断是否为字母表中的等级
func IsValidLetter(letter string) bool {
	_, ok := letterPoints[letter]
	return ok
}

// LetterToPoint 字母成绩 → 绩点
//
// 未知等级返回 0.0（按 F 计），不报错。这是固定策略：
// 写入路径由 grade_letter 校验器拦截非法值，这里只保证总能算出结果。
func LetterToPoint(letter string) float64 {
	return letterPoints[letter]
}

// PointToLetter 绩点 → 字母成绩
// 返回阈值 ≤ point 的最高档位；低于 1.0 一律为 F。仅做阈值比较，不做四舍五入。
func PointToLetter(point float64) string {
	for _, s := range gradeScale {
		if point >= s.Point {
			return s.Letter
		}
	}
	return "F"
}
