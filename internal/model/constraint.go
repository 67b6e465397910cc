package model

// BookingType は予約の人数形態を表す。
type BookingType string

const (
	// BookingTypeSingle は1名固定の予約。
	BookingTypeSingle BookingType = "single"
	// BookingTypeMultiple は複数名の予約。
	BookingTypeMultiple BookingType = "multiple"
)

// ParticipationConstraint はイベントごとの参加人数制約を表す。
// booking_typeがsingleの場合、上下限は意味を持たず人数は常に1。
// fixedの場合はupper_limitのみが有効で、人数はその値に一致しなければならない。
type ParticipationConstraint struct {
	ID          int64       `json:"id"`
	Event       int64       `json:"event"`
	BookingType BookingType `json:"booking_type"`
	Fixed       bool        `json:"fixed"`
	LowerLimit  *int        `json:"lower_limit"`
	UpperLimit  *int        `json:"upper_limit"`
}

// ResolveCount は制約から初期人数と人数選択の要否を決定する。
// 制約が未設定（nil）またはsingleの場合は人数1で選択不要。
// multipleかつfixedの場合はupper_limitの人数で選択不要。
// multipleかつ非fixedの場合のみ人数選択が必要となる。
func (c *ParticipationConstraint) ResolveCount() (count int, needsSelection bool) {
	if c == nil || c.BookingType == BookingTypeSingle {
		return 1, false
	}
	if c.Fixed {
		return c.upper(), false
	}
	return 0, true
}

// AllowedCounts は選択可能な人数の一覧を返す。
// [lower_limit, upper_limit]の両端を含む整数列。上下限が未設定の場合は1を補う。
func (c *ParticipationConstraint) AllowedCounts() []int {
	if c == nil {
		return []int{1}
	}
	low := c.lower()
	high := c.upper()
	if high < low {
		high = low
	}
	counts := make([]int, 0, high-low+1)
	for n := low; n <= high; n++ {
		counts = append(counts, n)
	}
	return counts
}

// Allows は指定人数が制約の範囲内かを判定する。
func (c *ParticipationConstraint) Allows(count int) bool {
	if c == nil || c.BookingType == BookingTypeSingle {
		return count == 1
	}
	if c.Fixed {
		return count == c.upper()
	}
	return count >= c.lower() && count <= c.upper()
}

func (c *ParticipationConstraint) lower() int {
	if c.LowerLimit == nil || *c.LowerLimit < 1 {
		return 1
	}
	return *c.LowerLimit
}

func (c *ParticipationConstraint) upper() int {
	if c.UpperLimit == nil || *c.UpperLimit < 1 {
		return 1
	}
	return *c.UpperLimit
}
