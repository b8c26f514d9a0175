package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "下書き", StatusLabel(StatusDraft))
	assert.Equal(t, "提出済み", StatusLabel(StatusSubmitted))
	assert.Equal(t, "承認済み", StatusLabel(StatusApproved))
	assert.Equal(t, "差戻し", StatusLabel(StatusReturned))
	assert.Equal(t, "取り下げ", StatusLabel(StatusWithdrawn))
	assert.Equal(t, "却下", StatusLabel(StatusRejected))

	// Unknown codes pass through instead of erroring.
	assert.Equal(t, "UNKNOWN_FUTURE", StatusLabel(Status("UNKNOWN_FUTURE")))
	assert.Equal(t, "", StatusLabel(Status("")))
}

func TestActionLabel(t *testing.T) {
	assert.Equal(t, "提出", ActionLabel(ActionSubmit))
	assert.Equal(t, "承認", ActionLabel(ActionApprove))
	assert.Equal(t, "差戻し", ActionLabel(ActionReturn))
	assert.Equal(t, "取り下げ", ActionLabel(ActionWithdraw))
	assert.Equal(t, "却下", ActionLabel(ActionReject))
	assert.Equal(t, "NUDGE", ActionLabel(Action("NUDGE")))
}

func TestRequestLabel(t *testing.T) {
	assert.Equal(t, "REQ-001", RequestLabel(1))
	assert.Equal(t, "REQ-042", RequestLabel(42))
	assert.Equal(t, "REQ-1000", RequestLabel(1000))
	assert.Equal(t, "0", RequestLabel(0))
	assert.Equal(t, "-5", RequestLabel(-5))
}

func TestRequestLabelString(t *testing.T) {
	assert.Equal(t, "REQ-007", RequestLabelString("7"))
	assert.Equal(t, "", RequestLabelString(""))
	assert.Equal(t, "abc", RequestLabelString("abc"))
	assert.Equal(t, "0", RequestLabelString("0"))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, int64(1200), ParseAmount("1200"))
	assert.Equal(t, int64(1200), ParseAmount(" 1200 "))
	assert.Equal(t, int64(1200), ParseAmount("1200.75"), "fractional yen truncate")
	assert.Equal(t, int64(0), ParseAmount(""))
	assert.Equal(t, int64(0), ParseAmount("abc"))
	assert.Equal(t, int64(0), ParseAmount("12oo"))
	assert.Equal(t, int64(0), ParseAmount("-300"), "amounts are non-negative at rest")
}

func TestFormatYen(t *testing.T) {
	assert.Equal(t, "¥0", FormatYen(0))
	assert.Equal(t, "¥300", FormatYen(300))
	assert.Equal(t, "¥1,200", FormatYen(1200))
	assert.Equal(t, "¥1,234,567", FormatYen(1234567))
}

func TestBadgeClass(t *testing.T) {
	assert.Equal(t, "badge badge-draft", BadgeClass(StatusDraft))
	assert.Equal(t, "badge badge-returned", BadgeClass(StatusReturned))
	assert.Equal(t, "badge", BadgeClass(Status("UNKNOWN_FUTURE")))
}
