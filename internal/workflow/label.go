package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// statusLabels maps internal status codes to the Japanese display labels.
// Unknown codes pass through unchanged so a server-added status never breaks
// rendering.
var statusLabels = map[Status]string{
	StatusDraft:     "下書き",
	StatusSubmitted: "提出済み",
	StatusApproved:  "承認済み",
	StatusReturned:  "差戻し",
	StatusWithdrawn: "取り下げ",
	StatusRejected:  "却下",
}

var actionLabels = map[Action]string{
	ActionSubmit:   "提出",
	ActionApprove:  "承認",
	ActionReturn:   "差戻し",
	ActionWithdraw: "取り下げ",
	ActionReject:   "却下",
}

// StatusLabel returns the display label for a status code.
func StatusLabel(s Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ActionLabel returns the display label for an action code.
func ActionLabel(a Action) string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

// BadgeClass returns the CSS badge class for a status, falling back to the
// bare badge for unknown codes.
func BadgeClass(s Status) string {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusReturned, StatusWithdrawn, StatusRejected:
		return "badge badge-" + strings.ToLower(string(s))
	}
	return "badge"
}

// RequestLabel formats a numeric id as a zero-padded display id (1 → REQ-001).
// Non-positive ids echo back their plain string form instead of erroring.
func RequestLabel(id int64) string {
	if id <= 0 {
		return strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("REQ-%03d", id)
}

// RequestLabelString is RequestLabel for ids still in URL-param form. Empty
// input renders empty, non-numeric input echoes back unchanged.
func RequestLabelString(id string) string {
	if id == "" {
		return ""
	}
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return id
	}
	return RequestLabel(n)
}

// ParseAmount coerces free-text amount input to a non-negative integer.
// Unparseable input and negative values become 0 so a save never fails on
// the amount field.
func ParseAmount(text string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	n := d.IntPart()
	if n < 0 {
		return 0
	}
	return n
}

// FormatYen renders an amount as ¥1,200 with thousands grouping.
func FormatYen(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "¥" + sign + b.String()
}
