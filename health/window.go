package health

import "time"

// probeRecord 一次探测（或实时调用反馈）的结果。
type probeRecord struct {
	at time.Time
	ok bool
}

// probeWindow 有界滚动窗口，保存窗口期内的探测结果，
// 用于在每次更新时重算节点可用率。
type probeWindow struct {
	span    time.Duration
	records []probeRecord

	// now 可在测试中替换
	now func() time.Time
}

func newProbeWindow(span time.Duration) *probeWindow {
	return &probeWindow{span: span, now: time.Now}
}

// add 记录一次结果并修剪窗口外的历史。
func (w *probeWindow) add(ok bool) {
	now := w.now()
	w.records = append(w.records, probeRecord{at: now, ok: ok})

	cutoff := now.Add(-w.span)
	trim := 0
	for trim < len(w.records) && w.records[trim].at.Before(cutoff) {
		trim++
	}
	if trim > 0 {
		w.records = append(w.records[:0], w.records[trim:]...)
	}
}

// uptimePct 返回窗口内成功占比 (0-100)。无历史时视为 100。
func (w *probeWindow) uptimePct() float64 {
	if len(w.records) == 0 {
		return 100.0
	}
	ok := 0
	for _, r := range w.records {
		if r.ok {
			ok++
		}
	}
	return float64(ok) / float64(len(w.records)) * 100.0
}

// size 返回窗口内的记录数。
func (w *probeWindow) size() int {
	return len(w.records)
}
