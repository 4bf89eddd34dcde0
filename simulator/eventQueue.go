package simulator

import (
	"container/heap"
	"fmt"
)

// eventHeap 实现 container/heap 接口的最小堆
// 排序键为 (Time, Priority, Seq)，保证同一输入序列的重放是确定性的
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // 避免内存泄漏
	*h = old[:n-1]
	return item
}

// EventQueue 按时间排序的事件调度器，持有逻辑时钟
// 单线程使用：事件的执行是同步的，执行过程中可以继续入队，
// 但不允许从事件内部再次进入 ProcessNext/ProcessUntil
type EventQueue struct {
	events     eventHeap
	now        float64 // 逻辑时钟，只随事件执行前进
	seq        uint64
	processed  uint64
	handler    EventHandler
	processing bool
}

// NewEventQueue 创建一个空的事件队列，时钟初始为 0
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// SetHandler 注册交通事件的处理器（通常由 TrafficSimulation 在构造时调用）
func (q *EventQueue) SetHandler(h EventHandler) {
	q.handler = h
}

// CurrentTime 返回时钟最近一次前进到的时间，未执行过事件时为 0
func (q *EventQueue) CurrentTime() float64 {
	return q.now
}

// Len 返回待执行事件的数量
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Processed 返回已执行事件的总数
func (q *EventQueue) Processed() uint64 {
	return q.processed
}

// Schedule 将事件加入队列，返回分配的序号
// 调度到过去的时间是调用方错误，显式报告而不是静默钳制
func (q *EventQueue) Schedule(e Event) (uint64, error) {
	if e.Time < q.now {
		return 0, fmt.Errorf("schedule into the past: event time %.4f < current time %.4f", e.Time, q.now)
	}
	if e.Kind == EventCustom && e.Fn == nil {
		return 0, fmt.Errorf("custom event with nil payload")
	}
	q.seq++
	e.Seq = q.seq
	heap.Push(&q.events, &e)
	return e.Seq, nil
}

// ProcessNext 取出并执行时间最小的事件，时钟前进到该事件的时间
// 队列为空是正常的模拟结束条件，返回 (nil, nil)
func (q *EventQueue) ProcessNext() (*Event, error) {
	if q.processing {
		return nil, fmt.Errorf("re-entrant ProcessNext call from inside an event")
	}
	if len(q.events) == 0 {
		return nil, nil
	}

	e := heap.Pop(&q.events).(*Event)
	q.now = e.Time

	q.processing = true
	defer func() { q.processing = false }()

	switch e.Kind {
	case EventTrafficUpdate:
		if q.handler == nil {
			return e, fmt.Errorf("no handler registered for %v event", e.Kind)
		}
		q.handler.HandleTrafficUpdate(e.Edge, e.Time)
	case EventIncidentResolution:
		if q.handler == nil {
			return e, fmt.Errorf("no handler registered for %v event", e.Kind)
		}
		q.handler.HandleIncidentResolution(e.Edge, e.Time)
	case EventCustom:
		e.Fn(e.Time)
	default:
		return e, fmt.Errorf("unknown event kind %d", e.Kind)
	}

	q.processed++
	return e, nil
}

// ProcessUntil 反复执行事件直到队列为空或下一个事件的时间超过 end
// 时间超过 end 的事件保留在队列中等待后续调用，返回本次执行的事件数
func (q *EventQueue) ProcessUntil(end float64) (int, error) {
	count := 0
	for len(q.events) > 0 && q.events[0].Time <= end {
		if _, err := q.ProcessNext(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Reset 丢弃所有待执行事件并将时钟归零
// 与 TrafficSimulation.Reset 配合使用，以便从干净的基线重复运行
func (q *EventQueue) Reset() {
	q.events = make(eventHeap, 0)
	heap.Init(&q.events)
	q.now = 0
	q.seq = 0
	q.processed = 0
	q.processing = false
}
