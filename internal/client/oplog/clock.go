package oplog

import (
	"sync"
	"time"
)

// Clock выдает строго возрастающие метки времени в миллисекундах.
// Метка равна текущему времени, если оно больше предыдущей метки,
// иначе предыдущей метке + 1. Так две операции, созданные в одну
// миллисекунду или после перевода системных часов назад, сохраняют
// порядок добавления.
type Clock struct {
	now  func() time.Time
	last int64
	mu   sync.Mutex
}

// NewClock создает часы поверх time.Now
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockWithSource создает часы с заданным источником времени.
// Используется для тестирования.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Tick возвращает следующую метку времени
func (c *Clock) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Observe продвигает часы до ts, если ts больше последней выданной метки.
// Вызывается при загрузке журнала, чтобы новые операции не оказались
// раньше уже сохраненных.
func (c *Clock) Observe(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts > c.last {
		c.last = ts
	}
}

// Last возвращает последнюю выданную метку без изменения часов
func (c *Clock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
