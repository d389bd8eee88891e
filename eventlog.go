package marketseed

import (
	"github.com/permadex/marketseed/schema"
)

const defaultEventPageSize = 100

// EventLog is the append-only record of canonical domain events. Appends
// happen only through a commit (single operations and batches alike), so
// the table order is the commit order.
type EventLog struct {
	wdb *Wdb
}

func NewEventLog(wdb *Wdb) *EventLog {
	return &EventLog{wdb: wdb}
}

// Append writes events that already belong to a committed unit. Batch
// flushes go through Wdb.CommitUnit instead so the item upserts land in
// the same transaction.
func (e *EventLog) Append(events ...schema.MarketEvent) error {
	if len(events) == 0 {
		return nil
	}
	return e.wdb.CommitUnit(nil, events, nil)
}

// Query returns a restartable cursor over events matching the filter, in
// commit order. Pages are fetched lazily.
func (e *EventLog) Query(filter schema.EventFilter) *EventCursor {
	pageSize := filter.Limit
	if pageSize <= 0 {
		pageSize = defaultEventPageSize
	}
	return &EventCursor{
		log:      e,
		filter:   filter,
		pageSize: pageSize,
		afterId:  filter.AfterId,
	}
}

type EventCursor struct {
	log      *EventLog
	filter   schema.EventFilter
	pageSize int
	afterId  uint
	buf      []schema.MarketEvent
	pos      int
	done     bool
}

// Next returns the next matching event, or (nil, nil) when the sequence is
// exhausted.
func (c *EventCursor) Next() (*schema.MarketEvent, error) {
	if c.pos >= len(c.buf) {
		if c.done {
			return nil, nil
		}
		filter := c.filter
		filter.AfterId = c.afterId
		filter.Limit = c.pageSize
		page, err := c.log.wdb.GetEvents(filter)
		if err != nil {
			return nil, err
		}
		if len(page) < c.pageSize {
			c.done = true
		}
		if len(page) == 0 {
			return nil, nil
		}
		c.buf = page
		c.pos = 0
		c.afterId = page[len(page)-1].ID
	}
	ev := &c.buf[c.pos]
	c.pos++
	return ev, nil
}

// Reset rewinds the cursor to the filter's starting position.
func (c *EventCursor) Reset() {
	c.buf = nil
	c.pos = 0
	c.afterId = c.filter.AfterId
	c.done = false
}
