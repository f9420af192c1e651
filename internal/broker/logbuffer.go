package broker

import "sync"

// LogRecord is one buffered or broadcast log line (§3, §4.6 Log).
type LogRecord struct {
	Level   uint8
	Message string
}

const logBufferCapacity = 100

// LogBuffer is the bounded FIFO of log records held until at least one
// session exists (§3 BrokerState.log_buffer).
type LogBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

// Push appends a record, dropping the oldest when capacity is reached.
func (b *LogBuffer) Push(r LogRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) >= logBufferCapacity {
		b.records = b.records[1:]
	}
	b.records = append(b.records, r)
}

// Drain returns and clears all buffered records.
func (b *LogBuffer) Drain() []LogRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}
