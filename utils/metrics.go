package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
	StatusCodes     map[int]int64

	// Метрики операций (deposit, loan_disbursement, login, ...)
	Operations       map[string]int64
	FailedOperations map[string]int64
	LastOperation    time.Time

	// Метрики ошибок
	ErrorCount     int64
	LastErrorTime  time.Time
	ErrorTypes     map[string]int64
	CriticalErrors int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// NewMetrics создает пустой набор метрик
func NewMetrics() *Metrics {
	return &Metrics{
		StatusCodes:      make(map[int]int64),
		Operations:       make(map[string]int64),
		FailedOperations: make(map[string]int64),
		ErrorTypes:       make(map[string]int64),
	}
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()
	m.StatusCodes[status]++

	if status >= 500 {
		m.FailedRequests++
	}
}

// RecordOperation записывает метрики доменной операции
func (m *Metrics) RecordOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastOperation = time.Now()
	m.Operations[operation]++

	if err != nil {
		m.FailedOperations[operation]++
		m.recordErrorLocked(operation)
	}
}

// RecordError записывает метрики ошибки по ее типу
func (m *Metrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(kind)
}

// RecordCriticalError записывает метрики критической ошибки (паники)
func (m *Metrics) RecordCriticalError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CriticalErrors++
	m.recordErrorLocked("panic")
}

func (m *Metrics) recordErrorLocked(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.ErrorCount++
	m.LastErrorTime = time.Now()
	m.ErrorTypes[kind]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_requests":    m.TotalRequests,
		"failed_requests":   m.FailedRequests,
		"average_latency":   m.AverageLatency.String(),
		"last_request_time": m.LastRequestTime,
		"status_codes":      copyIntMap(m.StatusCodes),
		"operations":        copyStringMap(m.Operations),
		"failed_operations": copyStringMap(m.FailedOperations),
		"last_operation":    m.LastOperation,
		"error_count":       m.ErrorCount,
		"critical_errors":   m.CriticalErrors,
		"last_error_time":   m.LastErrorTime,
		"error_types":       copyStringMap(m.ErrorTypes),
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.StatusCodes = make(map[int]int64)
	m.Operations = make(map[string]int64)
	m.FailedOperations = make(map[string]int64)
	m.ErrorCount = 0
	m.CriticalErrors = 0
	m.ErrorTypes = make(map[string]int64)
}

func copyStringMap(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyIntMap(src map[int]int64) map[int]int64 {
	dst := make(map[int]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
