package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultMaxLogEntries 保持するリクエストログの上限（古いものから破棄）
const DefaultMaxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService はAPIのリクエストログとナラティブ生成結果を記録します。
type MonitoringService struct {
	mu         sync.RWMutex
	logs       []LogEntry
	maxEntries int
	location   *time.Location
	skip       []string

	// topic -> source -> 件数
	narratives map[string]map[string]int
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
// location はダッシュボードの時間バケットに使うタイムゾーン（nil の場合はUTC）。
func NewMonitoringService(location *time.Location) *MonitoringService {
	if location == nil {
		location = time.UTC
	}
	return &MonitoringService{
		logs:       make([]LogEntry, 0),
		maxEntries: DefaultMaxLogEntries,
		location:   location,
		skip:       []string{"/api/v1/admin", "/api/v1/monitoring", "/health"},
		narratives: make(map[string]map[string]int),
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if over := len(s.logs) - s.maxEntries; over > 0 {
		s.logs = append(s.logs[:0:0], s.logs[over:]...)
	}
}

// ObserveNarrative はナラティブの取得元（generated / cached / fallback）を集計します。
func (s *MonitoringService) ObserveNarrative(topic, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySource, ok := s.narratives[topic]
	if !ok {
		bySource = make(map[string]int)
		s.narratives[topic] = bySource
	}
	bySource[source]++
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		for _, prefix := range s.skip {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// NarrativeStats トピックごとのナラティブ取得元の件数
type NarrativeStats struct {
	Topic     string `json:"topic"`
	Generated int    `json:"generated"`
	Cached    int    `json:"cached"`
	Fallback  int    `json:"fallback"`
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
	Narratives       []NarrativeStats         `json:"narratives"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int, now time.Time) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now = now.In(s.location)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filtered = append(filtered, entry)
		}
	}

	// 時間バケットは過去から現在の順
	requestsOverTime := make([]map[string]interface{}, periodHours)
	bucketIndex := make(map[string]int, periodHours)
	for i := 0; i < periodHours; i++ {
		t := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		bucketIndex[t.Format(time.RFC3339)] = i
		requestsOverTime[i] = map[string]interface{}{"time": t.Format("15:00"), "requests": 0}
	}

	endpoints := make(map[string]int)
	statusCounts := map[string]int{"2xx Success": 0, "4xx Client Error": 0, "5xx Server Error": 0}
	responseTimeSum := make(map[string]time.Duration)

	for _, entry := range filtered {
		key := entry.Timestamp.In(s.location).Truncate(time.Hour).Format(time.RFC3339)
		if i, ok := bucketIndex[key]; ok {
			requestsOverTime[i]["requests"] = requestsOverTime[i]["requests"].(int) + 1
		}

		endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 500:
			statusCounts["5xx Server Error"]++
		case entry.StatusCode >= 400:
			statusCounts["4xx Client Error"]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusCounts["2xx Success"]++
		}
	}

	statusCodes := make([]map[string]interface{}, 0, len(statusCounts))
	for _, name := range []string{"2xx Success", "4xx Client Error", "5xx Server Error"} {
		statusCodes = append(statusCodes, map[string]interface{}{"name": name, "value": statusCounts[name]})
	}

	paths := make([]string, 0, len(responseTimeSum))
	for path := range responseTimeSum {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	avgResponseTimes := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		avg := responseTimeSum[path].Milliseconds() / int64(endpoints[path])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}

	recentErrors := make([]LogEntry, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodes,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
		Narratives:       s.narrativeStatsLocked(),
	}
}

func (s *MonitoringService) narrativeStatsLocked() []NarrativeStats {
	topics := make([]string, 0, len(s.narratives))
	for topic := range s.narratives {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	stats := make([]NarrativeStats, 0, len(topics))
	for _, topic := range topics {
		bySource := s.narratives[topic]
		stats = append(stats, NarrativeStats{
			Topic:     topic,
			Generated: bySource[NarrativeSourceGenerated],
			Cached:    bySource[NarrativeSourceCached],
			Fallback:  bySource[NarrativeSourceFallback],
		})
	}
	return stats
}
