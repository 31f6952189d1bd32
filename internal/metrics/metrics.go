// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder 代课服务的指标集合
type Recorder struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	assignments     prometheus.Counter
	warnings        prometheus.Counter
	unfilled        prometheus.Counter
	fairnessGini    prometheus.Gauge
	coverageRate    prometheus.Gauge
}

var (
	defaultRecorder *Recorder
	once            sync.Once
)

// Default 返回注册在默认注册表上的全局指标
func Default() *Recorder {
	once.Do(func() {
		r, err := NewRecorder(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		if err != nil {
			panic(err)
		}
		defaultRecorder = r
	})
	return defaultRecorder
}

// NewRecorder 在给定注册表上注册指标；重复注册时复用已有的采集器
func NewRecorder(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := &Recorder{
		gatherer: gatherer,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "substitute_http_requests_total",
			Help: "HTTP请求总数",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "substitute_http_request_duration_seconds",
			Help:    "HTTP请求延迟",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "substitute_runs_total",
			Help: "代课分配运行次数",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "substitute_run_duration_seconds",
			Help:    "代课分配运行耗时",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "substitute_assignments_total",
			Help: "生成的代课分配数",
		}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "substitute_warnings_total",
			Help: "运行产生的警告数",
		}),
		unfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "substitute_unfilled_periods_total",
			Help: "未能安排代课的课程数",
		}),
		fairnessGini: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "substitute_fairness_gini",
			Help: "最近一次运行的工作量基尼系数",
		}),
		coverageRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "substitute_coverage_rate",
			Help: "最近一次运行的课程覆盖率 (%)",
		}),
	}

	var err error
	if r.requests, err = register(reg, r.requests); err != nil {
		return nil, err
	}
	if r.requestDuration, err = register(reg, r.requestDuration); err != nil {
		return nil, err
	}
	if r.runs, err = register(reg, r.runs); err != nil {
		return nil, err
	}
	if r.runDuration, err = register(reg, r.runDuration); err != nil {
		return nil, err
	}
	if r.assignments, err = register(reg, r.assignments); err != nil {
		return nil, err
	}
	if r.warnings, err = register(reg, r.warnings); err != nil {
		return nil, err
	}
	if r.unfilled, err = register(reg, r.unfilled); err != nil {
		return nil, err
	}
	if r.fairnessGini, err = register(reg, r.fairnessGini); err != nil {
		return nil, err
	}
	if r.coverageRate, err = register(reg, r.coverageRate); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RunOutcome 一次运行的统计
type RunOutcome struct {
	Success     bool
	Duration    time.Duration
	Assignments int
	Warnings    int
	Unfilled    int
}

// RecordRun 记录一次分配运行
func (r *Recorder) RecordRun(o RunOutcome) {
	status := "success"
	if !o.Success {
		status = "failure"
	}
	r.runs.WithLabelValues(status).Inc()
	r.runDuration.Observe(o.Duration.Seconds())
	r.assignments.Add(float64(o.Assignments))
	r.warnings.Add(float64(o.Warnings))
	r.unfilled.Add(float64(o.Unfilled))
}

// RecordRequest 记录HTTP请求
func (r *Recorder) RecordRequest(method, path string, status int, duration time.Duration) {
	r.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetFairnessGini 设置最近一次运行的基尼系数
func (r *Recorder) SetFairnessGini(gini float64) {
	r.fairnessGini.Set(gini)
}

// SetCoverageRate 设置最近一次运行的覆盖率
func (r *Recorder) SetCoverageRate(rate float64) {
	r.coverageRate.Set(rate)
}

// Handler 返回Prometheus格式的指标HTTP处理器
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
