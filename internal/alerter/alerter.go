package alerter

import (
	"NetSpike/internal/config"
	"NetSpike/internal/engine/manager"
	"NetSpike/internal/model"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
)

// MetricsFunc reads the values rules are evaluated against.
type MetricsFunc func(ctx context.Context) (manager.Metrics, error)

var operators = map[string]func(a, b float64) bool{
	">":  func(a, b float64) bool { return a > b },
	"<":  func(a, b float64) bool { return a < b },
	"=":  func(a, b float64) bool { return a == b },
	">=": func(a, b float64) bool { return a >= b },
	"<=": func(a, b float64) bool { return a <= b },
}

var metrics = map[string]func(m manager.Metrics) float64{
	"bucket_bytes": func(m manager.Metrics) float64 { return float64(m.BucketBytes) },
	"flow_count":   func(m manager.Metrics) float64 { return float64(m.FlowCount) },
	"flow_bytes":   func(m manager.Metrics) float64 { return float64(m.TopFlow.ByteCount) },
}

// Alerter evaluates threshold rules against the live traffic figures and
// sends one consolidated notification per check. A rule notifies when it
// starts being violated, not on every check while it stays violated.
type Alerter struct {
	rules         []config.AlerterRule
	notifier      model.Notifier
	fetch         MetricsFunc
	checkInterval time.Duration

	firing   map[string]bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(cfg *config.AlerterConfig, fetch MetricsFunc, notifier model.Notifier) (*Alerter, error) {
	interval, err := time.ParseDuration(cfg.CheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid check_interval for alerter: %w", err)
	}
	for _, rule := range cfg.Rules {
		if _, ok := metrics[rule.Metric]; !ok {
			return nil, fmt.Errorf("rule '%s': unknown metric '%s'", rule.Name, rule.Metric)
		}
		if _, ok := operators[rule.Operator]; !ok {
			return nil, fmt.Errorf("rule '%s': unknown operator '%s'", rule.Name, rule.Operator)
		}
	}

	return &Alerter{
		rules:         cfg.Rules,
		notifier:      notifier,
		fetch:         fetch,
		checkInterval: interval,
		firing:        make(map[string]bool),
		stopChan:      make(chan struct{}),
	}, nil
}

// Start begins the periodic evaluation of alert rules.
func (a *Alerter) Start() {
	log.Println("Alerter started")

	a.wg.Add(1)
	defer a.wg.Done()

	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Check()
		case <-a.stopChan:
			return
		}
	}
}

// Stop gracefully stops the alerter's evaluation loop.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.stopChan)
	a.wg.Wait()
}

// Evaluate returns the messages of every rule m violates.
func (a *Alerter) Evaluate(m manager.Metrics) map[string]string {
	violated := make(map[string]string)
	for _, rule := range a.rules {
		value := metrics[rule.Metric](m)
		if !operators[rule.Operator](value, rule.Threshold) {
			continue
		}
		msg := fmt.Sprintf("<h3>%s</h3><p>%s = %s (threshold %s %s)</p>",
			rule.Name, rule.Metric, formatValue(rule.Metric, value), rule.Operator, formatValue(rule.Metric, rule.Threshold))
		if rule.Metric == "flow_bytes" {
			msg += fmt.Sprintf("<p>Top flow: %s</p>", m.TopFlow.Key)
		}
		violated[rule.Name] = msg
	}
	return violated
}

// Check fetches the current figures and notifies about newly violated rules.
func (a *Alerter) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), a.checkInterval)
	defer cancel()
	m, err := a.fetch(ctx)
	if err != nil {
		log.Printf("Alerter failed to read metrics: %v", err)
		return
	}

	violated := a.Evaluate(m)
	var messages []string
	for _, rule := range a.rules {
		msg, ok := violated[rule.Name]
		if ok && !a.firing[rule.Name] {
			messages = append(messages, msg)
		}
		a.firing[rule.Name] = ok
	}
	if len(messages) == 0 {
		return
	}

	log.Printf("Alerter evaluation completed. %d alert(s) triggered.", len(messages))

	body := "<h1>NetSpike Alert Summary</h1>" +
		"<p>The following alerts were triggered during the last check:</p><hr>" +
		strings.Join(messages, "<hr>")

	if a.notifier != nil {
		subject := fmt.Sprintf("NetSpike Alert Summary (%d Triggered)", len(messages))
		if err := a.notifier.Send(subject, body); err != nil {
			log.Printf("ERROR: Failed to send consolidated alert notification: %v", err)
		} else {
			log.Printf("INFO: Consolidated alert notification sent successfully.")
		}
	}
}

func formatValue(metric string, v float64) string {
	if metric == "flow_count" {
		return fmt.Sprintf("%.0f", v)
	}
	return units.BytesSize(v)
}
