package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"papertrader/internal/events"
)

// AlertSink delivers one alert message.
type AlertSink interface {
	Send(message string) error
}

// LogSink writes alerts to the process log.
type LogSink struct{}

func (LogSink) Send(message string) error {
	log.Printf("[ALERT] %s", message)
	return nil
}

// Monitor watches risk and kill-switch events and forwards them to a sink.
type Monitor struct {
	Bus  *events.Bus
	Sink AlertSink
}

func (m *Monitor) Start(ctx context.Context) {
	if m.Bus == nil || m.Sink == nil {
		log.Println("monitor not fully configured; skipping")
		return
	}
	riskStream, unsubRisk := m.Bus.Subscribe(events.EventRiskAlert, 50)
	killStream, unsubKill := m.Bus.Subscribe(events.EventKillSwitch, 10)

	go func() {
		defer unsubRisk()
		defer unsubKill()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-riskStream:
				if !ok {
					return
				}
				m.send(msg)
			case msg, ok := <-killStream:
				if !ok {
					return
				}
				m.send(msg)
			}
		}
	}()
}

func (m *Monitor) send(msg any) {
	if err := m.Sink.Send(formatAlert(msg)); err != nil {
		log.Printf("monitor: alert delivery failed: %v", err)
	}
}

func formatAlert(msg any) string {
	ts := time.Now().Format(time.RFC3339)
	switch t := msg.(type) {
	case string:
		return "[" + ts + "] " + t
	default:
		return fmt.Sprintf("[%s] %v", ts, t)
	}
}
