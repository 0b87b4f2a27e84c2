package events

// Event enumerates high-level topics inside the trading pipeline.
type Event string

const (
	EventBar             Event = "bar"
	EventNews            Event = "news"
	EventSocial          Event = "social"
	EventCompositeSignal Event = "composite_signal"
	EventDecision        Event = "decision"
	EventOrderFilled     Event = "order.filled"
	EventPositionClosed  Event = "position.closed"
	EventRiskAlert       Event = "risk_alert"
	EventKillSwitch      Event = "kill_switch"
)
