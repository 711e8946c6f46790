package domain

import "time"

// Event types
const (
	EventTypeMovementCreated = "movimiento.created"
	EventTypeMovementUpdated = "movimiento.updated"
	EventTypeMovementDeleted = "movimiento.deleted"
)

// Aggregate types
const (
	AggregateTypeMovement = "movimiento"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// MovementEvent payload
type MovementEvent struct {
	MovimientoID    string           `json:"movimiento_id"`
	Cliente         string           `json:"cliente"`
	Kind            Kind             `json:"kind"`
	CuentaCorriente CuentaCorriente  `json:"cuenta_corriente"`
	SubTotal        MonetarySnapshot `json:"sub_total"`
	MontoTotal      MonetarySnapshot `json:"monto_total"`
	TipoDeCambio    string           `json:"tipo_de_cambio"`
	ChangedFields   []Field          `json:"changed_fields,omitempty"`
}

// NewMovementEvent builds the payload describing m.
func NewMovementEvent(m *Movement, changed []Field) MovementEvent {
	return MovementEvent{
		MovimientoID:    m.ID,
		Cliente:         m.Cliente,
		Kind:            m.Kind,
		CuentaCorriente: m.CuentaCorriente,
		SubTotal:        m.SubTotal,
		MontoTotal:      m.MontoTotal,
		TipoDeCambio:    m.TipoDeCambio.String(),
		ChangedFields:   changed,
	}
}

// Payload flattens the event for the outbox.
func (e MovementEvent) Payload() map[string]any {
	payload := map[string]any{
		"movimiento_id":    e.MovimientoID,
		"cliente":          e.Cliente,
		"kind":             string(e.Kind),
		"cuenta_corriente": string(e.CuentaCorriente),
		"sub_total":        e.SubTotal,
		"monto_total":      e.MontoTotal,
		"tipo_de_cambio":   e.TipoDeCambio,
	}
	if len(e.ChangedFields) > 0 {
		fields := make([]string, len(e.ChangedFields))
		for i, f := range e.ChangedFields {
			fields[i] = string(f)
		}
		payload["changed_fields"] = fields
	}
	return payload
}
