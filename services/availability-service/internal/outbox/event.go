package outbox

// Event is the domain event envelope written to the outbox table. The Kafka topic name is
// the event type.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateSupplierAvailability = "supplier_availability"
	EventAvailabilityUpdated      = "supplier.availability.updated.v1"
)
