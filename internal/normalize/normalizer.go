package normalize

import (
	"time"

	"career-compass/internal/models"

	"github.com/google/uuid"
)

// Normalizer composes due date validation and patch building with one clock read per call.
type Normalizer struct {
	registry Registry
	now      func() time.Time
	newID    func() string
}

type Option func(*Normalizer)

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

func WithRegistry(r Registry) Option {
	return func(n *Normalizer) {
		n.registry = r
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) {
		n.newID = gen
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		registry: DefaultRegistry,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) Now() time.Time {
	return n.now()
}

// Build validates the due date and turns fields into an update patch.
func (n *Normalizer) Build(fields Fields) (*Patch, error) {
	now := n.now()
	due := ValidateDueDate(fields[models.FieldDueDate], now)
	return n.registry.Normalize(fields, due, now)
}

// BuildInsert prepares a new record. The identifier is generated when absent,
// status defaults to Applied and clear lists are ignored.
func (n *Normalizer) BuildInsert(fields Fields) (*Patch, error) {
	now := n.now()

	due := ValidateDueDate(fields[models.FieldDueDate], now)
	if due.Err != nil {
		return nil, due.Err
	}

	set, err := n.registry.collect(fields, due)
	if err != nil {
		return nil, err
	}

	id, ok := identifier(fields[models.FieldID])
	if !ok {
		id = n.newID()
	}

	if _, ok := set[models.FieldStatus]; !ok {
		set[models.FieldStatus] = models.DefaultStatus
	}
	set[models.FieldID] = id
	set[models.FieldLastTouch] = now.UTC()

	return &Patch{ID: id, Set: set}, nil
}
