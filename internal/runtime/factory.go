package runtime

import (
	"context"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
)

// Factory builds records for execution units.
type Factory struct {
	providers ports.ProviderRegistry
	clock     ports.Clock
}

// NewFactory creates a record factory.
func NewFactory(providers ports.ProviderRegistry, clock ports.Clock) *Factory {
	if clock == nil {
		clock = ports.SystemClock
	}
	return &Factory{providers: providers, clock: clock}
}

// Build generates one instance of a block. Fields are evaluated in
// declaration order, so a field sees only the fields before it. A failure
// discards the whole record and is returned as *domain.RecordError.
func (f *Factory) Build(ctx context.Context, rnd ports.RandomSource, store *RecordStore, options map[string]any, block domain.ObjectBlock, instance int) (domain.GeneratedRecord, error) {
	env := &Env{
		Ctx:        ctx,
		Rand:       rnd,
		Clock:      f.clock,
		Providers:  f.providers,
		Store:      store,
		Options:    options,
		ObjectType: block.Object,
		ID:         store.NextID(block.Object),
		Fields:     make([]domain.FieldValue, 0, len(block.Fields)),
	}

	for _, field := range block.Fields {
		v, err := Generate(env, field.Spec)
		if err != nil {
			return domain.GeneratedRecord{}, &domain.RecordError{
				Object:   block.Object,
				Nickname: block.Nickname,
				Field:    field.Name,
				Instance: instance,
				Err:      err,
			}
		}
		env.Fields = append(env.Fields, domain.FieldValue{Name: field.Name, Value: v})
	}

	return domain.GeneratedRecord{
		ObjectType: block.Object,
		Nickname:   block.Nickname,
		ID:         env.ID,
		Values:     env.Fields,
	}, nil
}
