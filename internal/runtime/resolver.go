package runtime

import (
	"fmt"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/ports"
)

// Resolve turns a reference into the identity of an existing record.
// Only records already in the store are visible, so a reference to a block
// declared later in the recipe fails with *domain.UnresolvedReferenceError.
func Resolve(store *RecordStore, rnd ports.RandomSource, ref domain.ReferenceSpec) (domain.RecordRef, error) {
	if store == nil {
		return domain.RecordRef{}, &domain.UnresolvedReferenceError{Target: ref.Target, Reason: "no records available"}
	}
	handles := store.Lookup(ref.Target)
	if len(handles) == 0 {
		return domain.RecordRef{}, &domain.UnresolvedReferenceError{Target: ref.Target}
	}

	switch ref.Strategy {
	case "", domain.PickMostRecent:
		return handles[len(handles)-1].Ref(), nil
	case domain.PickFirst:
		return handles[0].Ref(), nil
	case domain.PickRandom:
		return handles[rnd.Intn(len(handles))].Ref(), nil
	case domain.PickIndex:
		if ref.Index < 1 || ref.Index > len(handles) {
			return domain.RecordRef{}, &domain.UnresolvedReferenceError{
				Target: ref.Target,
				Reason: fmt.Sprintf("index %d out of range, %d records exist", ref.Index, len(handles)),
			}
		}
		return handles[ref.Index-1].Ref(), nil
	default:
		return domain.RecordRef{}, fmt.Errorf("unknown pick strategy %q", ref.Strategy)
	}
}
