package runtime

import (
	"fmt"

	"github.com/aretw0/seedbed/pkg/domain"
)

// machine tracks the lifecycle of one run.
type machine struct {
	status domain.RunStatus
}

func newMachine() *machine {
	return &machine{status: domain.StatusIdle}
}

func (m *machine) to(next domain.RunStatus) error {
	if !m.status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, m.status, next)
	}
	m.status = next
	return nil
}
