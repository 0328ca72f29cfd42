package toolloop

import (
	"fmt"

	"github.com/go-go-golems/buddy/pkg/inference/protocol"
	"github.com/pkg/errors"
)

// ErrMaxToolRounds is returned when a turn keeps requesting tools past the configured cap.
var ErrMaxToolRounds = errors.New("maximum number of tool rounds reached")

// RetriesExhaustedError is returned when the model keeps producing unreadable
// replies after every corrective retry was spent.
type RetriesExhaustedError struct {
	Attempts int
	Last     *protocol.ProtocolError
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("model reply could not be read after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
