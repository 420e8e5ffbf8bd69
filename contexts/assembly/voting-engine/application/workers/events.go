package workers

import (
	"encoding/json"
	"errors"
	"fmt"

	"assembly/contexts/assembly/voting-engine/ports"
)

var errEmptyEventData = errors.New("event data is empty")

// decodeData unmarshals the envelope payload into target.
func decodeData(event ports.EventEnvelope, target any) error {
	if len(event.Data) == 0 {
		return fmt.Errorf("%s %s: %w", event.EventType, event.EventID, errEmptyEventData)
	}
	if err := json.Unmarshal(event.Data, target); err != nil {
		return fmt.Errorf("decode %s %s: %w", event.EventType, event.EventID, err)
	}
	return nil
}
