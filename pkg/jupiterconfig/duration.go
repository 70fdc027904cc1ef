package jupiterconfig

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration reads human readable durations such as "6h" or "90s". Plain
// numbers are taken as seconds.
type Duration struct {
	time.Duration
}

func DurationFrom(d time.Duration) Duration {
	return Duration{Duration: d}
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}

	switch node.Tag {
	case "!!int":
		var seconds int64
		if err := node.Decode(&seconds); err != nil {
			return err
		}
		d.Duration = time.Duration(seconds) * time.Second
		return nil
	case "!!float":
		var seconds float64
		if err := node.Decode(&seconds); err != nil {
			return err
		}
		d.Duration = time.Duration(seconds * float64(time.Second))
		return nil
	}

	if node.Value == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
	}
	d.Duration = parsed
	return nil
}
