package param

import (
	"fmt"
	"strings"
)

// ChoiceOption is a single entry of a list parameter.
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a builder for a multiple-choice parameter.
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	names := make([]string, len(options))
	for i, opt := range options {
		names[i] = opt.Name
	}

	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		// Fallback to index-based lookup for integer values.
		index := int(value)
		if index >= 0 && index < len(names) {
			return names[index]
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		normalizedStr := strings.ToLower(strings.TrimSpace(str))
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(normalizedStr, strings.ToLower(alias)) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	minVal := 0.0
	maxVal := float64(len(options) - 1)
	if len(options) > 0 {
		minVal = options[0].Value
		maxVal = options[len(options)-1].Value
	}

	return New(id, name).
		Range(minVal, maxVal).
		Steps(int32(len(options))).
		Default(options[0].Value).
		Formatter(formatter, parser)
}

// GainParameter creates a standard gain parameter (-80 to +12 dB).
func GainParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(-80, 12).
		Default(0).
		Unit("dB").
		Formatter(func(v float64) string {
			if v <= -80 {
				return "-∞ dB"
			}
			return fmt.Sprintf("%.1f dB", v)
		}, func(s string) (float64, error) {
			if strings.Contains(strings.ToLower(s), "inf") || strings.Contains(s, "∞") {
				return -80, nil
			}
			return DecibelParser(s)
		})
}

// MixParameter creates a dry/wet parameter (0-100%).
func MixParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(100).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// FrequencyParameter creates a frequency parameter.
func FrequencyParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// TimeParameter creates a time parameter displayed in ms or s.
func TimeParameter(id uint32, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(id, name).
		Range(minMs, maxMs).
		Default(defaultMs).
		Unit("ms").
		Formatter(func(v float64) string {
			if v >= 1000 {
				return fmt.Sprintf("%.2f s", v/1000.0)
			}
			return fmt.Sprintf("%.1f ms", v)
		}, TimeParser)
}

// AttackParameter creates an attack time parameter.
func AttackParameter(id uint32, name string, maxMs float64) *Builder {
	return TimeParameter(id, name, 0.1, maxMs, 10.0)
}

// ReleaseParameter creates a release time parameter.
func ReleaseParameter(id uint32, name string, maxMs float64) *Builder {
	return TimeParameter(id, name, 1.0, maxMs, 100.0)
}

// PanParameter creates a stereo pan parameter (-100 to 100).
func PanParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(-100, 100).
		Default(0).
		Formatter(func(v float64) string {
			if v == 0 {
				return "Center"
			} else if v < 0 {
				return fmt.Sprintf("%.0f%% L", -v)
			}
			return fmt.Sprintf("%.0f%% R", v)
		}, PanParser)
}

// FeedbackParameter creates a feedback parameter (0-100%).
func FeedbackParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(0).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// ResonanceParameter creates a 0-1 resonance parameter.
func ResonanceParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(0.3).
		Formatter(func(v float64) string {
			return fmt.Sprintf("%.3f", v)
		}, nil)
}

// DriveParameter creates a drive/saturation parameter (0-100%).
func DriveParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(0).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// RateParameter creates a rate parameter in Hz for LFOs and choppers.
func RateParameter(id uint32, name string, minHz, maxHz, defaultHz float64) *Builder {
	return New(id, name).
		Range(minHz, maxHz).
		Default(defaultHz).
		Unit("Hz").
		Formatter(func(v float64) string {
			if v < 1.0 {
				return fmt.Sprintf("%.3f Hz", v)
			}
			return fmt.Sprintf("%.2f Hz", v)
		}, FrequencyParser)
}

// DepthParameter creates a modulation depth parameter (0-100%).
func DepthParameter(id uint32, name string) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(50).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// BypassParameter creates a bypass switch.
func BypassParameter(id uint32, name string) *Builder {
	return Choice(id, name, []ChoiceOption{
		{Value: 0, Name: "Active"},
		{Value: 1, Name: "Bypassed"},
	}).Bypass()
}
