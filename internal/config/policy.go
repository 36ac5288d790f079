package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/comedy-tour-seating/internal/money"
	"github.com/iliyamo/comedy-tour-seating/internal/pricing"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

// Policy is the selling policy: how many items of each category one
// selection may hold and the service fee.
//
//	capacity:
//	  T5: 1
//	  T10: 1
//	  VIP: 10
//	  REG: 10
//	fee_rate_bps: 1500
type Policy struct {
	Capacity selection.Capacity `yaml:"capacity"`
	FeeRate  money.Rate         `yaml:"fee_rate_bps"`
}

// DefaultPolicy is used when no POLICY_FILE is configured.
func DefaultPolicy() Policy {
	return Policy{Capacity: selection.DefaultCapacity.Clone(), FeeRate: pricing.DefaultFeeRate}
}

// LoadPolicy reads a YAML policy.  Keys missing from the file keep their
// defaults.
func LoadPolicy(path string) (Policy, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(bs)
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(bs []byte) (Policy, error) {
	var raw struct {
		Capacity map[string]int `yaml:"capacity"`
		FeeRate  *int64         `yaml:"fee_rate_bps"`
	}
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	p := DefaultPolicy()
	if raw.Capacity != nil {
		p.Capacity = selection.Capacity{}
		for cat, n := range raw.Capacity {
			if n < 0 {
				return Policy{}, fmt.Errorf("policy: capacity of %s is negative", cat)
			}
			p.Capacity[cat] = n
		}
	}
	if raw.FeeRate != nil {
		if *raw.FeeRate < 0 {
			return Policy{}, fmt.Errorf("policy: negative fee rate")
		}
		p.FeeRate = money.Rate(*raw.FeeRate)
	}
	return p, nil
}
