package conf

import (
	"dario.cat/mergo"
)

// MergeDefaults fills zero-valued fields of cfg from defaults, leaving any
// explicitly configured value untouched. Both arguments must be pointers to
// the same struct type.
func MergeDefaults(cfg, defaults interface{}) error {
	if err := mergo.Merge(cfg, defaults); err != nil {
		return &Error{
			Code:    ErrCodeMerge,
			Message: "failed to merge configuration defaults",
			Cause:   err,
		}
	}
	return nil
}
