package registry

import "strings"

// SanitizeName turns an arbitrary string (e.g., a user-provided rig name)
// into a valid prometheus metric name by replacing every disallowed
// character with an underscore.
//
//	rig_status_my rig #2 -> rig_status_my_rig__2
//
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(name))

	for i, r := range name {
		switch {
		case r == '_' || r == ':',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}

			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}
