package content

// Categories extracts a record's category set, normalizing the legacy
// single-string form ("category": "Nature") and the list form
// ("categories": ["Nature", "Travel"]) into one deduplicated slice.
// Order of first appearance is preserved.
func Categories(r Record) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	if v, ok := r["categories"]; ok {
		if list, ok := v.(List); ok {
			for _, item := range list {
				if s, ok := item.(String); ok {
					add(string(s))
				}
			}
		}
		if s, ok := v.(String); ok {
			add(string(s))
		}
	}
	if v, ok := r["category"]; ok {
		if s, ok := v.(String); ok {
			add(string(s))
		}
	}

	return out
}

// FieldString returns the string value of a record field, or "" when the
// field is absent or not a string.
func FieldString(r Record, name string) string {
	if v, ok := r[name]; ok {
		if s, ok := v.(String); ok {
			return string(s)
		}
	}
	return ""
}
