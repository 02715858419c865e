package wheredoc

// Zip keys with the values at the same index into a single Params record.
// Later duplicate keys overwrite earlier ones, and keys with no matching value map to Undefined.
// Any string is a valid key here, including "" and words like "null"; validating keys is Analyze's job.
func Map(keys []string, values []any) Params {
	params := make(Params, len(keys))
	for i, key := range keys {
		if i < len(values) {
			params[key] = values[i]
		} else {
			params[key] = Undefined
		}
	}
	return params
}

// Return the value for a key, and whether the key exists.
func (p Params) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Return the value for a key as a float64, and whether it is a number.
func (p Params) Number(key string) (float64, bool) {
	f, ok := p[key].(float64)
	return f, ok
}

// Return the value for a key as a string, and whether it is a string.
func (p Params) Text(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}
