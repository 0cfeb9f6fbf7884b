package filters

// Params carries decode parameters from a stream's DecodeParms dictionary.
// Keys match the PDF names (Predictor, Columns, Colors, BitsPerComponent,
// K, Rows, BlackIs1 and so on).
type Params map[string]interface{}

// intParam returns the integer value for key, or def when the key is absent
// or not numeric.
func intParam(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// boolParam returns the boolean value for key, or def when the key is absent
// or not a bool.
func boolParam(params Params, key string, def bool) bool {
	if params == nil {
		return def
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
