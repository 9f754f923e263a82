package llm

// lastJSONObject returns the last balanced top-level {...} span in s.
// The oracle sometimes prepends commentary or chain-of-thought before the
// JSON object it was told to return, so the reply cannot be handed to the
// JSON decoder as-is.
func lastJSONObject(s string) (string, bool) {
	var (
		start    = -1
		depth    = 0
		inString = false
		escaped  = false
		lastSpan string
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					lastSpan = s[start : i+1]
				}
			}
		}
	}

	if lastSpan == "" {
		return "", false
	}
	return lastSpan, true
}
