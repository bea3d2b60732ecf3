package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

// ErrorCode is an error body carrying a machine-readable code that clients
// map back to typed errors.
func ErrorCode(message, code string) Envelope {
	return Envelope{"error": message, "code": code}
}

func Data(key string, value any) Envelope {
	return Envelope{key: value}
}
