package api

// chatRequestSchema accepts null for every field, like an omitted one.
func chatRequestSchema(maxMessageLength int) map[string]interface{} {
	message := map[string]interface{}{
		"type": []interface{}{"string", "null"},
	}
	if maxMessageLength > 0 {
		message["maxLength"] = maxMessageLength
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":      []interface{}{"string", "null"},
				"maxLength": 128,
			},
			"message": message,
			"action": map[string]interface{}{
				"type":      []interface{}{"string", "null"},
				"maxLength": 32,
			},
		},
	}
}
