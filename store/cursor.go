package store

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// encodeCursor converts the store's last evaluated key into an opaque token.
// An absent key yields an empty token. Key attributes are always derived
// strings in this layout; a key with any other attribute type cannot be
// represented and yields no token, ending pagination early rather than
// resuming from a wrong position.
func encodeCursor(lastKey map[string]types.AttributeValue) string {
	if len(lastKey) == 0 {
		return ""
	}

	position := make(map[string]string, len(lastKey))
	for attr, av := range lastKey {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return ""
		}
		position[attr] = s.Value
	}

	raw, err := json.Marshal(position)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor converts a token back into an exclusive start key. Malformed
// tokens decode to nil so a tampered cursor restarts pagination instead of
// failing the request.
func decodeCursor(token string) map[string]types.AttributeValue {
	if token == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var position map[string]string
	if err := json.Unmarshal(raw, &position); err != nil {
		return nil
	}
	if len(position) == 0 {
		return nil
	}

	key := make(map[string]types.AttributeValue, len(position))
	for attr, value := range position {
		key[attr] = &types.AttributeValueMemberS{Value: value}
	}
	return key
}
