package events

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/hamba/avro/v2"

	"github.com/xenking/storefront-backoffice/internal/domain/user"
)

// UserUpdatedSchemaV1 is the Avro schema of user update records.
const UserUpdatedSchemaV1 = `{
	"type": "record",
	"namespace": "store.users",
	"name": "UserUpdated",
	"fields": [
		{"name": "user_id", "type": "string"},
		{"name": "username", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

var userUpdatedSchema = avro.MustParse(UserUpdatedSchemaV1)

type userUpdatedV1 struct {
	UserID     string    `avro:"user_id"`
	Username   string    `avro:"username"`
	OccurredAt time.Time `avro:"occurred_at"`
}

// EncodeUserUpdated serialises ev with UserUpdatedSchemaV1.
func EncodeUserUpdated(ev user.Updated) ([]byte, error) {
	b, err := avro.Marshal(userUpdatedSchema, userUpdatedV1{
		UserID:     ev.UserID,
		Username:   ev.Username,
		OccurredAt: ev.OccurredAt.UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode user updated")
	}
	return b, nil
}

// DecodeUserUpdated parses a record written by EncodeUserUpdated.
func DecodeUserUpdated(b []byte) (user.Updated, error) {
	var v userUpdatedV1
	if err := avro.Unmarshal(userUpdatedSchema, b, &v); err != nil {
		return user.Updated{}, errors.Wrap(err, "decode user updated")
	}
	if v.UserID == "" {
		return user.Updated{}, errors.New("decode user updated: empty user id")
	}
	return user.Updated{
		UserID:     v.UserID,
		Username:   v.Username,
		OccurredAt: v.OccurredAt.UTC(),
	}, nil
}
