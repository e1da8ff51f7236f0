package validators

import "go.mongodb.org/mongo-driver/bson"

// JobValidator only covers the fields the planner reads. Jobs are owned by
// the work order system.
var JobValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"status"},
		"additionalProperties": true,
		"properties": bson.M{
			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"scheduled",
					"in_progress",
					"on_hold",
					"completed",
					"closed",
					"cancelled",
				},
			},
			"booking_id": bson.M{"bsonType": "string"},
		},
	},
}
