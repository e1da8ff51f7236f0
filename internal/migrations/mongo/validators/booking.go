package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"client_name",
			"scheduled_date",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"client_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"site_address": bson.M{
				"bsonType":  "string",
				"maxLength": 300,
			},

			"site_contact": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"name":  bson.M{"bsonType": "string"},
					"phone": bson.M{"bsonType": "string"},
				},
			},

			"scheduled_date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"scheduled_time": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{2}:\d{2}$`,
			},

			"resource_duration_template": bson.M{
				"bsonType": "string",
				"enum":     []string{"na", "short", "medium", "long"},
			},

			"resource_duration_override_hours": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
				"maximum":          2160,
			},

			"resource_duration_override_days": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": true,
				"minimum":          0,
				"maximum":          90,
			},

			"allocated_staff": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "name", "type"},
					"properties": bson.M{
						"id":   bson.M{"bsonType": "string"},
						"name": bson.M{"bsonType": "string"},
						"type": bson.M{"enum": []string{"asi_staff", "subcontractor"}},
					},
				},
			},

			"converted_job_id": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"scheduled",
					"confirmed",
					"in_progress",
					"completed",
					"cancelled",
				},
			},

			"eot_check": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"status":      bson.M{"enum": []string{"pending", "not_required", "requested"}},
					"prompted_at": bson.M{"bsonType": "date"},
					"decided_at":  bson.M{"bsonType": "date"},
					"decided_by":  bson.M{"bsonType": "string"},
					"note":        bson.M{"bsonType": "string"},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
