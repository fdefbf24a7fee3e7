package validators

import (
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func statusNames() []string {
	var names []string
	for _, s := range model.BookingStatuses() {
		names = append(names, s.String())
	}
	return names
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"booked_by",
			"email",
			"contact_number",
			"title",
			"start_time",
			"end_time",
			"number_of_attendees",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"booked_by": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"contact_number": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"number_of_attendees": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  500,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     statusNames(),
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "room_id", "owner", "expires_at", "created_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"room_id":    bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var BookingEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "type", "booking_id", "room_id", "occurred_at"},
		"properties": bson.M{
			"_id": bson.M{"bsonType": "string"},
			"type": bson.M{
				"bsonType": "string",
				"enum":     []string{model.EventBookingCreated, model.EventBookingUpdated, model.EventBookingDeleted},
			},
			"booking_id":  bson.M{"bsonType": "string"},
			"room_id":     bson.M{"bsonType": "string"},
			"occurred_at": bson.M{"bsonType": "date"},
		},
	},
}
