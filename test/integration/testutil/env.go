//go:build integration

package testutil

import (
	"os"
	"testing"
	"time"

	"roombook/pkg/client"
)

const DefaultHealthCheckTimeout = 30 * time.Second

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	BookingsURL  string
	RoomsURL     string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		BookingsURL:  getEnv("TEST_BOOKINGS_URL", "http://localhost:8080"),
		RoomsURL:     getEnv("TEST_ROOMS_URL", "http://localhost:8081"),
	}
}

// Setup empties the collections and waits for the bookings service.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.BookingClient, *client.RoomClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)

	bookings := client.NewBookingClient(e.BookingsURL)
	if err := bookings.WaitForHealthy(DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("bookings service not healthy: %v", err)
	}

	return mongo, bookings, client.NewRoomClient(e.RoomsURL)
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
