package client

import (
	"fmt"
	"net/url"
	"time"

	"roombook/pkg/model"
)

const bookingsPath = "/api/v1/bookings"

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func bookingPath(id string) string {
	return bookingsPath + "/id/" + url.PathEscape(id)
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST(bookingsPath, body)
}

// CreateIdempotent sends the create with an Idempotency-Key header.
func (c *BookingClient) CreateIdempotent(body any, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders(bookingsPath, body, map[string]string{"Idempotency-Key": key})
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(bookingsPath, rawBody)
}

func (c *BookingClient) GetAll(limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("%s?limit=%d&offset=%d", bookingsPath, limit, offset))
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET(bookingPath(id))
}

func (c *BookingClient) Replace(id string, body any) (*Response, error) {
	return c.httpClient.PUT(bookingPath(id), body)
}

func (c *BookingClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH(bookingPath(id), body)
}

func (c *BookingClient) UpdateRaw(id string, rawBody []byte) (*Response, error) {
	return c.httpClient.PATCHRaw(bookingPath(id), rawBody)
}

func (c *BookingClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE(bookingPath(id))
}

// Availability asks whether roomID is free between start and end. Times are
// passed through as given, either RFC 3339 or local wall-clock times.
func (c *BookingClient) Availability(roomID, start, end, excludeID string) (*Response, error) {
	q := url.Values{}
	q.Set("room_id", roomID)
	q.Set("start_time", start)
	q.Set("end_time", end)
	if excludeID != "" {
		q.Set("exclude_id", excludeID)
	}
	return c.httpClient.GET(bookingsPath + "/availability?" + q.Encode())
}

func (c *BookingClient) Calendar(date, roomID string) (*Response, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	if roomID != "" {
		q.Set("room_id", roomID)
	}
	return c.httpClient.GET(bookingsPath + "/calendar?" + q.Encode())
}

func (c *BookingClient) Stats() (*Response, error) {
	return c.httpClient.GET(bookingsPath + "/stats")
}

func (c *BookingClient) Export(from, to string) (*Response, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return c.httpClient.GET(bookingsPath + "/export?" + q.Encode())
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var bookings []*model.Booking
	metadata, err := decodePage(resp, &bookings)
	if err != nil {
		return nil, nil, err
	}
	return bookings, metadata, nil
}

func (c *BookingClient) DecodeAvailability(resp *Response) (*model.Availability, error) {
	var availability model.Availability
	if err := decodeData(resp, &availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (c *BookingClient) DecodeCalendar(resp *Response) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if err := decodeData(resp, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *BookingClient) DecodeStats(resp *Response) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := decodeData(resp, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *BookingClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}
