package client

import (
	"fmt"
	"net/url"

	"roombook/pkg/model"
)

const roomsPath = "/api/v1/rooms"

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(baseUrl string) *RoomClient {
	return &RoomClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func roomPath(id string) string {
	return roomsPath + "/id/" + url.PathEscape(id)
}

func (c *RoomClient) Create(body any) (*Response, error) {
	return c.httpClient.POST(roomsPath, body)
}

func (c *RoomClient) GetAll(limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("%s?limit=%d&offset=%d", roomsPath, limit, offset))
}

func (c *RoomClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET(roomPath(id))
}

func (c *RoomClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH(roomPath(id), body)
}

func (c *RoomClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE(roomPath(id))
}

func (c *RoomClient) Capacity(id string) (*Response, error) {
	return c.httpClient.GET(roomPath(id) + "/capacity")
}

func (c *RoomClient) DecodeRoom(resp *Response) (*model.Room, error) {
	var room model.Room
	if err := decodeData(resp, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *RoomClient) DecodeRooms(resp *Response) ([]*model.Room, *Metadata, error) {
	var rooms []*model.Room
	metadata, err := decodePage(resp, &rooms)
	if err != nil {
		return nil, nil, err
	}
	return rooms, metadata, nil
}

func (c *RoomClient) DecodeCapacity(resp *Response) (*model.RoomCapacity, error) {
	var capacity model.RoomCapacity
	if err := decodeData(resp, &capacity); err != nil {
		return nil, err
	}
	return &capacity, nil
}
