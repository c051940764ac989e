// Package docs registers the swagger spec served at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplateDispatch = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/rides": {
            "get": {"tags": ["Rides"], "summary": "List rides visible to the caller"},
            "post": {"tags": ["Rides"], "summary": "Request a ride"}
        },
        "/rides/{ride_id}": {
            "get": {"tags": ["Rides"], "summary": "Get a ride"}
        },
        "/rides/{ride_id}/accept": {
            "post": {"tags": ["Rides"], "summary": "Accept an offered ride"}
        },
        "/rides/{ride_id}/reject": {
            "post": {"tags": ["Rides"], "summary": "Reject an offered ride"}
        },
        "/rides/{ride_id}/complete": {
            "post": {"tags": ["Rides"], "summary": "Complete an accepted ride"}
        },
        "/rides/{ride_id}/cancel": {
            "post": {"tags": ["Rides"], "summary": "Cancel a ride"}
        },
        "/rides/{ride_id}/offer": {
            "post": {"tags": ["Rides"], "summary": "Offer a ride to a driver (admin)"}
        },
        "/notifications": {
            "get": {"tags": ["Notifications"], "summary": "List notifications"}
        },
        "/notifications/unread": {
            "get": {"tags": ["Notifications"], "summary": "List unread notifications"}
        },
        "/notifications/poll": {
            "get": {"tags": ["Notifications"], "summary": "Poll for recent notifications"}
        },
        "/notifications/{notification_id}/read": {
            "post": {"tags": ["Notifications"], "summary": "Mark one notification as read"}
        },
        "/notifications/read-all": {
            "post": {"tags": ["Notifications"], "summary": "Mark all notifications as read"}
        },
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health check"}
        }
    }
}`

// SwaggerInfoDispatch holds exported Swagger Info so clients can modify it.
var SwaggerInfoDispatch = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ride Dispatch API",
	Description:      "Ride dispatch pipeline: ride lifecycle API, driver matching worker and notification fan-out.",
	InfoInstanceName: "dispatch",
	SwaggerTemplate:  docTemplateDispatch,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfoDispatch.InstanceName(), SwaggerInfoDispatch)
}
