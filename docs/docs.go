// Package docs registers the OpenAPI document for the feedback hub API
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Catalog", "description": "Categories, subcategories and their embedded fields"},
        {"name": "Forms", "description": "Effective dynamic forms and answer validation"},
        {"name": "Tickets", "description": "Feedback tickets, status changes and comments"},
        {"name": "Notifications", "description": "In-app inbox"},
        {"name": "Users", "description": "Authenticated caller"},
        {"name": "Admin Catalog", "description": "Catalog administration and spreadsheet import"},
        {"name": "Assignment Rules", "description": "Intake routing rules"}
    ],
    "paths": {}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"https", "http"},
	Title:            "P57 Feedback Hub API",
	Description:      "Studio feedback intake with dynamic forms, rule-based routing and SLA tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
