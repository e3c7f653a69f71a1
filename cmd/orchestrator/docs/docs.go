// Package docs registers the OpenAPI definition served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "http://www.example.com/support",
            "email": "support@example.com"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/webhooks/events": {
            "post": {
                "description": "Normalizes a raw provider webhook, matches tenant automation rules and dispatches their actions",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Ingest a provider webhook event",
                "parameters": [
                    {
                        "description": "Raw provider event",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/orchestrator.WebhookRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/orchestrator.WebhookResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/webhooks/events/test": {
            "post": {
                "description": "Runs the full pipeline in simulate mode; no external action calls are made and no rule counters change",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Dry-run a provider webhook event",
                "parameters": [
                    {
                        "description": "Raw provider event",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/orchestrator.WebhookRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/orchestrator.WebhookResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "message": {"type": "string"}
            }
        },
        "orchestrator.WebhookRequest": {
            "type": "object",
            "required": ["provider", "instance_id", "event"],
            "properties": {
                "provider": {"type": "string"},
                "instance_id": {"type": "string"},
                "integration_id": {"type": "string"},
                "event": {"type": "string"},
                "payload": {"type": "object", "additionalProperties": true},
                "simulate": {"type": "boolean"}
            }
        },
        "orchestrator.RuleResult": {
            "type": "object",
            "properties": {
                "rule_id": {"type": "string"},
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "orchestrator.WebhookResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "event_id": {"type": "string"},
                "normalized_event": {"type": "object", "additionalProperties": true},
                "rules_matched": {"type": "integer"},
                "results": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/orchestrator.RuleResult"}
                },
                "simulated": {"type": "boolean"},
                "message": {"type": "string"}
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Switchboard Orchestrator API",
	Description:      "Webhook ingestion, event normalization and automation rule orchestration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
