// Package docs registers the OpenAPI document served at /swagger.
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
    "paths": {
        "/areas": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Places"],
                "summary": "Area codes",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.AreaCode"}}},
                    "502": {"description": "Tourism API unavailable", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/places": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Places"],
                "summary": "List or search attractions",
                "parameters": [
                    {"type": "string", "description": "Search keyword", "name": "keyword", "in": "query"},
                    {"type": "string", "description": "Area code", "name": "areaCode", "in": "query"},
                    {"type": "string", "description": "Content type id", "name": "contentTypeId", "in": "query"},
                    {"enum": ["latest", "name"], "type": "string", "description": "latest or name", "name": "sort", "in": "query"},
                    {"type": "integer", "description": "Page number, from 1", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/place.PlaceList"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/types.Response"}},
                    "502": {"description": "Tourism API unavailable", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/places/{contentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Places"],
                "summary": "Attraction detail",
                "parameters": [{"type": "string", "description": "Content ID", "name": "contentID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/place.PlaceDetail"}},
                    "404": {"description": "Attraction not found", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/places/{contentID}/pet": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Places"],
                "summary": "Pet travel info",
                "parameters": [{"type": "string", "description": "Content ID", "name": "contentID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PetTourInfo"}},
                    "204": {"description": "No pet information"}
                }
            }
        },
        "/stats/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Statistics summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatsSummary"}}}
            }
        },
        "/stats/regions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Attractions per region",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.RegionStats"}}}}
            }
        },
        "/stats/types": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Attractions per content type",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.TypeStats"}}}}
            }
        },
        "/stats/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Invalidate and recompute statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatsSummary"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            }
        },
        "/bookmarks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Bookmarks"],
                "summary": "Bookmarked attractions",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.TourItem"}}}}
            }
        },
        "/bookmarks/{contentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Bookmarks"],
                "summary": "Check bookmark",
                "parameters": [{"type": "string", "description": "Content ID", "name": "contentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.BookmarkStatus"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Bookmarks"],
                "summary": "Add bookmark",
                "parameters": [{"type": "string", "description": "Content ID", "name": "contentID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.BookmarkStatus"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/types.Response"}},
                    "404": {"description": "User not synced", "schema": {"$ref": "#/definitions/types.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Bookmarks"],
                "summary": "Remove bookmark",
                "parameters": [{"type": "string", "description": "Content ID", "name": "contentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.BookmarkStatus"}}}
            }
        },
        "/users/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Sync user",
                "parameters": [{"description": "Optional email override", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/types.SyncUserRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.User"}}}
            }
        }
    },
    "definitions": {
        "types.Response": {"type": "object", "properties": {"success": {"type": "boolean"}, "error": {"type": "string"}, "request_id": {"type": "string"}}},
        "types.AreaCode": {"type": "object", "properties": {"code": {"type": "string"}, "name": {"type": "string"}, "rnum": {"type": "integer"}}},
        "types.TourItem": {"type": "object", "properties": {"contentid": {"type": "string"}, "contenttypeid": {"type": "string"}, "title": {"type": "string"}, "addr1": {"type": "string"}, "mapx": {"type": "string"}, "mapy": {"type": "string"}, "firstimage": {"type": "string"}, "modifiedtime": {"type": "string"}}},
        "types.PetTourInfo": {"type": "object", "properties": {"contentid": {"type": "string"}, "chkpetleash": {"type": "string"}, "chkpetsize": {"type": "string"}, "chkpetplace": {"type": "string"}, "chkpetfee": {"type": "string"}, "petinfo": {"type": "string"}, "parking": {"type": "string"}}},
        "types.RegionStats": {"type": "object", "properties": {"areaCode": {"type": "string"}, "areaName": {"type": "string"}, "count": {"type": "integer"}}},
        "types.TypeStats": {"type": "object", "properties": {"contentTypeId": {"type": "string"}, "contentTypeName": {"type": "string"}, "count": {"type": "integer"}, "percentage": {"type": "number"}}},
        "types.StatsSummary": {"type": "object", "properties": {"totalCount": {"type": "integer"}, "topRegions": {"type": "array", "items": {"$ref": "#/definitions/types.RegionStats"}}, "topTypes": {"type": "array", "items": {"$ref": "#/definitions/types.TypeStats"}}, "lastUpdated": {"type": "string"}}},
        "types.BookmarkStatus": {"type": "object", "properties": {"content_id": {"type": "string"}, "bookmarked": {"type": "boolean"}}},
        "types.SyncUserRequest": {"type": "object", "properties": {"email": {"type": "string"}}},
        "types.User": {"type": "object", "properties": {"id": {"type": "string"}, "external_id": {"type": "string"}, "email": {"type": "string"}, "created_at": {"type": "string"}}},
        "place.PlaceList": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/types.TourItem"}}, "totalCount": {"type": "integer"}, "pageNo": {"type": "integer"}, "numOfRows": {"type": "integer"}, "totalPages": {"type": "integer"}}},
        "place.PlaceDetail": {"type": "object", "properties": {"contentTypeName": {"type": "string"}, "summary": {"type": "string"}, "pet": {"$ref": "#/definitions/types.PetTourInfo"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Korea Tour Explorer API",
	Description:      "Attraction search, detail, statistics and bookmarks backed by the KorService2 tourism API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
