// Package docs registers the OpenAPI documents served under /swagger by the
// storefront and back office services.
package docs

import "github.com/swaggo/swag"

const (
	StorefrontInstance = "storefront"
	BackofficeInstance = "backoffice"
)

const definitions = `
    "definitions": {
        "httpx.HTTPError": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "not found"}}
        },
        "product.Category": {
            "type": "object",
            "properties": {"id": {"type": "string", "example": "burgers"}, "name": {"type": "string", "example": "Hamburguesas"}}
        },
        "product.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string", "example": "Konki Clásica"},
                "description": {"type": "string"},
                "price": {"type": "string", "example": "9.99"},
                "category": {"type": "string", "example": "burgers"},
                "imageUrl": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "product.ListResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "q": {"type": "string"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/product.Product"}}
            }
        },
        "product.CreateProductRequest": {
            "type": "object",
            "required": ["name", "description", "price", "category", "imageUrl"],
            "properties": {
                "name": {"type": "string", "example": "Konki Clásica"},
                "description": {"type": "string", "example": "Hamburguesa de ternera con cheddar y salsa Konki."},
                "price": {"type": "string", "example": "9.99"},
                "category": {"type": "string", "example": "burgers"},
                "imageUrl": {"type": "string"}
            }
        },
        "product.UpdateProductRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "price": {"type": "string"},
                "category": {"type": "string"},
                "imageUrl": {"type": "string"}
            }
        },
        "cart.Item": {
            "type": "object",
            "properties": {"product": {"$ref": "#/definitions/product.Product"}, "quantity": {"type": "integer", "example": 2}}
        },
        "cart.View": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/cart.Item"}},
                "total": {"type": "string", "example": "23.47"},
                "count": {"type": "integer", "example": 3},
                "version": {"type": "integer"}
            }
        },
        "main.AddItemRequest": {
            "type": "object",
            "required": ["productId"],
            "properties": {"productId": {"type": "string"}, "quantity": {"type": "integer", "example": 1}}
        },
        "main.QuantityRequest": {
            "type": "object",
            "properties": {"quantity": {"type": "integer", "example": 3}}
        },
        "main.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "user.RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "address", "password"],
            "properties": {
                "name": {"type": "string", "example": "Ana García"},
                "email": {"type": "string", "example": "ana@example.com"},
                "address": {"type": "string", "example": "Calle Mayor 12, Madrid"},
                "password": {"type": "string", "example": "supersecreta"}
            }
        },
        "user.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "order.Customer": {
            "type": "object",
            "required": ["name", "email", "address"],
            "properties": {
                "name": {"type": "string", "example": "Ana García"},
                "email": {"type": "string", "example": "ana@example.com"},
                "address": {"type": "string", "example": "Calle Mayor 12, Madrid"}
            }
        },
        "order.CheckoutRequest": {
            "type": "object",
            "properties": {"customer": {"$ref": "#/definitions/order.Customer"}}
        },
        "order.ProductSnapshot": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "price": {"type": "string"}, "image": {"type": "string"}}
        },
        "order.Item": {
            "type": "object",
            "properties": {"product": {"$ref": "#/definitions/order.ProductSnapshot"}, "quantity": {"type": "integer"}}
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string", "example": "guest"},
                "customer": {"$ref": "#/definitions/order.Customer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}},
                "total": {"type": "string", "example": "23.47"},
                "status": {"type": "string", "enum": ["Pending", "Accepted", "Rejected"]},
                "pickupTime": {"type": "string", "example": "13:30"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "order.UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string", "enum": ["Accepted", "Rejected"]}, "pickupTime": {"type": "string", "example": "13:30"}}
        },
        "order.StatusResult": {
            "type": "object",
            "properties": {
                "order": {"$ref": "#/definitions/order.Order"},
                "emailSent": {"type": "boolean"},
                "emailError": {"type": "string"},
                "notice": {"type": "string"}
            }
        },
        "order.Summary": {
            "type": "object",
            "properties": {
                "users": {"type": "integer"},
                "products": {"type": "integer"},
                "orders": {"type": "integer"},
                "pending": {"type": "integer"},
                "recent": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}
            }
        },
        "notify.PermissionError": {
            "type": "object",
            "properties": {"operation": {"type": "string"}, "path": {"type": "string"}, "requestData": {"type": "object"}}
        }
    }`

const storefrontPaths = `
    "paths": {
        "/categories": {"get": {"tags": ["catalog"], "summary": "List menu categories", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/product.Category"}}}}}},
        "/products": {"get": {"tags": ["catalog"], "summary": "List products", "parameters": [
            {"name": "category", "in": "query", "type": "string"},
            {"name": "q", "in": "query", "type": "string"},
            {"name": "limit", "in": "query", "type": "integer"},
            {"name": "offset", "in": "query", "type": "integer"}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/product.ListResponse"}}}}},
        "/products/{id}": {"get": {"tags": ["catalog"], "summary": "Get a product", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/product.Product"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/cart": {
            "get": {"tags": ["cart"], "summary": "Current cart", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.View"}}}},
            "delete": {"tags": ["cart"], "summary": "Empty the cart", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.View"}}}}},
        "/cart/items": {"post": {"tags": ["cart"], "summary": "Add a product to the cart", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.AddItemRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.View"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/cart/items/{product_id}": {
            "put": {"tags": ["cart"], "summary": "Set the quantity of a line; zero or less removes it", "parameters": [
                {"name": "product_id", "in": "path", "required": true, "type": "string"},
                {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.QuantityRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.View"}}}},
            "delete": {"tags": ["cart"], "summary": "Remove a line", "parameters": [{"name": "product_id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.View"}}}}},
        "/checkout": {"post": {"tags": ["orders"], "summary": "Place an order with the current cart", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.CheckoutRequest"}}],
            "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/order.Order"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Create an account and log in", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.RegisterRequest"}}],
            "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/user.User"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in and merge the guest cart", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.LoginRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/user.User"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Log out", "responses": {"204": {"description": "No Content"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/user.User"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/me/orders": {"get": {"tags": ["orders"], "summary": "Orders of the current user", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}}}}},
        "/debug/last-error": {"get": {"tags": ["debug"], "summary": "Most recent storage failure relayed by this process", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/notify.PermissionError"}}, "204": {"description": "No Content"}}}}
    },`

const backofficePaths = `
    "paths": {
        "/admin/login": {"post": {"tags": ["auth"], "summary": "Administrator login", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.LoginRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/user.User"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/admin/logout": {"post": {"tags": ["auth"], "summary": "Administrator logout", "responses": {"204": {"description": "No Content"}}}},
        "/admin/dashboard": {"get": {"tags": ["dashboard"], "summary": "Counts and latest orders", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Summary"}}}}},
        "/admin/orders": {"get": {"tags": ["orders"], "summary": "All orders, newest first", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}}}}},
        "/admin/orders/{id}": {"get": {"tags": ["orders"], "summary": "Get an order", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/admin/orders/{id}/status": {"put": {"tags": ["orders"], "summary": "Accept or reject a pending order", "parameters": [
            {"name": "id", "in": "path", "required": true, "type": "string"},
            {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.UpdateStatusRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/order.StatusResult"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/admin/products": {
            "get": {"tags": ["products"], "summary": "List products", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/product.ListResponse"}}}},
            "post": {"tags": ["products"], "summary": "Create a product", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.CreateProductRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/product.Product"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/admin/products/{id}": {
            "put": {"tags": ["products"], "summary": "Update a product", "parameters": [
                {"name": "id", "in": "path", "required": true, "type": "string"},
                {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.UpdateProductRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/product.Product"}}}},
            "delete": {"tags": ["products"], "summary": "Delete a product", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/admin/users": {"get": {"tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/user.User"}}}}}},
        "/admin/users/{id}": {"delete": {"tags": ["users"], "summary": "Delete a user; the primary administrator is protected", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}}}},
        "/admin/debug/last-error": {"get": {"tags": ["debug"], "summary": "Most recent relayed storage failure", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/notify.PermissionError"}}, "204": {"description": "No Content"}}}}
    },`

func document(title, description, paths string) string {
	return `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "` + description + `",
        "title": "` + title + `",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",` + paths + definitions + `
}`
}

var Storefront = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Konki Burger storefront API",
	Description:      "Menu, cart, checkout and customer accounts.",
	InfoInstanceName: StorefrontInstance,
	SwaggerTemplate:  document("Konki Burger storefront API", "Menu, cart, checkout and customer accounts.", storefrontPaths),
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

var Backoffice = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Konki Burger back office API",
	Description:      "Order triage, catalog and user management.",
	InfoInstanceName: BackofficeInstance,
	SwaggerTemplate:  document("Konki Burger back office API", "Order triage, catalog and user management.", backofficePaths),
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(Storefront.InstanceName(), Storefront)
	swag.Register(Backoffice.InstanceName(), Backoffice)
}
