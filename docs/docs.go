// Package docs holds the walletd OpenAPI document, kept in step with the
// handler annotations and registered with swag for the /swagger UI.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        },
        "/v1/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Session status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Install session tokens",
                "parameters": [
                    {"description": "Tokens from the identity provider", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.installSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "delete": {
                "tags": ["session"],
                "summary": "Sign out",
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/onboarding": {
            "get": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Onboarding progress",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.onboardingResponse"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Start onboarding",
                "responses": {
                    "200": {"description": "Already running, halted or completed", "schema": {"$ref": "#/definitions/handler.onboardingResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.onboardingResponse"}}
                }
            }
        },
        "/v1/onboarding/retry": {
            "post": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Retry onboarding",
                "responses": {
                    "200": {"description": "Nothing to retry", "schema": {"$ref": "#/definitions/handler.onboardingResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.onboardingResponse"}}
                }
            }
        },
        "/v1/onboarding/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Provisioning status",
                "parameters": [
                    {"type": "boolean", "description": "Poll until provisioning settles", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.OnboardingStatus"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/wallet": {
            "get": {
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get wallet",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.walletResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Create wallet",
                "parameters": [
                    {"description": "Optional creation parameters", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handler.createWalletRequest"}}
                ],
                "responses": {
                    "200": {"description": "Wallet already existed", "schema": {"$ref": "#/definitions/handler.createWalletResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.createWalletResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.createWalletResponse"}}
                }
            }
        },
        "/v1/wallet/balance": {
            "get": {
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Wallet balance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.balanceResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/v1/wallet/transactions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Wallet transactions",
                "parameters": [
                    {"type": "integer", "description": "Page size (1-100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "asc or desc", "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.transactionsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.EncryptionInfo": {
            "type": "object",
            "properties": {
                "kmsKeyId": {"type": "string"},
                "secretName": {"type": "string"}
            }
        },
        "domain.OnboardingStatus": {
            "type": "object",
            "properties": {
                "hederaAccountId": {"type": "string"},
                "isNewUser": {"type": "boolean"},
                "onboardingError": {"type": "string"},
                "onboardingStatus": {"type": "string", "enum": ["pending", "in_progress", "completed", "failed"]},
                "timestamp": {"type": "string"},
                "walletExists": {"type": "boolean"}
            }
        },
        "domain.SecureWalletInfo": {
            "type": "object",
            "properties": {
                "accountAlias": {"type": "string"},
                "accountType": {"type": "string"},
                "createdAt": {"type": "string"},
                "encryptionInfo": {"$ref": "#/definitions/domain.EncryptionInfo"},
                "needsFunding": {"type": "boolean"},
                "publicKey": {"type": "string"},
                "security": {"type": "string"},
                "userId": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.WalletBalance": {
            "type": "object",
            "properties": {
                "hbar": {"type": "number"},
                "lastUpdated": {"type": "string"},
                "usd": {"type": "number"}
            }
        },
        "domain.CreateWalletProgress": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "percent": {"type": "integer"},
                "stage": {"type": "string"}
            }
        },
        "domain.Transfer": {
            "type": "object",
            "properties": {
                "account": {"type": "string"},
                "amount": {"type": "integer"}
            }
        },
        "domain.LedgerTransaction": {
            "type": "object",
            "properties": {
                "chargedFee": {"type": "integer"},
                "consensusTimestamp": {"type": "string"},
                "name": {"type": "string"},
                "result": {"type": "string"},
                "transactionId": {"type": "string"},
                "transfers": {"type": "array", "items": {"$ref": "#/definitions/domain.Transfer"}}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "support": {"type": "string"}
            }
        },
        "handler.installSessionRequest": {
            "type": "object",
            "required": ["id_token", "refresh_token"],
            "properties": {
                "access_token": {"type": "string"},
                "id_token": {"type": "string"},
                "refresh_token": {"type": "string"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "expires_at": {"type": "string"},
                "fresh": {"type": "boolean"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.onboardingStepResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "handler.onboardingResponse": {
            "type": "object",
            "properties": {
                "completed": {"type": "boolean"},
                "current_step": {"type": "integer"},
                "error": {"type": "string"},
                "progress": {"type": "integer"},
                "run_id": {"type": "string"},
                "started": {"type": "boolean"},
                "state": {"type": "string"},
                "steps": {"type": "array", "items": {"$ref": "#/definitions/handler.onboardingStepResponse"}},
                "support": {"type": "string"},
                "updated_at": {"type": "string"},
                "wallet": {"$ref": "#/definitions/domain.SecureWalletInfo"}
            }
        },
        "handler.createWalletRequest": {
            "type": "object",
            "properties": {
                "account_memo": {"type": "string", "maxLength": 100},
                "initial_balance_hbar": {"type": "number", "maximum": 1000, "minimum": 0}
            }
        },
        "handler.createWalletResponse": {
            "type": "object",
            "properties": {
                "already_existed": {"type": "boolean"},
                "error": {"type": "string"},
                "progress": {"type": "array", "items": {"$ref": "#/definitions/domain.CreateWalletProgress"}},
                "success": {"type": "boolean"},
                "support": {"type": "string"},
                "wallet": {"$ref": "#/definitions/domain.SecureWalletInfo"}
            }
        },
        "handler.walletResponse": {
            "type": "object",
            "properties": {
                "wallet": {"$ref": "#/definitions/domain.SecureWalletInfo"}
            }
        },
        "handler.balanceResponse": {
            "type": "object",
            "properties": {
                "account_id": {"type": "string"},
                "balance": {"$ref": "#/definitions/domain.WalletBalance"}
            }
        },
        "handler.transactionsResponse": {
            "type": "object",
            "properties": {
                "account_id": {"type": "string"},
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/domain.LedgerTransaction"}}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}},
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "walletd API",
	Description:      "Local custody agent: session lifecycle, wallet onboarding and secure wallet access.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
