// Package docs holds the Swagger document served at /swagger. It follows the
// swag layout and mirrors the handler annotations; regenerate with `swag init`
// after changing a route.
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
        "/admin/cache/{accession}": {
            "get": {
                "description": "Get the cached rows of an accession. Entries from an older parser version are reported missing.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get a cached parse result",
                "parameters": [
                    {"type": "string", "description": "Accession number", "name": "accession", "in": "path", "required": true},
                    {"type": "string", "description": "Filing kind (13f, 13g); defaults to 13f", "name": "form", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CacheEntryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Remove the cached rows of an accession so the next run parses it again",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Invalidate a cached parse result",
                "parameters": [
                    {"type": "string", "description": "Accession number", "name": "accession", "in": "path", "required": true},
                    {"type": "string", "description": "Filing kind (13f, 13g); defaults to 13f", "name": "form", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/funds/upload": {
            "post": {
                "description": "Create funds from a CSV file with cik and name columns. Existing CIKs are skipped.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Seed funds from CSV",
                "parameters": [
                    {"type": "file", "description": "CSV file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UploadFundsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/ingest": {
            "post": {
                "description": "Fetch, parse and merge the 13F and Schedule 13G filings of one filer",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Ingest a filer's ownership filings",
                "parameters": [
                    {"description": "Filer and forms to ingest", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.IngestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IngestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/timeseries/rebuild": {
            "post": {
                "description": "Derive share count changes for the given funds, or every fund when none are given",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Rebuild holdings time series",
                "parameters": [
                    {"description": "Funds to rebuild", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.RebuildTimeSeriesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RebuildTimeSeriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/filings/{accession}": {
            "get": {
                "description": "Get a filing and its holdings by accession number, with or without dashes",
                "produces": ["application/json"],
                "tags": ["filings"],
                "summary": "Get a merged filing",
                "parameters": [
                    {"type": "string", "description": "Accession number", "name": "accession", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.FilingDetailResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/funds": {
            "get": {
                "description": "Get every known fund",
                "produces": ["application/json"],
                "tags": ["funds"],
                "summary": "List funds",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Fund"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/funds/{cik}/timeseries": {
            "get": {
                "description": "Get the share count changes of every security held by a fund",
                "produces": ["application/json"],
                "tags": ["funds"],
                "summary": "Get a fund's holdings time series",
                "parameters": [
                    {"type": "string", "description": "Fund CIK", "name": "cik", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.FundTimeSeriesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.CacheEntryResponse": {
            "type": "object",
            "properties": {
                "accession_number": {"type": "string"},
                "cache_time": {"type": "string"},
                "current_version": {"type": "integer"},
                "namespace": {"type": "string"},
                "parser_version": {"type": "integer"},
                "rows": {"type": "object"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.Filing": {
            "type": "object",
            "properties": {
                "accession_number": {"type": "string"},
                "filer_cik": {"type": "string"},
                "filing_id": {"type": "integer"},
                "filing_kind": {"type": "string"},
                "fund_id": {"type": "integer"},
                "primary_doc_url": {"type": "string"},
                "report_date": {"type": "string"}
            }
        },
        "models.FilingDetailResponse": {
            "type": "object",
            "properties": {
                "filing": {"$ref": "#/definitions/models.Filing"},
                "holdings": {"type": "array", "items": {"$ref": "#/definitions/models.HoldingRecord"}}
            }
        },
        "models.Fund": {
            "type": "object",
            "properties": {
                "cik": {"type": "string"},
                "fund_id": {"type": "integer"},
                "fund_name": {"type": "string"}
            }
        },
        "models.FundTimeSeriesResponse": {
            "type": "object",
            "properties": {
                "fund": {"$ref": "#/definitions/models.Fund"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/models.TimeSeriesPoint"}}
            }
        },
        "models.HoldingRecord": {
            "type": "object",
            "properties": {
                "discretion": {"type": "string"},
                "filing_id": {"type": "integer"},
                "holding_id": {"type": "integer"},
                "percent_of_class": {"type": "number"},
                "security_id": {"type": "integer"},
                "share_type": {"type": "string"},
                "shares_dispo_shared": {"type": "integer"},
                "shares_dispo_sole": {"type": "integer"},
                "shares_owned": {"type": "integer"},
                "value_dollar": {"type": "integer"},
                "voting_none": {"type": "integer"},
                "voting_shared": {"type": "integer"},
                "voting_sole": {"type": "integer"}
            }
        },
        "models.IngestRequest": {
            "type": "object",
            "required": ["cik"],
            "properties": {
                "cik": {"type": "string"},
                "forms": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer"},
                "merge": {"type": "boolean"},
                "since": {"type": "string"}
            }
        },
        "models.IngestResponse": {
            "type": "object",
            "properties": {
                "cik": {"type": "string"},
                "filer_name": {"type": "string"},
                "kinds": {"type": "array", "items": {"$ref": "#/definitions/models.KindSummary"}},
                "time_series_points": {"type": "integer"},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/models.Warning"}}
            }
        },
        "models.KindSummary": {
            "type": "object",
            "properties": {
                "filing_kind": {"type": "string"},
                "merge": {"$ref": "#/definitions/models.MergeReport"},
                "processed": {"type": "integer"},
                "raw_rows": {"type": "integer"},
                "requested": {"type": "integer"},
                "skipped": {"type": "integer"},
                "staging_error": {"type": "string"}
            }
        },
        "models.MergeReport": {
            "type": "object",
            "properties": {
                "filings_inserted": {"type": "integer"},
                "filings_linked": {"type": "integer"},
                "fund_ids": {"type": "array", "items": {"type": "integer"}},
                "funds_inserted": {"type": "integer"},
                "holdings_inserted": {"type": "integer"},
                "holdings_skipped": {"type": "integer"},
                "securities_inserted": {"type": "integer"},
                "staged_rows": {"type": "integer"},
                "staging_id": {"type": "string"}
            }
        },
        "models.RebuildTimeSeriesRequest": {
            "type": "object",
            "properties": {
                "fund_ids": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "models.RebuildTimeSeriesResponse": {
            "type": "object",
            "properties": {
                "funds": {"type": "integer"},
                "inserted": {"type": "integer"}
            }
        },
        "models.TimeSeriesPoint": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "fund_id": {"type": "integer"},
                "security_id": {"type": "integer"},
                "shares_change": {"type": "integer"},
                "shares_change_pct": {"type": "number"},
                "shares_owned": {"type": "integer"}
            }
        },
        "models.UploadFundsResponse": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"type": "string"}},
                "inserted": {"type": "integer"},
                "skipped": {"type": "integer"}
            }
        },
        "models.Warning": {
            "type": "object",
            "properties": {
                "accession_number": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
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
	Title:            "Ownership Filings API",
	Description:      "Ingests 13F and Schedule 13G ownership filings and serves the merged holdings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
